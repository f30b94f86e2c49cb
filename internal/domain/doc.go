// Package domain models place mentions extracted from social-media text.
//
// # Data Flow
//
// Content units (subreddit submissions and comments) arrive from the source
// adapter as {external id, title, body, channel, posted time}. The extractor
// scans the concatenated title+body for place names; each hit becomes a
// Candidate, either resolved (found in the gazetteer, with coordinates) or
// unresolved (matched by a heuristic pattern, no coordinates). The ingestion
// pipeline turns resolved candidates into persisted Location/Post/Mention
// rows; unresolved candidates are optionally forward-geocoded first.
//
// # Gazetteer
//
// The gazetteer is a fixed table of known Hawaii places keyed by lowercase
// name, mapping to (place type, city, lat, lng). It is immutable reference
// data compiled into the binary; extraction iterates it in sorted-name order
// so results are deterministic. Names are matched as case-insensitive
// substrings of the input, punctuation intact (e.g. "punalu'u black sand
// beach"), and title-cased for display.
//
// # Heuristic Patterns
//
// A second pass runs ordered regular expressions over the original-case text:
// a locative or experiential cue word (at, to, near, visited, went to, tried,
// recommend, ...) followed by a capitalized phrase. The first pattern prefers
// phrases ending in a place-type noun (Beach, Trail, Falls, Inn, ...); the
// second accepts a bare capitalized capture. Captures whose normalized name
// is already in the gazetteer are suppressed so the same span does not yield
// both a resolved and an unresolved candidate. A short stopword list filters
// trivial captures. Heuristic candidates carry no coordinates and are marked
// with the "unknown" place type.
//
// # Mention Facts
//
// A Mention links one Post to one Location with a sentiment score in
// [-1.0, 1.0] and a context snippet (a character window around the first
// occurrence of the name). Mentions are immutable once written; Locations are
// deduplicated case-insensitively by name; Posts are deduplicated by external
// identifier, which is what makes re-ingestion idempotent.
package domain
