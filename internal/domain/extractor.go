package domain

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PlaceTypeUnknown marks heuristic candidates that still need geocoding.
const PlaceTypeUnknown = "unknown"

// heuristicPatterns match place phrases the gazetteer does not know: a
// locative/experiential cue word followed by a capitalized phrase. The first
// pattern prefers phrases ending in a place-type noun; the second accepts a
// bare capitalized capture. Order matters: typed captures are emitted before
// generic ones for the same cue.
var heuristicPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(?i:at|to|from|near|visited?|went to|tried|love|recommend)\s+([A-Z][a-zA-Z'\-\s]+(?:Beach|Restaurant|Cafe|Grill|Inn|Bar|Bakery|Falls|Trail|Bay|Point|Park|Resort))`),
	regexp.MustCompile(`\b(?i:at|to|from|near|visited?|went to)\s+([A-Z][a-zA-Z'\-\s]{2,30})`),
}

// stopwords filters trivial heuristic captures.
var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "this": {}, "that": {}, "it": {},
}

// Extractor finds place-mention candidates in free text using the gazetteer
// plus heuristic pattern matching. It is stateless and safe to share.
type Extractor struct{}

// NewExtractor creates an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the place-mention candidates found in text: gazetteer hits
// first (sorted-table order, with coordinates), then heuristic hits (ordered
// by first occurrence, without coordinates). Empty text yields no candidates.
func (e *Extractor) Extract(text string) []Candidate {
	if text == "" {
		return nil
	}

	lower := strings.ToLower(text)

	var found []Candidate
	for _, name := range gazetteerNames {
		if !strings.Contains(lower, name) {
			continue
		}
		entry := gazetteer[name]
		found = append(found, Candidate{
			Name:      titleCase(name),
			PlaceType: entry.PlaceType,
			City:      entry.City,
			Coords:    &Coordinates{Lat: entry.Lat, Lng: entry.Lng},
		})
	}

	type hit struct {
		cand Candidate
		pos  int
	}
	var hits []hit
	for _, pattern := range heuristicPatterns {
		for _, m := range pattern.FindAllStringSubmatchIndex(text, -1) {
			if len(m) < 4 || m[2] < 0 {
				continue
			}
			capture := strings.TrimSpace(text[m[2]:m[3]])
			normalized := strings.ToLower(capture)
			if _, known := gazetteer[normalized]; known {
				// Already emitted as a resolved candidate above.
				continue
			}
			if _, skip := stopwords[normalized]; skip {
				continue
			}
			hits = append(hits, hit{
				cand: Candidate{Name: capture, PlaceType: PlaceTypeUnknown},
				pos:  m[2],
			})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })
	for _, h := range hits {
		found = append(found, h.cand)
	}

	return found
}

// ExtractContext returns up to window characters on either side of the first
// case-insensitive occurrence of name in text. An ellipsis marker is prefixed
// or suffixed exactly when the window on that side was clamped to the text
// bounds. Returns "" when name does not occur.
func (e *Extractor) ExtractContext(text, name string, window int) string {
	lower := strings.ToLower(text)
	idx := strings.Index(lower, strings.ToLower(name))
	if idx == -1 {
		return ""
	}

	// Window in runes, not bytes, so multibyte text never yields a snippet
	// split mid-character. ToLower maps rune for rune, so rune offsets in
	// the lowered text match the original.
	runes := []rune(text)
	nameStart := utf8.RuneCountInString(lower[:idx])
	nameLen := utf8.RuneCountInString(strings.ToLower(name))

	start := nameStart - window
	clampedStart := start < 0
	if clampedStart {
		start = 0
	}

	end := nameStart + nameLen + window
	clampedEnd := end > len(runes)
	if clampedEnd {
		end = len(runes)
	}

	snippet := string(runes[start:end])
	if clampedStart {
		snippet = "..." + snippet
	}
	if clampedEnd {
		snippet += "..."
	}
	return snippet
}

// titleCase capitalizes a lowercase gazetteer name for display.
func titleCase(name string) string {
	return cases.Title(language.English).String(name)
}
