// Package reddit fetches subreddit submissions as content units for the
// ingestion pipeline, using the OAuth client-credentials flow.
package reddit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/kahakai/mentionmap/internal/domain"
)

const (
	defaultAuthURL = "https://www.reddit.com"
	defaultAPIURL  = "https://oauth.reddit.com"
)

// ErrMissingCredentials signals that the source cannot be constructed because
// no API credentials were configured.
var ErrMissingCredentials = errors.New("reddit credentials missing")

// Client fetches submissions from the Reddit listing API.
type Client struct {
	clientID     string
	clientSecret string
	userAgent    string
	http         *resty.Client
	authURL      string
	apiURL       string
	logger       *slog.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// Options configures a Client. AuthURL and APIURL default to the public
// Reddit endpoints and exist for tests.
type Options struct {
	ClientID     string
	ClientSecret string
	UserAgent    string
	Timeout      time.Duration
	AuthURL      string
	APIURL       string
}

// NewClient creates a Reddit listing client. Returns ErrMissingCredentials
// when either credential is empty, so misconfiguration is caught before any
// ingestion work starts.
func NewClient(opts Options, logger *slog.Logger) (*Client, error) {
	if opts.ClientID == "" || opts.ClientSecret == "" {
		return nil, ErrMissingCredentials
	}

	authURL := opts.AuthURL
	if authURL == "" {
		authURL = defaultAuthURL
	}
	apiURL := opts.APIURL
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = "mentionmap/1.0"
	}

	return &Client{
		clientID:     opts.ClientID,
		clientSecret: opts.ClientSecret,
		userAgent:    userAgent,
		http:         resty.New().SetTimeout(opts.Timeout),
		authURL:      authURL,
		apiURL:       apiURL,
		logger:       logger,
	}, nil
}

type authResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type listingResponse struct {
	Data struct {
		Children []struct {
			Data submission `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type submission struct {
	Name      string  `json:"name"` // fullname, e.g. t3_abc123
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Selftext  string  `json:"selftext"`
	Subreddit string  `json:"subreddit"`
	Created   float64 `json:"created_utc"`
}

// FetchChannel returns up to limit of the newest submissions in a subreddit
// as content units, newest first.
func (c *Client) FetchChannel(ctx context.Context, channel string, limit int) ([]domain.ContentUnit, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, fmt.Errorf("reddit authentication failed: %w", err)
	}

	var listing listingResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token).
		SetHeader("User-Agent", c.userAgent).
		SetQueryParam("limit", strconv.Itoa(limit)).
		SetResult(&listing).
		Get(fmt.Sprintf("%s/r/%s/new.json", c.apiURL, channel))
	if err != nil {
		return nil, fmt.Errorf("fetch r/%s: %w", channel, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch r/%s: status %d", channel, resp.StatusCode())
	}

	units := make([]domain.ContentUnit, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		s := child.Data
		externalID := s.Name
		if externalID == "" {
			externalID = "t3_" + s.ID
		}
		units = append(units, domain.ContentUnit{
			ExternalID: externalID,
			Title:      s.Title,
			Body:       s.Selftext,
			Channel:    s.Subreddit,
			PostedAt:   time.Unix(int64(s.Created), 0).UTC(),
		})
	}

	c.logger.Debug("fetched channel", "channel", channel, "units", len(units))
	return units, nil
}

// token returns a cached access token, authenticating when the cached one is
// missing or within a minute of expiry.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-time.Minute)) {
		return c.accessToken, nil
	}

	var auth authResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("User-Agent", c.userAgent).
		SetBasicAuth(c.clientID, c.clientSecret).
		SetFormData(map[string]string{"grant_type": "client_credentials"}).
		SetResult(&auth).
		Post(c.authURL + "/api/v1/access_token")
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("token endpoint status %d", resp.StatusCode())
	}
	if auth.AccessToken == "" {
		return "", errors.New("token endpoint returned no access token")
	}

	c.accessToken = auth.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(auth.ExpiresIn) * time.Second)
	return c.accessToken, nil
}
