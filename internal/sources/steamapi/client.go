// Package steamapi fetches friends, profiles, owned games and location
// names from the Steam Web API and the community site.
package steamapi

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MrSnakeDoc/steamjump/internal/domain"
	"github.com/MrSnakeDoc/steamjump/internal/logger"
	"github.com/MrSnakeDoc/steamjump/internal/utils"
)

// summaryBatch is the most IDs GetPlayerSummaries accepts per call.
const summaryBatch = 100

const (
	DefaultAPIBaseURL       = "https://api.steampowered.com"
	DefaultCommunityBaseURL = "https://steamcommunity.com"
)

// Options configures a Client.
type Options struct {
	APIKey           string
	APIBaseURL       string
	CommunityBaseURL string

	// RequestTimeout bounds a single HTTP attempt.
	RequestTimeout time.Duration
	// Retries is the number of extra attempts after a retryable failure.
	Retries int
	// Backoff is the first wait between attempts, doubled every retry.
	Backoff time.Duration

	// HTTPClient overrides the default transport (tests).
	HTTPClient *http.Client
}

// Client talks to the Steam Web API. It is safe for concurrent use.
type Client struct {
	opts   Options
	http   *http.Client
	logger logger.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewClient creates a Steam Web API client
func NewClient(opts Options, log logger.Logger) *Client {
	if opts.APIBaseURL == "" {
		opts.APIBaseURL = DefaultAPIBaseURL
	}
	if opts.CommunityBaseURL == "" {
		opts.CommunityBaseURL = DefaultCommunityBaseURL
	}
	opts.APIBaseURL = strings.TrimRight(opts.APIBaseURL, "/")
	opts.CommunityBaseURL = strings.TrimRight(opts.CommunityBaseURL, "/")
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 500 * time.Millisecond
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = newHTTPClient(opts.RequestTimeout)
	}

	return &Client{
		opts:   opts,
		http:   hc,
		logger: log,
		sleep:  sleepCtx,
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout: timeout,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// ResolveIdentity maps a vanity username to its SteamID64.
// A value that already is a SteamID64 is returned unchanged.
func (c *Client) ResolveIdentity(ctx context.Context, username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", fmt.Errorf("%w: empty username", domain.ErrRemoteFetch)
	}
	if isSteamID64(username) {
		return username, nil
	}

	var body vanityResponse
	q := url.Values{"vanityurl": {username}}
	if err := c.getJSON(ctx, c.apiURL("ISteamUser/ResolveVanityURL/v1", q), &body); err != nil {
		return "", err
	}
	if body.Response.Success != 1 || body.Response.SteamID == "" {
		msg := body.Response.Message
		if msg == "" {
			msg = "no match"
		}
		return "", fmt.Errorf("%w: resolve %q: %s", domain.ErrRemoteFetch, username, msg)
	}
	return body.Response.SteamID, nil
}

// FetchFriendList returns the friends of steamID.
func (c *Client) FetchFriendList(ctx context.Context, steamID string) ([]domain.FriendSummary, error) {
	var body friendListResponse
	q := url.Values{"steamid": {steamID}, "relationship": {"friend"}}
	if err := c.getJSON(ctx, c.apiURL("ISteamUser/GetFriendList/v1", q), &body); err != nil {
		return nil, err
	}
	return mapFriends(body.FriendsList.Friends), nil
}

// FetchFriendProfiles returns the summaries of ids, in batches of 100.
// IDs the API does not answer for are absent from the result.
func (c *Client) FetchFriendProfiles(ctx context.Context, ids []string) ([]domain.FriendProfile, error) {
	out := make([]domain.FriendProfile, 0, len(ids))
	for start := 0; start < len(ids); start += summaryBatch {
		end := min(start+summaryBatch, len(ids))
		batch := ids[start:end]

		c.logger.Debug("fetching player summaries",
			logger.Int("from", start),
			logger.Int("count", len(batch)),
		)

		var body playerSummariesResponse
		q := url.Values{"steamids": {strings.Join(batch, ",")}}
		if err := c.getJSON(ctx, c.apiURL("ISteamUser/GetPlayerSummaries/v2", q), &body); err != nil {
			return nil, err
		}
		for _, row := range body.Response.Players {
			if row.SteamID == "" {
				continue
			}
			out = append(out, mapPlayer(row))
		}
	}
	return out, nil
}

// FetchOwnedApps returns the games owned by steamID, free games included.
func (c *Client) FetchOwnedApps(ctx context.Context, steamID string) ([]domain.OwnedApp, error) {
	var body ownedGamesResponse
	q := url.Values{
		"steamid":                   {steamID},
		"include_appinfo":           {"1"},
		"include_played_free_games": {"1"},
		"format":                    {"json"},
	}
	if err := c.getJSON(ctx, c.apiURL("IPlayerService/GetOwnedGames/v1", q), &body); err != nil {
		return nil, err
	}
	return mapGames(body.Response.Games), nil
}

// FetchLocationNames returns the names one level below the given codes:
// every country when country is empty, the states of country when state
// is empty, else the cities of the state.
func (c *Client) FetchLocationNames(ctx context.Context, country, state string) (domain.LocationNames, error) {
	path := "actions/QueryLocations/"
	if country != "" {
		path += url.PathEscape(country)
		if state != "" {
			path += "/" + url.PathEscape(state)
		}
	}

	var rows []locationRow
	if err := c.getJSON(ctx, c.opts.CommunityBaseURL+"/"+path, &rows); err != nil {
		return nil, err
	}
	return mapLocations(country, state, rows), nil
}

func (c *Client) apiURL(method string, q url.Values) string {
	q.Set("key", c.opts.APIKey)
	return c.opts.APIBaseURL + "/" + method + "/?" + q.Encode()
}

// statusError is a non-200 answer. 5xx and 429 are retried.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("status %d", e.code)
	}
	return fmt.Sprintf("status %d: %s", e.code, e.body)
}

func (e *statusError) retryable() bool {
	return e.code == http.StatusTooManyRequests || e.code >= 500
}

// getJSON fetches rawURL and decodes the body into v, retrying transport
// errors and retryable statuses with exponential backoff.
func (c *Client) getJSON(ctx context.Context, rawURL string, v any) error {
	var lastErr error
	for attempt := 0; attempt <= c.opts.Retries; attempt++ {
		if attempt > 0 {
			backoff := c.opts.Backoff * time.Duration(1<<uint(attempt-1))
			c.logger.Debug("retrying steam request",
				logger.Int("attempt", attempt),
				logger.Duration("backoff", backoff),
				logger.Error(lastErr),
			)
			if err := c.sleep(ctx, backoff); err != nil {
				break
			}
		}

		lastErr = c.fetch(ctx, rawURL, v)
		if lastErr == nil {
			return nil
		}
		if !retryable(ctx, lastErr) {
			break
		}
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrRemoteFetch, redact(rawURL), lastErr)
}

func (c *Client) fetch(ctx context.Context, rawURL string, v any) error {
	body, err := c.open(ctx, rawURL)
	if err != nil {
		return err
	}
	defer utils.Close(body)

	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// open issues one attempt under its own timeout. The returned body
// releases that timeout when closed.
func (c *Client) open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.opts.RequestTimeout)

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		cancel()
		// *url.Error repeats the URL, key included
		var ue *url.Error
		if errors.As(err, &ue) {
			return nil, ue.Err
		}
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		_ = resp.Body.Close()
		cancel()
		return nil, &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(snippet))}
	}

	return &utils.CancelOnClose{ReadCloser: resp.Body, Cancel: cancel}, nil
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.retryable()
	}
	var syntax *json.SyntaxError
	var typ *json.UnmarshalTypeError
	return !errors.As(err, &syntax) && !errors.As(err, &typ)
}

// redact hides the API key in error messages.
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid url>"
	}
	q := u.Query()
	if q.Has("key") {
		q.Set("key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func isSteamID64(s string) bool {
	if len(s) != 17 || !strings.HasPrefix(s, "7656119") {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
