// Package mal provides an OAuth2 (PKCE) client for the MyAnimeList REST API.
package mal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/malgo-cli/malgo/constant"
	"github.com/malgo-cli/malgo/log"
	"github.com/malgo-cli/malgo/network"
)

// defaultLoginTimeout bounds the wait for the browser redirect so an
// abandoned login cannot hang the process indefinitely.
const defaultLoginTimeout = 5 * time.Minute

// Options configures a Client.
type Options struct {
	// ClientID is the application identifier registered with MyAnimeList.
	// Required.
	ClientID string

	// ClientSecret is optional: public PKCE clients have none.
	ClientSecret string

	// RedirectURI must exactly match a URI registered with the MAL API.
	// The login flow binds a local listener to its host and port.
	RedirectURI string

	// Store persists tokens between sessions. Nil disables caching: the user
	// logs in at the start of every session.
	Store TokenStore

	// HTTPClient overrides the shared network client, mainly for tests.
	HTTPClient *http.Client

	// LoginTimeout bounds CompleteLogin's wait for the browser callback.
	LoginTimeout time.Duration

	// Endpoint overrides, used by tests to point at local stand-ins.
	AuthURL  string
	TokenURL string
	APIURL   string
}

// Client talks to the MyAnimeList v2 API on behalf of one authorized user.
//
// A Client is safe for concurrent use: token state is guarded so that at most
// one refresh exchange is in flight at a time, no matter how many API calls
// race past an expired token.
type Client struct {
	opts Options
	http *http.Client

	mu    sync.Mutex
	token *TokenSet
}

// New constructs the client and, when a token store is configured, restores
// the cached session. An expired cached session is refreshed once; if the
// refresh fails the client starts unauthorized and the caller must run the
// login flow.
//
// Store failures do not prevent construction: the returned error is then a
// *CacheError and the Client alongside it is usable, just without a restored
// session.
func New(opts Options) (*Client, error) {
	if opts.ClientID == "" {
		return nil, &ConfigError{Reason: "client id is required"}
	}

	if opts.RedirectURI == "" {
		return nil, &ConfigError{Reason: "redirect uri is required"}
	}

	if _, err := url.Parse(opts.RedirectURI); err != nil {
		return nil, &ConfigError{Reason: fmt.Sprintf("invalid redirect uri: %v", err)}
	}

	if opts.HTTPClient == nil {
		opts.HTTPClient = network.Client
	}
	if opts.LoginTimeout <= 0 {
		opts.LoginTimeout = defaultLoginTimeout
	}
	if opts.AuthURL == "" {
		opts.AuthURL = constant.MALAuthURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = constant.MALTokenURL
	}
	if opts.APIURL == "" {
		opts.APIURL = constant.MALAPIURL
	}

	c := &Client{opts: opts, http: opts.HTTPClient}

	if opts.Store == nil {
		return c, nil
	}

	cached, err := opts.Store.Load()
	if err != nil {
		if errors.Is(err, ErrNoToken) {
			return c, nil
		}
		// Unreadable cache is not fatal: report it and continue in-memory.
		log.Warnf("token cache unreadable: %v", err)
		return c, err
	}

	if cached.Valid() {
		c.token = cached
		return c, nil
	}

	// Expired session with a refresh token: try to renew it once. Failure
	// just means the user has to log in again.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	renewed, err := c.refreshExchange(ctx, cached.RefreshToken)
	if err != nil {
		log.Warnf("cached session could not be refreshed: %v", err)
		return c, nil
	}

	c.token = renewed
	c.persist(renewed)
	return c, nil
}

// NewWithAccessToken creates a client around an externally obtained access
// token. The session carries no refresh token: once the assumed one-hour
// lifetime lapses, EnsureFresh reports ErrUnauthorized instead of attempting
// a doomed refresh exchange. Mainly useful for short scripts and tests.
func NewWithAccessToken(token string) *Client {
	return &Client{
		opts: Options{
			APIURL:       constant.MALAPIURL,
			LoginTimeout: defaultLoginTimeout,
		},
		http: network.Client,
		token: &TokenSet{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresAt:   time.Now().Add(time.Hour),
		},
	}
}

// Authorized reports whether the client currently holds a usable session.
func (c *Client) Authorized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token.Live()
}

// Token returns a copy of the current TokenSet, or nil when unauthorized.
func (c *Client) Token() *TokenSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token.clone()
}

// Logout drops the in-memory session and removes any persisted one.
func (c *Client) Logout() error {
	c.mu.Lock()
	c.token = nil
	c.mu.Unlock()

	if c.opts.Store == nil {
		return nil
	}
	return c.opts.Store.Delete()
}

// EnsureFresh returns the current TokenSet, refreshing it first when its
// expiry (with safety margin) has passed. Concurrent callers observe exactly
// one refresh exchange: the token lock is held across the renewal, and late
// arrivals re-check validity before triggering their own.
//
// A failed refresh leaves the previous TokenSet in place and surfaces an
// *ExchangeError; the session must then be re-established via BeginLogin and
// CompleteLogin. An expired session without a refresh token (from
// NewWithAccessToken) yields ErrUnauthorized without any network call.
func (c *Client) EnsureFresh(ctx context.Context) (*TokenSet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token.Live() {
		return c.token.clone(), nil
	}

	if !c.token.Complete() {
		return nil, ErrUnauthorized
	}

	renewed, err := c.refreshExchange(ctx, c.token.RefreshToken)
	if err != nil {
		return nil, err
	}

	c.token = renewed
	c.persist(renewed)
	return renewed.clone(), nil
}

// persist writes the token set to the configured store. Persistence failures
// are reported in logs but never fail the holding operation: the session
// stays usable in-memory.
func (c *Client) persist(token *TokenSet) {
	if c.opts.Store == nil {
		return
	}
	if err := c.opts.Store.Save(token); err != nil {
		log.Warnf("token cache not persisted: %v", err)
	}
}

// get performs an authenticated GET against the REST API and decodes the
// JSON response into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// do performs an authenticated request against the REST API. A form body, if
// present, is sent urlencoded. The access token is revalidated through
// EnsureFresh before every call.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, form url.Values, out any) error {
	token, err := c.EnsureFresh(ctx)
	if err != nil {
		return err
	}

	endpoint := c.opts.APIURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("User-Agent", constant.UserAgent)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("mal api request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: api rejected the access token", ErrUnauthorized)
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 300:
		return &APIError{StatusCode: resp.StatusCode, Message: readAPIMessage(resp.Body)}
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// readAPIMessage extracts the human-readable part of a MAL error body.
func readAPIMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return ""
	}

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return strings.TrimSpace(string(raw))
	}

	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}
