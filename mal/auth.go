// Package mal provides an OAuth2 (PKCE) client for the MyAnimeList REST API.
package mal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/malgo-cli/malgo/constant"
	"github.com/malgo-cli/malgo/log"
)

// successPage is served to the browser once the authorization code has been
// captured. Styling mirrors the rest of the CLI: dark, quiet, dismissable.
const successPage = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Authentication Successful</title>
    <style>
        body { margin: 0; padding: 0; background-color: #0f0f11; color: #ffffff; font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; display: flex; justify-content: center; align-items: center; height: 100vh; text-align: center; }
        h1 { font-size: 24px; font-weight: 500; margin-bottom: 8px; letter-spacing: -0.5px; }
        p { font-size: 15px; color: #88888b; font-weight: 400; }
    </style>
</head>
<body>
    <div>
        <h1>Authentication Successful</h1>
        <p>You may safely close this tab and return to the terminal.</p>
    </div>
</body>
</html>`

const errorPage = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Authentication Failed</title>
    <style>
        body { margin: 0; padding: 0; background-color: #0f0f11; color: #ffffff; font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; display: flex; justify-content: center; align-items: center; height: 100vh; text-align: center; }
        h1 { font-size: 24px; font-weight: 500; margin-bottom: 8px; color: #ff5555; }
        p { font-size: 15px; color: #88888b; }
    </style>
</head>
<body>
    <div>
        <h1>Authentication Failed</h1>
        <p>%s</p>
    </div>
</body>
</html>`

// BeginLogin starts a fresh login attempt: it generates a new PKCE challenge
// and builds the authorization URL the user must visit in a browser. Each
// call produces an independent challenge; the returned Challenge must be
// retained and passed to CompleteLogin.
func (c *Client) BeginLogin() (authURL string, challenge *Challenge, err error) {
	challenge, err = GenerateChallenge()
	if err != nil {
		return "", nil, err
	}

	v := url.Values{}
	v.Set("response_type", "code")
	v.Set("client_id", c.opts.ClientID)
	v.Set("redirect_uri", c.opts.RedirectURI)
	v.Set("code_challenge", challenge.Challenge)
	v.Set("code_challenge_method", "S256")
	v.Set("state", challenge.State)

	return c.opts.AuthURL + "?" + v.Encode(), challenge, nil
}

// callbackResult carries the outcome of the one-shot redirect capture.
type callbackResult struct {
	code string
	err  error
}

// CompleteLogin stands up a short-lived listener on the redirect URI's
// address, waits for the provider's redirect, and exchanges the delivered
// authorization code (together with the challenge's verifier) for a TokenSet.
//
// The wait is event-driven: the calling goroutine blocks on a channel fed by
// the listener's handler, bounded by ctx and the configured login timeout.
// User denial, a missing code, or a state mismatch yield a *CallbackError; a
// failed code exchange yields an *ExchangeError. Neither is retried.
//
// On success the TokenSet is persisted through the configured store before
// returning. If persistence fails, the TokenSet is still returned together
// with a *CacheError, so the session is usable in-memory.
func (c *Client) CompleteLogin(ctx context.Context, challenge *Challenge) (*TokenSet, error) {
	if challenge == nil || challenge.Verifier == "" {
		return nil, &ConfigError{Reason: "challenge from BeginLogin is required"}
	}

	redirect, err := url.Parse(c.opts.RedirectURI)
	if err != nil || redirect.Host == "" {
		return nil, &ConfigError{Reason: "redirect uri has no usable host"}
	}

	path := redirect.Path
	if path == "" {
		path = "/"
	}

	// Buffered so the handler never blocks on an abandoned login.
	resultCh := make(chan callbackResult, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		w.Header().Set("Content-Type", "text/html")

		deliver := func(res callbackResult) {
			select {
			case resultCh <- res:
			default:
				// A result has already been delivered; this is a stray
				// duplicate request.
			}
		}

		if errParam := q.Get("error"); errParam != "" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, errorPage, "The provider reported: "+errParam)
			deliver(callbackResult{err: &CallbackError{Reason: "provider reported " + errParam}})
			return
		}

		if q.Get("state") != challenge.State {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, errorPage, "State mismatch.")
			deliver(callbackResult{err: &CallbackError{Reason: "state mismatch"}})
			return
		}

		code := q.Get("code")
		if code == "" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, errorPage, "No authorization code received.")
			deliver(callbackResult{err: &CallbackError{Reason: "no authorization code in redirect"}})
			return
		}

		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, successPage)
		deliver(callbackResult{code: code})
	})

	listener, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return nil, &CallbackError{Reason: "listener could not bind " + redirect.Host, Cause: err}
	}

	server := &http.Server{Handler: mux}
	serveErr := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	waitCtx, cancel := context.WithTimeout(ctx, c.opts.LoginTimeout)
	defer cancel()

	log.Infof("waiting for login callback on %s", redirect.Host)

	var code string
	select {
	case res := <-resultCh:
		if res.err != nil {
			return nil, res.err
		}
		code = res.code
	case err := <-serveErr:
		return nil, &CallbackError{Reason: "listener failed", Cause: err}
	case <-waitCtx.Done():
		return nil, &CallbackError{Reason: "no callback received before timeout", Cause: waitCtx.Err()}
	}

	// The exchange runs on the caller's context, not waitCtx: a callback
	// arriving just before the login deadline must not starve the exchange
	// of its own time budget.
	token, err := c.codeExchange(ctx, code, challenge.Verifier)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.token = token
	c.mu.Unlock()

	if c.opts.Store != nil {
		if err := c.opts.Store.Save(token); err != nil {
			log.Warnf("token cache not persisted: %v", err)
			return token.clone(), err
		}
	}

	return token.clone(), nil
}

// codeExchange trades the authorization code and PKCE verifier for a TokenSet.
func (c *Client) codeExchange(ctx context.Context, code, verifier string) (*TokenSet, error) {
	form := url.Values{}
	form.Set("client_id", c.opts.ClientID)
	if c.opts.ClientSecret != "" {
		form.Set("client_secret", c.opts.ClientSecret)
	}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("code_verifier", verifier)
	form.Set("redirect_uri", c.opts.RedirectURI)

	return c.tokenRequest(ctx, "exchange", form)
}

// refreshExchange trades a refresh token for a new TokenSet.
func (c *Client) refreshExchange(ctx context.Context, refreshToken string) (*TokenSet, error) {
	form := url.Values{}
	form.Set("client_id", c.opts.ClientID)
	if c.opts.ClientSecret != "" {
		form.Set("client_secret", c.opts.ClientSecret)
	}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	return c.tokenRequest(ctx, "refresh", form)
}

// tokenRequest posts a form to the token endpoint and parses the response.
// Failures are never retried here: refresh tokens are effectively single-use
// and blind retries can amplify rate-limit violations at the provider.
func (c *Client) tokenRequest(ctx context.Context, op string, form url.Values) (*TokenSet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &ExchangeError{Op: op, Cause: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", constant.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ExchangeError{Op: op, Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &ExchangeError{Op: op, Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ExchangeError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var parsed tokenResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &ExchangeError{Op: op, StatusCode: resp.StatusCode, Body: "unparseable body", Cause: err}
	}

	token := parsed.tokenSet(time.Now())
	if !token.Complete() {
		return nil, &ExchangeError{Op: op, StatusCode: resp.StatusCode, Body: "response missing tokens"}
	}

	return token, nil
}
