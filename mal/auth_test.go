package mal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

// tokenEndpoint is a counting stand-in for the provider's token endpoint.
type tokenEndpoint struct {
	srv   *httptest.Server
	calls int32

	mu       sync.Mutex
	lastForm url.Values

	status int
	body   string
}

func newTokenEndpoint(status int, body string) *tokenEndpoint {
	e := &tokenEndpoint{status: status, body: body}
	e.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&e.calls, 1)
		_ = r.ParseForm()
		e.mu.Lock()
		e.lastForm = r.PostForm
		e.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(e.status)
		fmt.Fprint(w, e.body)
	}))
	return e
}

func (e *tokenEndpoint) Calls() int {
	return int(atomic.LoadInt32(&e.calls))
}

func (e *tokenEndpoint) Form() url.Values {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastForm
}

const grantBody = `{"access_token":"AT1","refresh_token":"RT1","expires_in":3600,"token_type":"Bearer"}`

// freePort reserves an ephemeral port for the callback listener.
func freePort() int {
	ln := lo.Must(net.Listen("tcp", "127.0.0.1:0"))
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

// hitCallback drives the browser's role: it polls until the login listener
// is up and delivers the redirect.
func hitCallback(rawURL string) {
	for i := 0; i < 100; i++ {
		resp, err := http.Get(rawURL)
		if err == nil {
			resp.Body.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}

type loginResult struct {
	token *TokenSet
	err   error
}

func TestBeginLogin(t *testing.T) {
	Convey("BeginLogin", t, func() {
		client := lo.Must(New(Options{
			ClientID:    "abc123",
			RedirectURI: "http://127.0.0.1:9/callback",
		}))

		Convey("Should embed the client id and a full-length challenge", func() {
			authURL, ch, err := client.BeginLogin()
			So(err, ShouldBeNil)
			So(authURL, ShouldContainSubstring, "client_id=abc123")
			So(authURL, ShouldContainSubstring, "code_challenge_method=S256")
			So(authURL, ShouldContainSubstring, "response_type=code")
			So(authURL, ShouldContainSubstring, "code_challenge="+ch.Challenge)
			So(len(ch.Challenge), ShouldBeGreaterThanOrEqualTo, 43)
		})

		Convey("Should produce unlinked challenges per call", func() {
			_, first, _ := client.BeginLogin()
			_, second, _ := client.BeginLogin()
			So(first.Verifier, ShouldNotEqual, second.Verifier)
		})
	})
}

func TestCompleteLogin(t *testing.T) {
	Convey("CompleteLogin", t, func() {
		Convey("Given a valid code it performs exactly one exchange", func() {
			endpoint := newTokenEndpoint(http.StatusOK, grantBody)
			defer endpoint.srv.Close()

			port := freePort()
			client := lo.Must(New(Options{
				ClientID:    "abc123",
				RedirectURI: fmt.Sprintf("http://127.0.0.1:%d/callback", port),
				TokenURL:    endpoint.srv.URL,
			}))

			_, ch, err := client.BeginLogin()
			So(err, ShouldBeNil)

			before := time.Now()
			done := make(chan loginResult, 1)
			go func() {
				token, err := client.CompleteLogin(context.Background(), ch)
				done <- loginResult{token: token, err: err}
			}()

			hitCallback(fmt.Sprintf(
				"http://127.0.0.1:%d/callback?code=xyz&state=%s",
				port, url.QueryEscape(ch.State),
			))

			res := <-done
			So(res.err, ShouldBeNil)
			So(res.token.AccessToken, ShouldEqual, "AT1")
			So(res.token.RefreshToken, ShouldEqual, "RT1")
			So(res.token.TokenType, ShouldEqual, "Bearer")

			// Expiry lands approximately expires_in seconds from the call.
			lifetime := res.token.ExpiresAt.Sub(before)
			So(lifetime, ShouldBeGreaterThan, 3590*time.Second)
			So(lifetime, ShouldBeLessThan, 3610*time.Second)

			So(endpoint.Calls(), ShouldEqual, 1)
			form := endpoint.Form()
			So(form.Get("code"), ShouldEqual, "xyz")
			So(form.Get("code_verifier"), ShouldEqual, ch.Verifier)
			So(form.Get("grant_type"), ShouldEqual, "authorization_code")

			So(client.Authorized(), ShouldBeTrue)
		})

		Convey("User denial yields a CallbackError, not an ExchangeError", func() {
			endpoint := newTokenEndpoint(http.StatusOK, grantBody)
			defer endpoint.srv.Close()

			port := freePort()
			client := lo.Must(New(Options{
				ClientID:    "abc123",
				RedirectURI: fmt.Sprintf("http://127.0.0.1:%d/callback", port),
				TokenURL:    endpoint.srv.URL,
			}))

			_, ch, _ := client.BeginLogin()

			done := make(chan loginResult, 1)
			go func() {
				token, err := client.CompleteLogin(context.Background(), ch)
				done <- loginResult{token: token, err: err}
			}()

			hitCallback(fmt.Sprintf("http://127.0.0.1:%d/callback?error=access_denied", port))

			res := <-done
			So(res.err, ShouldNotBeNil)

			var callbackErr *CallbackError
			var exchangeErr *ExchangeError
			So(errors.As(res.err, &callbackErr), ShouldBeTrue)
			So(errors.As(res.err, &exchangeErr), ShouldBeFalse)
			So(callbackErr.Reason, ShouldContainSubstring, "access_denied")

			// No exchange may have been attempted.
			So(endpoint.Calls(), ShouldEqual, 0)
			So(client.Authorized(), ShouldBeFalse)
		})

		Convey("A state mismatch is rejected as a CallbackError", func() {
			port := freePort()
			client := lo.Must(New(Options{
				ClientID:    "abc123",
				RedirectURI: fmt.Sprintf("http://127.0.0.1:%d/callback", port),
			}))

			_, ch, _ := client.BeginLogin()

			done := make(chan loginResult, 1)
			go func() {
				token, err := client.CompleteLogin(context.Background(), ch)
				done <- loginResult{token: token, err: err}
			}()

			hitCallback(fmt.Sprintf("http://127.0.0.1:%d/callback?code=xyz&state=forged", port))

			res := <-done
			var callbackErr *CallbackError
			So(errors.As(res.err, &callbackErr), ShouldBeTrue)
			So(callbackErr.Reason, ShouldContainSubstring, "state")
		})

		Convey("An abandoned login times out with a CallbackError", func() {
			port := freePort()
			client := lo.Must(New(Options{
				ClientID:     "abc123",
				RedirectURI:  fmt.Sprintf("http://127.0.0.1:%d/callback", port),
				LoginTimeout: 50 * time.Millisecond,
			}))

			_, ch, _ := client.BeginLogin()

			token, err := client.CompleteLogin(context.Background(), ch)
			So(token, ShouldBeNil)

			var callbackErr *CallbackError
			So(errors.As(err, &callbackErr), ShouldBeTrue)
			So(callbackErr.Reason, ShouldContainSubstring, "timeout")
		})

		Convey("A slow exchange is not cut off by the login deadline", func() {
			endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(300 * time.Millisecond)
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, grantBody)
			}))
			defer endpoint.Close()

			port := freePort()
			client := lo.Must(New(Options{
				ClientID:     "abc123",
				RedirectURI:  fmt.Sprintf("http://127.0.0.1:%d/callback", port),
				TokenURL:     endpoint.URL,
				LoginTimeout: 150 * time.Millisecond,
			}))

			_, ch, _ := client.BeginLogin()

			done := make(chan loginResult, 1)
			go func() {
				token, err := client.CompleteLogin(context.Background(), ch)
				done <- loginResult{token: token, err: err}
			}()

			hitCallback(fmt.Sprintf(
				"http://127.0.0.1:%d/callback?code=xyz&state=%s",
				port, url.QueryEscape(ch.State),
			))

			res := <-done
			So(res.err, ShouldBeNil)
			So(res.token.AccessToken, ShouldEqual, "AT1")
		})

		Convey("A failed exchange yields an ExchangeError", func() {
			endpoint := newTokenEndpoint(http.StatusBadRequest, `{"error":"invalid_grant"}`)
			defer endpoint.srv.Close()

			port := freePort()
			client := lo.Must(New(Options{
				ClientID:    "abc123",
				RedirectURI: fmt.Sprintf("http://127.0.0.1:%d/callback", port),
				TokenURL:    endpoint.srv.URL,
			}))

			_, ch, _ := client.BeginLogin()

			done := make(chan loginResult, 1)
			go func() {
				token, err := client.CompleteLogin(context.Background(), ch)
				done <- loginResult{token: token, err: err}
			}()

			hitCallback(fmt.Sprintf(
				"http://127.0.0.1:%d/callback?code=bad&state=%s",
				port, url.QueryEscape(ch.State),
			))

			res := <-done
			var exchangeErr *ExchangeError
			So(errors.As(res.err, &exchangeErr), ShouldBeTrue)
			So(exchangeErr.StatusCode, ShouldEqual, http.StatusBadRequest)
			So(endpoint.Calls(), ShouldEqual, 1)
		})

		Convey("A nil challenge is a configuration error", func() {
			client := lo.Must(New(Options{
				ClientID:    "abc123",
				RedirectURI: "http://127.0.0.1:9/callback",
			}))

			_, err := client.CompleteLogin(context.Background(), nil)
			var configErr *ConfigError
			So(errors.As(err, &configErr), ShouldBeTrue)
		})
	})
}

func TestEnsureFresh(t *testing.T) {
	Convey("EnsureFresh", t, func() {
		Convey("A fresh token is returned without any network call", func() {
			endpoint := newTokenEndpoint(http.StatusOK, grantBody)
			defer endpoint.srv.Close()

			client := lo.Must(New(Options{
				ClientID:    "abc123",
				RedirectURI: "http://127.0.0.1:9/callback",
				TokenURL:    endpoint.srv.URL,
			}))
			client.token = &TokenSet{
				AccessToken:  "AT0",
				RefreshToken: "RT0",
				TokenType:    "Bearer",
				ExpiresAt:    time.Now().Add(time.Hour),
			}

			token, err := client.EnsureFresh(context.Background())
			So(err, ShouldBeNil)
			So(token.AccessToken, ShouldEqual, "AT0")
			So(endpoint.Calls(), ShouldEqual, 0)
		})

		Convey("An expired token triggers exactly one refresh under concurrency", func() {
			endpoint := newTokenEndpoint(http.StatusOK,
				`{"access_token":"AT2","refresh_token":"RT2","expires_in":3600,"token_type":"Bearer"}`)
			defer endpoint.srv.Close()

			client := lo.Must(New(Options{
				ClientID:    "abc123",
				RedirectURI: "http://127.0.0.1:9/callback",
				TokenURL:    endpoint.srv.URL,
			}))
			client.token = &TokenSet{
				AccessToken:  "AT0",
				RefreshToken: "RT0",
				TokenType:    "Bearer",
				ExpiresAt:    time.Now().Add(-time.Hour),
			}

			const callers = 16
			tokens := make([]*TokenSet, callers)
			errs := make([]error, callers)

			var wg sync.WaitGroup
			for i := 0; i < callers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					tokens[i], errs[i] = client.EnsureFresh(context.Background())
				}(i)
			}
			wg.Wait()

			So(endpoint.Calls(), ShouldEqual, 1)
			for i := 0; i < callers; i++ {
				So(errs[i], ShouldBeNil)
				So(tokens[i].AccessToken, ShouldEqual, "AT2")
			}

			So(endpoint.Form().Get("grant_type"), ShouldEqual, "refresh_token")
			So(endpoint.Form().Get("refresh_token"), ShouldEqual, "RT0")
		})

		Convey("A failed refresh leaves the previous token set in place", func() {
			endpoint := newTokenEndpoint(http.StatusUnauthorized, `{"error":"invalid_grant"}`)
			defer endpoint.srv.Close()

			client := lo.Must(New(Options{
				ClientID:    "abc123",
				RedirectURI: "http://127.0.0.1:9/callback",
				TokenURL:    endpoint.srv.URL,
			}))
			expired := &TokenSet{
				AccessToken:  "AT0",
				RefreshToken: "RT0",
				TokenType:    "Bearer",
				ExpiresAt:    time.Now().Add(-time.Hour),
			}
			client.token = expired

			_, err := client.EnsureFresh(context.Background())
			var exchangeErr *ExchangeError
			So(errors.As(err, &exchangeErr), ShouldBeTrue)
			So(exchangeErr.Op, ShouldEqual, "refresh")

			So(client.Token().AccessToken, ShouldEqual, "AT0")
			So(client.Token().RefreshToken, ShouldEqual, "RT0")
		})

		Convey("Without any session it reports ErrUnauthorized", func() {
			client := lo.Must(New(Options{
				ClientID:    "abc123",
				RedirectURI: "http://127.0.0.1:9/callback",
			}))

			_, err := client.EnsureFresh(context.Background())
			So(errors.Is(err, ErrUnauthorized), ShouldBeTrue)
		})
	})
}

func TestEndToEndLogin(t *testing.T) {
	Convey("End to end login example", t, func() {
		var exchangeForm url.Values
		endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = r.ParseForm()
			exchangeForm = r.PostForm
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token":  "AT1",
				"refresh_token": "RT1",
				"expires_in":    3600,
				"token_type":    "Bearer",
			})
		}))
		defer endpoint.Close()

		port := freePort()
		store := NewFileStore("/e2e/tokens.json")
		client := lo.Must(New(Options{
			ClientID:    "abc123",
			RedirectURI: fmt.Sprintf("http://127.0.0.1:%d/callback", port),
			TokenURL:    endpoint.URL,
			Store:       store,
		}))

		authURL, ch, err := client.BeginLogin()
		So(err, ShouldBeNil)
		So(authURL, ShouldContainSubstring, "client_id=abc123")

		parsed := lo.Must(url.Parse(authURL))
		So(len(parsed.Query().Get("code_challenge")), ShouldBeGreaterThanOrEqualTo, 43)

		done := make(chan loginResult, 1)
		go func() {
			token, err := client.CompleteLogin(context.Background(), ch)
			done <- loginResult{token: token, err: err}
		}()

		hitCallback(fmt.Sprintf(
			"http://127.0.0.1:%d/callback?code=xyz&state=%s",
			port, url.QueryEscape(ch.State),
		))

		res := <-done
		So(res.err, ShouldBeNil)
		So(res.token.AccessToken, ShouldEqual, "AT1")
		So(exchangeForm.Get("code_verifier"), ShouldEqual, ch.Verifier)

		// The session round-trips through the cache file.
		cached := lo.Must(store.Load())
		So(cached.AccessToken, ShouldEqual, "AT1")
		So(cached.RefreshToken, ShouldEqual, "RT1")
		So(strings.ToLower(cached.TokenType), ShouldEqual, "bearer")
	})
}
