package mal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/malgo-cli/malgo/filesystem"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNew(t *testing.T) {
	Convey("New", t, func() {
		Convey("Should reject a missing client id", func() {
			_, err := New(Options{RedirectURI: "http://127.0.0.1:9/callback"})

			var configErr *ConfigError
			So(errors.As(err, &configErr), ShouldBeTrue)
		})

		Convey("Should reject a missing redirect uri", func() {
			_, err := New(Options{ClientID: "abc123"})

			var configErr *ConfigError
			So(errors.As(err, &configErr), ShouldBeTrue)
		})

		Convey("Should restore a valid cached session", func() {
			store := NewFileStore("/new/valid.json")
			So(store.Save(sampleToken()), ShouldBeNil)

			client := lo.Must(New(Options{
				ClientID:    "abc123",
				RedirectURI: "http://127.0.0.1:9/callback",
				Store:       store,
			}))

			So(client.Authorized(), ShouldBeTrue)
			So(client.Token().AccessToken, ShouldEqual, "AT1")
		})

		Convey("Should start unauthorized with an empty store", func() {
			client, err := New(Options{
				ClientID:    "abc123",
				RedirectURI: "http://127.0.0.1:9/callback",
				Store:       NewFileStore("/new/empty.json"),
			})

			So(err, ShouldBeNil)
			So(client.Authorized(), ShouldBeFalse)
		})

		Convey("Should refresh an expired cached session once and persist it", func() {
			endpoint := newTokenEndpoint(http.StatusOK, grantBody)
			defer endpoint.srv.Close()

			store := NewFileStore("/new/expired.json")
			stale := sampleToken()
			stale.AccessToken = "AT0"
			stale.RefreshToken = "RT0"
			stale.ExpiresAt = time.Now().Add(-time.Hour)
			So(store.Save(stale), ShouldBeNil)

			client := lo.Must(New(Options{
				ClientID:    "abc123",
				RedirectURI: "http://127.0.0.1:9/callback",
				TokenURL:    endpoint.srv.URL,
				Store:       store,
			}))

			So(endpoint.Calls(), ShouldEqual, 1)
			So(endpoint.Form().Get("grant_type"), ShouldEqual, "refresh_token")
			So(client.Authorized(), ShouldBeTrue)
			So(client.Token().AccessToken, ShouldEqual, "AT1")

			persisted := lo.Must(store.Load())
			So(persisted.AccessToken, ShouldEqual, "AT1")
		})

		Convey("Should stay usable when the cached session cannot be refreshed", func() {
			endpoint := newTokenEndpoint(http.StatusUnauthorized, `{"error":"invalid_grant"}`)
			defer endpoint.srv.Close()

			store := NewFileStore("/new/revoked.json")
			stale := sampleToken()
			stale.ExpiresAt = time.Now().Add(-time.Hour)
			So(store.Save(stale), ShouldBeNil)

			client, err := New(Options{
				ClientID:    "abc123",
				RedirectURI: "http://127.0.0.1:9/callback",
				TokenURL:    endpoint.srv.URL,
				Store:       store,
			})

			So(err, ShouldBeNil)
			So(client.Authorized(), ShouldBeFalse)
		})

		Convey("Should surface an unreadable cache without failing construction", func() {
			store := NewFileStore("/new/corrupt.json")
			So(filesystem.API().WriteFile(store.Path, []byte("{{{"), 0o600), ShouldBeNil)

			client, err := New(Options{
				ClientID:    "abc123",
				RedirectURI: "http://127.0.0.1:9/callback",
				Store:       store,
			})

			var cacheErr *CacheError
			So(errors.As(err, &cacheErr), ShouldBeTrue)
			So(client, ShouldNotBeNil)
			So(client.Authorized(), ShouldBeFalse)
		})
	})
}

func TestNewWithAccessToken(t *testing.T) {
	Convey("NewWithAccessToken", t, func() {
		Convey("Should hold a usable session without a refresh token", func() {
			client := NewWithAccessToken("external-token")

			So(client.Authorized(), ShouldBeTrue)
			So(client.Token().AccessToken, ShouldEqual, "external-token")
			So(client.Token().RefreshToken, ShouldBeEmpty)
		})

		Convey("EnsureFresh should return the token without any network call", func() {
			client := NewWithAccessToken("external-token")

			token, err := client.EnsureFresh(context.Background())
			So(err, ShouldBeNil)
			So(token.AccessToken, ShouldEqual, "external-token")
		})

		Convey("An expired session should report ErrUnauthorized, not attempt a refresh", func() {
			client := NewWithAccessToken("external-token")
			client.token.ExpiresAt = time.Now().Add(-time.Minute)

			_, err := client.EnsureFresh(context.Background())
			So(errors.Is(err, ErrUnauthorized), ShouldBeTrue)
			So(client.Authorized(), ShouldBeFalse)
		})

		Convey("Should attach the bearer token to API requests", func() {
			var auth string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				auth = r.Header.Get("Authorization")
				fmt.Fprint(w, `{"id":99,"name":"spike"}`)
			}))
			defer srv.Close()

			client := NewWithAccessToken("external-token")
			client.opts.APIURL = srv.URL

			user, err := client.MyUserInfo(context.Background())
			So(err, ShouldBeNil)
			So(auth, ShouldEqual, "Bearer external-token")
			So(user.Name, ShouldEqual, "spike")
		})
	})
}

func TestLogout(t *testing.T) {
	Convey("Logout", t, func() {
		store := NewFileStore("/logout/tokens.json")
		So(store.Save(sampleToken()), ShouldBeNil)

		client := lo.Must(New(Options{
			ClientID:    "abc123",
			RedirectURI: "http://127.0.0.1:9/callback",
			Store:       store,
		}))
		So(client.Authorized(), ShouldBeTrue)

		Convey("Should drop both the in-memory and the persisted session", func() {
			So(client.Logout(), ShouldBeNil)
			So(client.Authorized(), ShouldBeFalse)
			So(client.Token(), ShouldBeNil)

			_, err := store.Load()
			So(err, ShouldEqual, ErrNoToken)
		})
	})
}

// apiClient returns a client authorized against the given API stand-in.
func apiClient(apiURL string) *Client {
	client := lo.Must(New(Options{
		ClientID:    "abc123",
		RedirectURI: "http://127.0.0.1:9/callback",
		APIURL:      apiURL,
	}))
	client.token = &TokenSet{
		AccessToken:  "AT1",
		RefreshToken: "RT1",
		TokenType:    "Bearer",
		ExpiresAt:    time.Now().Add(time.Hour),
	}
	return client
}

func TestAPIRequests(t *testing.T) {
	Convey("API requests", t, func() {
		Convey("Should attach the bearer token and decode the response", func() {
			var auth string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				auth = r.Header.Get("Authorization")
				fmt.Fprint(w, `{"id":42,"title":"Cowboy Bebop"}`)
			}))
			defer srv.Close()

			var out Anime
			err := apiClient(srv.URL).get(context.Background(), "/anime/42", nil, &out)

			So(err, ShouldBeNil)
			So(auth, ShouldEqual, "Bearer AT1")
			So(out.ID, ShouldEqual, 42)
			So(out.Title, ShouldEqual, "Cowboy Bebop")
		})

		Convey("Should map 401 to ErrUnauthorized", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			}))
			defer srv.Close()

			err := apiClient(srv.URL).get(context.Background(), "/anime/42", nil, nil)
			So(errors.Is(err, ErrUnauthorized), ShouldBeTrue)
		})

		Convey("Should map 404 to ErrNotFound", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}))
			defer srv.Close()

			err := apiClient(srv.URL).get(context.Background(), "/anime/42", nil, nil)
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})

		Convey("Should wrap other failures in an APIError with the message", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprint(w, `{"error":"bad_request","message":"invalid q"}`)
			}))
			defer srv.Close()

			err := apiClient(srv.URL).get(context.Background(), "/anime", nil, nil)

			var apiErr *APIError
			So(errors.As(err, &apiErr), ShouldBeTrue)
			So(apiErr.StatusCode, ShouldEqual, http.StatusBadRequest)
			So(apiErr.Message, ShouldEqual, "invalid q")
		})

		Convey("Should refuse to call out without a session", func() {
			client := lo.Must(New(Options{
				ClientID:    "abc123",
				RedirectURI: "http://127.0.0.1:9/callback",
			}))

			err := client.get(context.Background(), "/anime", nil, nil)
			So(errors.Is(err, ErrUnauthorized), ShouldBeTrue)
		})
	})
}
