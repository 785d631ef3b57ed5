package mal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

// searchServer is a counting search endpoint whose results depend on the
// incoming query.
type searchServer struct {
	srv     *httptest.Server
	calls   int32
	results func(q string) []Anime
}

func newSearchServer(results func(q string) []Anime) *searchServer {
	s := &searchServer{results: results}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&s.calls, 1)

		type node struct {
			Node Anime `json:"node"`
		}
		var payload struct {
			Data []node `json:"data"`
		}
		for _, anime := range s.results(r.URL.Query().Get("q")) {
			payload.Data = append(payload.Data, node{Node: anime})
		}

		_ = json.NewEncoder(w).Encode(payload)
	}))
	return s
}

func (s *searchServer) Calls() int {
	return int(atomic.LoadInt32(&s.calls))
}

func TestFindClosest(t *testing.T) {
	Convey("FindClosest", t, func() {
		Convey("Should pick the levenshtein-closest of several results", func() {
			server := newSearchServer(func(string) []Anime {
				return []Anime{
					{ID: 1, Title: "Fullmetal Alchemist"},
					{ID: 2, Title: "Fullmetal Alchemist: Brotherhood"},
					{ID: 3, Title: "Fullmetal Panic"},
				}
			})
			defer server.srv.Close()
			client := apiClient(server.srv.URL)

			anime, err := client.FindClosest(context.Background(), "Fullmetal Alchemist: Brotherhood")
			So(err, ShouldBeNil)
			So(anime.ID, ShouldEqual, 2)
			So(server.Calls(), ShouldEqual, 1)

			Convey("And serve the repeat lookup from the cache", func() {
				again, err := client.FindClosest(context.Background(), "fullmetal alchemist: brotherhood")
				So(err, ShouldBeNil)
				So(again.ID, ShouldEqual, 2)
				So(server.Calls(), ShouldEqual, 1)
			})
		})

		Convey("Should resolve a bound title without any network call", func() {
			server := newSearchServer(func(string) []Anime { return nil })
			defer server.srv.Close()
			client := apiClient(server.srv.URL)

			So(SetRelation("cached show alpha", &Anime{ID: 11, Title: "Cached Show Alpha"}), ShouldBeNil)

			anime, err := client.FindClosest(context.Background(), "Cached Show Alpha")
			So(err, ShouldBeNil)
			So(anime.ID, ShouldEqual, 11)
			So(server.Calls(), ShouldEqual, 0)
		})

		Convey("Should cache a miss and short-circuit the repeat lookup", func() {
			server := newSearchServer(func(string) []Anime { return nil })
			defer server.srv.Close()
			client := apiClient(server.srv.URL)

			_, err := client.FindClosest(context.Background(), "totally unknown")
			So(err, ShouldNotBeNil)
			So(server.Calls(), ShouldEqual, 1)

			_, err = client.FindClosest(context.Background(), "totally unknown")
			So(err, ShouldNotBeNil)
			So(server.Calls(), ShouldEqual, 1)
		})

		Convey("Should evict a stale binding and rebind to a live record", func() {
			server := newSearchServer(func(string) []Anime {
				return []Anime{{ID: 7, Title: "Stale Show Gamma"}}
			})
			defer server.srv.Close()
			client := apiClient(server.srv.URL)

			// A binding to a record the search no longer returns.
			So(relationCacher.Set("stale show gamma", 404), ShouldBeNil)

			anime, err := client.FindClosest(context.Background(), "Stale Show Gamma")
			So(err, ShouldBeNil)
			So(anime.ID, ShouldEqual, 7)
			So(relationCacher.Get("stale show gamma").MustGet(), ShouldEqual, 7)
		})

		Convey("Should drop trailing words until the search hits", func() {
			server := newSearchServer(func(q string) []Anime {
				if q == "cowboy bebop movie" {
					return []Anime{{ID: 5, Title: "Cowboy Bebop Movie"}}
				}
				return nil
			})
			defer server.srv.Close()
			client := apiClient(server.srv.URL)

			anime, err := client.FindClosest(context.Background(), "cowboy bebop movie delta")
			So(err, ShouldBeNil)
			So(anime.ID, ShouldEqual, 5)
			So(server.Calls(), ShouldEqual, 2)

			// The original phrasing is bound too, so the retry never repeats.
			So(relationCacher.Get("cowboy bebop movie delta").MustGet(), ShouldEqual, 5)
		})
	})
}
