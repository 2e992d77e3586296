package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/okian/cyclingdb/internal/adapters/http/api"
	"github.com/okian/cyclingdb/internal/adapters/source"
	service "github.com/okian/cyclingdb/internal/app"
	"github.com/okian/cyclingdb/internal/domain/query"
	"github.com/okian/cyclingdb/internal/domain/rider"
	"github.com/okian/cyclingdb/internal/domain/table"
	"github.com/okian/cyclingdb/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

type fixedLoader struct {
	riders []rider.Rider
	err    error
}

func (l fixedLoader) Load(context.Context) (*table.Table, source.Report, error) {
	if l.err != nil {
		return nil, source.Report{}, l.err
	}
	return table.New(l.riders), source.Report{Source: source.FromCache, Rows: len(l.riders), LoadedAt: time.Now()}, nil
}

func mk(name, team, nat string, age int, ratings map[rider.StatCode]int) rider.Rider {
	return rider.Rider{
		Name:           name,
		Team:           team,
		Nationality:    nat,
		Age:            rider.Int(age),
		Specialization: rider.DeriveSpecialization(ratings),
		Ratings:        ratings,
	}
}

func peloton() []rider.Rider {
	return []rider.Rider{
		mk("Pogačar Tadej", "UAE", "Slovenia", 26, map[rider.StatCode]int{rider.Eval: 85, rider.MO: 85, rider.TT: 80, rider.SP: 68}),
		mk("Vingegaard Jonas", "Visma", "Denmark", 28, map[rider.StatCode]int{rider.Eval: 84, rider.MO: 86, rider.TT: 82}),
		mk("Philipsen Jasper", "Alpecin", "Belgium", 27, map[rider.StatCode]int{rider.Eval: 79, rider.MO: 55, rider.SP: 84}),
		mk("Van Aert Wout", "Visma", "Belgium", 30, map[rider.StatCode]int{rider.Eval: 82, rider.CS: 83, rider.TT: 81}),
	}
}

// stalledLoader blocks until released or until the caller gives up.
type stalledLoader struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newStalledLoader() *stalledLoader {
	return &stalledLoader{started: make(chan struct{}), release: make(chan struct{})}
}

func (l *stalledLoader) Load(ctx context.Context) (*table.Table, source.Report, error) {
	l.once.Do(func() { close(l.started) })
	select {
	case <-l.release:
		return table.New(peloton()), source.Report{Source: source.FromRemote}, nil
	case <-ctx.Done():
		return nil, source.Report{}, &source.Error{Op: "fetch", Kind: source.KindNetwork, Retryable: true, Err: ctx.Err()}
	}
}

func newServer(l service.Loader) http.Handler {
	svc := service.New(service.WithLoader(l))
	return api.NewServer(svc).Handler(context.Background())
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, http.NoBody))
	return w
}

type searchBody struct {
	Total   int           `json:"total"`
	Offset  int           `json:"offset"`
	Limit   int           `json:"limit"`
	Riders  []rider.Rider `json:"riders"`
	Summary struct {
		Count      int      `json:"count"`
		AverageAge *float64 `json:"average_age"`
	} `json:"summary"`
	Overall struct {
		Count int `json:"count"`
	} `json:"overall"`
}

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

func TestProbes(t *testing.T) {
	Convey("Given a server over a healthy source", t, func() {
		h := newServer(fixedLoader{riders: peloton()})

		Convey("Then /healthz is ok", func() {
			w := get(h, "/healthz")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"status":"ok"`)
		})

		Convey("Then /readyz loads the table", func() {
			w := get(h, "/readyz")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"rows":4`)

			st := get(h, "/status")
			var status map[string]any
			So(json.Unmarshal(st.Body.Bytes(), &status), ShouldBeNil)
			So(status["loaded"], ShouldEqual, true)
			So(status["source"], ShouldEqual, "cache")
		})

		Convey("Then /metrics exposes the request counters", func() {
			get(h, "/healthz")
			w := get(h, "/metrics")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "cyclingdb_riders_http_requests_total")
		})

		Convey("Then /openapi.yaml is served", func() {
			So(get(h, "/openapi.yaml").Code, ShouldEqual, http.StatusOK)
		})
	})

	Convey("Given a server whose source is unreachable", t, func() {
		h := newServer(fixedLoader{err: &source.Error{Op: "fetch", Kind: source.KindNetwork, Retryable: true, Err: errors.New("dial tcp: refused")}})

		w := get(h, "/readyz")

		Convey("Then readiness fails with a retryable error", func() {
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(w.Header().Get("Retry-After"), ShouldNotBeEmpty)
			var body errorBody
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(body.Code, ShouldEqual, "source_unavailable")
			So(body.Retryable, ShouldBeTrue)
		})

		Convey("Then liveness is unaffected", func() {
			So(get(h, "/healthz").Code, ShouldEqual, http.StatusOK)
		})
	})

	Convey("Given a source slower than the request timeout", t, func() {
		l := newStalledLoader()
		defer close(l.release)
		svc := service.New(service.WithLoader(l))
		h := api.NewServer(svc, api.WithRequestTimeout(50*time.Millisecond)).Handler(context.Background())

		assertUnavailable := func(w *httptest.ResponseRecorder) {
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(w.Header().Get("Retry-After"), ShouldNotBeEmpty)
			var body errorBody
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(body.Code, ShouldEqual, "source_unavailable")
			So(body.Retryable, ShouldBeTrue)
		}

		Convey("When the request itself runs the load", func() {
			start := time.Now()
			w := get(h, "/riders")

			Convey("Then it answers with a retryable error once its deadline passes", func() {
				So(time.Since(start), ShouldBeLessThan, 5*time.Second)
				assertUnavailable(w)
			})
		})

		Convey("When the request waits behind a background load", func() {
			go svc.Preload(context.Background())
			<-l.started
			start := time.Now()
			w := get(h, "/riders")

			Convey("Then it stops waiting at its deadline with a retryable error", func() {
				So(time.Since(start), ShouldBeLessThan, 5*time.Second)
				assertUnavailable(w)
			})
		})
	})

	Convey("Given a server whose source is garbage", t, func() {
		h := newServer(fixedLoader{err: &source.Error{Op: "parse", Kind: source.KindParse, Err: errors.New("missing columns")}})

		w := get(h, "/riders")
		So(w.Code, ShouldEqual, http.StatusBadGateway)
		var body errorBody
		So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
		So(body.Code, ShouldEqual, "source_invalid")
		So(body.Retryable, ShouldBeFalse)
	})
}

func TestRiders(t *testing.T) {
	Convey("Given a server over the peloton", t, func() {
		h := newServer(fixedLoader{riders: peloton()})

		decode := func(w *httptest.ResponseRecorder) searchBody {
			var body searchBody
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			return body
		}

		Convey("When listing without filters", func() {
			w := get(h, "/riders")
			So(w.Code, ShouldEqual, http.StatusOK)
			body := decode(w)
			So(body.Total, ShouldEqual, 4)
			So(body.Limit, ShouldEqual, service.DefaultLimit)
			So(body.Riders[0].Name, ShouldEqual, "Pogačar Tadej")
			So(body.Overall.Count, ShouldEqual, 4)
		})

		Convey("When filtering by repeated team and a rating bound", func() {
			w := get(h, "/riders?team=Visma&team=UAE&mo_min=80&sort=-MO")
			body := decode(w)
			So(body.Total, ShouldEqual, 2)
			So(body.Riders[0].Name, ShouldEqual, "Vingegaard Jonas")
			So(body.Riders[1].Name, ShouldEqual, "Pogačar Tadej")
		})

		Convey("When searching names case-insensitively", func() {
			lower := decode(get(h, "/riders?name="+url.QueryEscape("pogačar")))
			upper := decode(get(h, "/riders?name="+url.QueryEscape("POGAČAR")))
			So(lower.Total, ShouldEqual, 1)
			So(upper.Riders, ShouldResemble, lower.Riders)
		})

		Convey("When filtering with an expression and age bounds", func() {
			q := url.Values{"expr": {"TT >= 80 && nationality != 'Slovenia'"}, "age_max": {"29"}}
			body := decode(get(h, "/riders?"+q.Encode()))
			So(body.Total, ShouldEqual, 1)
			So(body.Riders[0].Name, ShouldEqual, "Vingegaard Jonas")
		})

		Convey("When paging", func() {
			body := decode(get(h, "/riders?offset=3&limit=2"))
			So(body.Total, ShouldEqual, 4)
			So(body.Riders, ShouldHaveLength, 1)
			So(body.Offset, ShouldEqual, 3)
		})

		Convey("When nothing matches", func() {
			w := get(h, "/riders?nationality=Narnia")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"riders":[]`)
			So(decode(w).Summary.AverageAge, ShouldBeNil)
		})

		Convey("When parameters are malformed", func() {
			for _, q := range []string{
				"age_min=young",
				"age_min=30&age_max=20",
				"zz_min=3",
				"sort=height",
				"specialization=domestique",
				"expr=" + url.QueryEscape("MO >"),
				"limit=-1",
			} {
				w := get(h, "/riders?"+q)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				var body errorBody
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.Code, ShouldEqual, "bad_request")
			}
		})
	})
}

func TestExportStatsFilters(t *testing.T) {
	Convey("Given a server over the peloton", t, func() {
		h := newServer(fixedLoader{riders: peloton()})

		Convey("When exporting one team", func() {
			w := get(h, "/riders/export?team=Visma&limit=1")

			Convey("Then every matching row is returned as a CSV attachment", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "text/csv; charset=utf-8")
				So(w.Header().Get("Content-Disposition"), ShouldContainSubstring, "filtered_riders.csv")
				So(w.Header().Get("X-Total-Count"), ShouldEqual, "2")
				lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
				So(lines, ShouldHaveLength, 3)
			})
		})

		Convey("When asking for stats of Belgians", func() {
			w := get(h, "/stats?nationality=Belgium")
			var body struct {
				Summary struct {
					Count      int     `json:"count"`
					Teams      int     `json:"teams"`
					AverageAge float64 `json:"average_age"`
				} `json:"summary"`
				Overall struct {
					Count int `json:"count"`
				} `json:"overall"`
			}
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(body.Summary.Count, ShouldEqual, 2)
			So(body.Summary.Teams, ShouldEqual, 2)
			So(body.Summary.AverageAge, ShouldEqual, 28.5)
			So(body.Overall.Count, ShouldEqual, 4)
		})

		Convey("When asking for filter options", func() {
			w := get(h, "/filters")
			var body struct {
				Teams         []string `json:"teams"`
				Nationalities []string `json:"nationalities"`
				Age           struct {
					Min int `json:"min"`
					Max int `json:"max"`
				} `json:"age"`
			}
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(body.Teams, ShouldResemble, []string{"Alpecin", "UAE", "Visma"})
			So(body.Nationalities, ShouldHaveLength, 3)
			So(body.Age.Min, ShouldEqual, 26)
			So(body.Age.Max, ShouldEqual, 30)
		})
	})
}

func TestParseRequest(t *testing.T) {
	Convey("Given query parameters", t, func() {
		v := url.Values{
			"name":           {"  van "},
			"team":           {"Visma", "", "UAE"},
			"AGE_MIN":        {"20"},
			"overall_max":    {"90"},
			"mo_min":         {"70"},
			"tt_max":         {""},
			"specialization": {"climber"},
			"sort":           {"-age"},
			"offset":         {"5"},
		}

		req, err := api.ParseRequest(v)

		Convey("Then they map onto the request", func() {
			So(err, ShouldBeNil)
			c := req.Criteria
			So(c.Name, ShouldEqual, "van")
			So(c.Teams, ShouldResemble, []string{"Visma", "UAE"})
			So(*c.Age.Min, ShouldEqual, 20)
			So(c.Age.Max, ShouldBeNil)
			So(*c.Ratings[rider.Eval].Max, ShouldEqual, 90)
			So(*c.Ratings[rider.MO].Min, ShouldEqual, 70)
			So(c.Ratings, ShouldNotContainKey, rider.TT)
			So(c.Specialization, ShouldEqual, rider.Mountain)
			So(req.Sort.Field, ShouldEqual, query.SortAge)
			So(req.Sort.Desc, ShouldBeTrue)
			So(req.Offset, ShouldEqual, 5)
			So(req.Limit, ShouldEqual, 0)
		})
	})

	Convey("Given a non-numeric offset", t, func() {
		_, err := api.ParseRequest(url.Values{"offset": {"first"}})
		So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
	})
}
