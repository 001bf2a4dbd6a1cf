package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/ironflow/internal/adapters/http/api"
	service "github.com/okian/ironflow/internal/app"
	"github.com/okian/ironflow/internal/domain/model"
	"github.com/okian/ironflow/internal/domain/types"
	"github.com/okian/ironflow/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const meetJSON = `{
  "name": "City Open",
  "event_type": "SBD",
  "formula": "dots",
  "created_at": "2024-03-09T08:00:00Z",
  "athletes": [
    {"id": "a1", "name": "Anna", "bodyweight_kg": 62.5, "gender": "F", "age_category": "open",
     "category": {"id": "f63", "name": "63", "gender": "F"},
     "attempts": [
       {"discipline": "squat", "number": 1, "weight_kg": 120, "verdict": "good"},
       {"discipline": "bench", "number": 1, "weight_kg": 70, "verdict": "good"},
       {"discipline": "deadlift", "number": 1, "weight_kg": 150, "verdict": "good"}
     ]},
    {"id": "a2", "name": "Bea", "bodyweight_kg": 61.0, "gender": "F", "age_category": "open",
     "category": {"id": "f63", "name": "63", "gender": "F"},
     "attempts": [
       {"discipline": "squat", "number": 1, "weight_kg": 110, "verdict": "good"},
       {"discipline": "bench", "number": 1, "weight_kg": 65, "verdict": "bad"},
       {"discipline": "deadlift", "number": 1, "weight_kg": 140, "verdict": "good"}
     ]}
  ]
}`

type fixture struct {
	svc *service.Service
	mux *http.ServeMux
}

func newFixture(opts ...api.Option) fixture {
	svc := service.New(service.WithDefaultFormula(model.FormulaWilks))
	So(svc.Start(context.Background()), ShouldBeNil)
	mux := http.NewServeMux()
	api.NewServer(svc, svc, opts...).Register(context.Background(), mux)
	return fixture{svc: svc, mux: mux}
}

func (f fixture) do(method, target, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, http.NoBody)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, r)
	return w
}

func decode[T any](w *httptest.ResponseRecorder) T {
	var v T
	So(json.Unmarshal(w.Body.Bytes(), &v), ShouldBeNil)
	return v
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		f := newFixture()
		Reset(f.svc.Stop)

		Convey("Then the health endpoint serves metrics", func() {
			w := f.do(http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then the stats endpoint reports the store", func() {
			w := f.do(http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			stats := decode[types.Stats](w)
			So(stats.StoreBackend, ShouldEqual, "memory")
			So(stats.DefaultFormula, ShouldEqual, "wilks")
		})

		Convey("Then unknown methods are rejected", func() {
			w := f.do(http.MethodDelete, "/tournaments/t1", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestTournamentsHandler(t *testing.T) {
	Convey("Given an API server", t, func() {
		f := newFixture()
		Reset(f.svc.Stop)

		Convey("When a snapshot is stored", func() {
			w := f.do(http.MethodPut, "/tournaments/city-2024", meetJSON)
			So(w.Code, ShouldEqual, http.StatusOK)

			Convey("Then the path id and defaults are applied", func() {
				got := decode[model.Tournament](w)
				So(got.ID, ShouldEqual, "city-2024")
				So(got.Formula, ShouldEqual, model.FormulaDots)
				So(got.Status, ShouldEqual, model.TournamentDraft)
			})

			Convey("Then it can be fetched", func() {
				w := f.do(http.MethodGet, "/tournaments/city-2024", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(len(decode[model.Tournament](w).Athletes), ShouldEqual, 2)
			})

			Convey("Then it is listed", func() {
				w := f.do(http.MethodGet, "/tournaments", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				list := decode[[]map[string]any](w)
				So(len(list), ShouldEqual, 1)
				So(list[0]["athletes"], ShouldEqual, float64(2))
			})

			Convey("Then finishing it sets records", func() {
				w := f.do(http.MethodPost, "/tournaments/city-2024/finish", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				res := decode[types.FinishResult](w)
				So(res.TournamentID, ShouldEqual, "city-2024")
				// Anna: squat, bench, deadlift, total. Bea's squat and deadlift do not beat hers.
				So(res.RecordsSet, ShouldEqual, 4)

				w = f.do(http.MethodGet, "/records?gender=F&lift=total", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				recs := decode[[]types.Record](w)
				So(len(recs), ShouldEqual, 1)
				So(recs[0].Holder, ShouldEqual, "Anna")
			})
		})

		Convey("When the formula is missing", func() {
			body := strings.Replace(meetJSON, `"formula": "dots",`, "", 1)
			w := f.do(http.MethodPut, "/tournaments/t1", body)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode[model.Tournament](w).Formula, ShouldEqual, model.FormulaWilks)
		})

		Convey("When the formula is unknown", func() {
			body := strings.Replace(meetJSON, `"dots"`, `"sinclair"`, 1)
			w := f.do(http.MethodPut, "/tournaments/t1", body)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode[model.Tournament](w).Formula, ShouldEqual, model.FormulaTotal)
		})

		Convey("When the body is not JSON", func() {
			w := f.do(http.MethodPut, "/tournaments/t1", "{")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode[errorBody](w).Code, ShouldEqual, "bad_request")
		})

		Convey("When the body has unknown fields", func() {
			w := f.do(http.MethodPut, "/tournaments/t1", `{"name":"x","venue":"gym"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When an athlete is invalid", func() {
			body := strings.Replace(meetJSON, `"bodyweight_kg": 62.5`, `"bodyweight_kg": 0`, 1)
			w := f.do(http.MethodPut, "/tournaments/t1", body)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode[errorBody](w).Message, ShouldContainSubstring, "bodyweight")
		})

		Convey("When the tournament is unknown", func() {
			So(f.do(http.MethodGet, "/tournaments/nope", "").Code, ShouldEqual, http.StatusNotFound)
			So(f.do(http.MethodPost, "/tournaments/nope/finish", "").Code, ShouldEqual, http.StatusNotFound)
			So(f.do(http.MethodGet, "/tournaments/nope/rankings", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})

	Convey("Given a small request limit", t, func() {
		f := newFixture(api.WithMaxRequestBytes(64))
		Reset(f.svc.Stop)

		w := f.do(http.MethodPut, "/tournaments/t1", meetJSON)
		So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
		So(decode[errorBody](w).Code, ShouldEqual, "payload_too_large")
	})
}

func TestRankingsHandler(t *testing.T) {
	Convey("Given a stored tournament", t, func() {
		f := newFixture()
		Reset(f.svc.Stop)
		So(f.do(http.MethodPut, "/tournaments/t1", meetJSON).Code, ShouldEqual, http.StatusOK)

		Convey("When ranking by category", func() {
			w := f.do(http.MethodGet, "/tournaments/t1/rankings", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			r := decode[types.Rankings](w)

			So(r.View, ShouldEqual, "category")
			So(len(r.Categories), ShouldEqual, 1)
			So(r.Categories[0].Category, ShouldEqual, "63 kg F")
			So(*r.Categories[0].Results[0].Place, ShouldEqual, 1)
			So(r.Categories[0].Results[1].Place, ShouldBeNil)
			So(r.Categories[0].Results[1].BombOut, ShouldBeTrue)
		})

		Convey("When ranking overall", func() {
			w := f.do(http.MethodGet, "/tournaments/t1/rankings?view=overall", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(len(decode[types.Rankings](w).Overall), ShouldEqual, 1)
		})

		Convey("When overriding the formula", func() {
			w := f.do(http.MethodGet, "/tournaments/t1/rankings?formula=total", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			r := decode[types.Rankings](w)
			So(r.Formula, ShouldEqual, model.FormulaTotal)
			So(r.Categories[0].Results[0].Score, ShouldBeNil)
		})

		Convey("When the view is unknown", func() {
			w := f.do(http.MethodGet, "/tournaments/t1/rankings?view=podium", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})

	Convey("Given a posted snapshot", t, func() {
		f := newFixture()
		Reset(f.svc.Stop)

		Convey("When computing division rankings", func() {
			w := f.do(http.MethodPost, "/rankings?view=division", meetJSON)
			So(w.Code, ShouldEqual, http.StatusOK)
			r := decode[types.Rankings](w)
			So(len(r.Divisions), ShouldEqual, 1)
			So(r.Divisions[0].Label, ShouldEqual, "Open")
		})

		Convey("Then nothing is stored", func() {
			f.do(http.MethodPost, "/rankings", meetJSON)
			So(decode[[]map[string]any](f.do(http.MethodGet, "/tournaments", "")), ShouldBeEmpty)
		})

		Convey("When an attempt is outside the event", func() {
			body := strings.Replace(meetJSON, `"event_type": "SBD"`, `"event_type": "BP"`, 1)
			w := f.do(http.MethodPost, "/rankings", body)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestRecordsHandler(t *testing.T) {
	Convey("Given an empty vault", t, func() {
		f := newFixture()
		Reset(f.svc.Stop)

		Convey("Then the list is an empty array", func() {
			w := f.do(http.MethodGet, "/records", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(strings.TrimSpace(w.Body.String()), ShouldEqual, "[]")
		})

		Convey("Then a reconcile over no tournaments sets nothing", func() {
			w := f.do(http.MethodPost, "/records/reconcile", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode[types.ReconcileResult](w).RecordsSet, ShouldEqual, 0)
		})

		Convey("Then bad filters are rejected", func() {
			So(f.do(http.MethodGet, "/records?gender=X", "").Code, ShouldEqual, http.StatusBadRequest)
			So(f.do(http.MethodGet, "/records?age_category=veteran", "").Code, ShouldEqual, http.StatusBadRequest)
			So(f.do(http.MethodGet, "/records?lift=clean", "").Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestAnalyticsHandler(t *testing.T) {
	Convey("Given a stored tournament", t, func() {
		f := newFixture()
		Reset(f.svc.Stop)
		So(f.do(http.MethodPut, "/tournaments/t1", meetJSON).Code, ShouldEqual, http.StatusOK)

		Convey("When its analytics are requested", func() {
			w := f.do(http.MethodGet, "/tournaments/t1/analytics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			a := decode[types.Analytics](w)

			Convey("Then accuracy and the totals spread are reported", func() {
				So(a.Participants, ShouldEqual, 2)
				So(a.Women, ShouldEqual, 2)
				So(a.Accuracy[1].Lift, ShouldEqual, model.Bench)
				So(a.Accuracy[1].Percent, ShouldEqual, 50.0)
				So(*a.MedianTotal, ShouldEqual, 340.0)
				So(a.TonnageKg, ShouldEqual, 590.0)
			})
		})

		Convey("When the tournament is unknown", func() {
			So(f.do(http.MethodGet, "/tournaments/nope/analytics", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When a later meet is finished", func() {
			later := strings.Replace(meetJSON, "2024-03-09", "2024-06-01", 1)
			later = strings.Replace(later, `"weight_kg": 120`, `"weight_kg": 125`, 1)
			So(f.do(http.MethodPut, "/tournaments/t2", later).Code, ShouldEqual, http.StatusOK)
			So(f.do(http.MethodPost, "/tournaments/t1/finish", "").Code, ShouldEqual, http.StatusOK)
			So(f.do(http.MethodPost, "/tournaments/t2/finish", "").Code, ShouldEqual, http.StatusOK)

			w := f.do(http.MethodGet, "/athletes/a1/progress", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			p := decode[types.AthleteProgress](w)

			Convey("Then the squat improvement is reported", func() {
				So(p.Deltas[0].Lift, ShouldEqual, model.Squat)
				So(p.Deltas[0].DeltaKg, ShouldEqual, 5.0)
				So(p.Deltas[0].TournamentID, ShouldEqual, "t2")
			})
		})

		Convey("When an athlete has no history", func() {
			w := f.do(http.MethodGet, "/athletes/ghost/progress", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode[types.AthleteProgress](w).Deltas, ShouldBeEmpty)
		})
	})

	Convey("Given a snapshot offering weight classes", t, func() {
		f := newFixture()
		Reset(f.svc.Stop)

		body := strings.Replace(meetJSON, `"category": {"id": "f63", "name": "63", "gender": "F"},`, "", 1)
		body = strings.Replace(body, `"formula": "dots",`, `"formula": "dots",
  "categories": [{"id": "f57", "name": "-57", "gender": "F"}, {"id": "f63", "name": "-63", "gender": "F"}],`, 1)

		w := f.do(http.MethodPut, "/tournaments/t1", body)
		So(w.Code, ShouldEqual, http.StatusOK)

		Convey("Then the uncategorized athlete is assigned by bodyweight", func() {
			got := decode[model.Tournament](w)
			So(got.Athletes[0].Category, ShouldNotBeNil)
			So(got.Athletes[0].Category.Name, ShouldEqual, "-63")
		})
	})
}

type failingStats struct{}

func (failingStats) GetStats(context.Context) (types.Stats, error) {
	return types.Stats{}, errors.New("store offline")
}

func TestStatsHandler(t *testing.T) {
	Convey("Given a failing stats provider", t, func() {
		h := api.NewStatsHandler(failingStats{})
		w := httptest.NewRecorder()
		h.HandleStats(w, httptest.NewRequest(http.MethodGet, "/stats", http.NoBody))

		So(w.Code, ShouldEqual, http.StatusInternalServerError)
		So(w.Body.String(), ShouldContainSubstring, "internal_error")
	})
}

func TestErrors(t *testing.T) {
	Convey("Given wrapped API errors", t, func() {
		cause := errors.New("boom")
		err := api.WrapKind("api.op", api.ErrBadRequest, cause)

		So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
		So(errors.Is(err, cause), ShouldBeTrue)
		So(err.Error(), ShouldEqual, "api.op: bad request: boom")
		So(api.NewKind("api.op", api.ErrNotFound).Error(), ShouldEqual, "api.op: not found")
		So(api.Wrap("api.op", nil), ShouldBeNil)
	})
}

func TestMetricsMiddleware(t *testing.T) {
	Convey("Given a wrapped handler", t, func() {
		h := api.MetricsMiddleware(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
			_, _ = w.Write([]byte("short and stout"))
		}, "teapot")

		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet, "/", bytes.NewReader(nil)))

		So(w.Code, ShouldEqual, http.StatusTeapot)
		So(w.Body.String(), ShouldEqual, "short and stout")
	})
}
