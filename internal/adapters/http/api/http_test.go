package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/tally/internal/adapters/http/api"
	service "github.com/okian/tally/internal/app"
	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

var (
	_ api.Dependencies  = (*service.Service)(nil)
	_ api.StatsProvider = (*service.Service)(nil)
)

type mockDependencies struct {
	rows      []types.SummaryRow
	groups    []types.AgeGroup
	refs      []types.TicketRef
	report    types.RunReport
	err       error
	gotDay    model.EventDay
	gotCat    model.Category
	adaptive  bool
	runRegion string
}

func (m *mockDependencies) Summary(_ context.Context, region string, day model.EventDay, adaptive bool) ([]types.SummaryRow, error) {
	m.gotDay, m.adaptive = day, adaptive
	return m.rows, m.err
}

func (m *mockDependencies) AgeGroups(_ context.Context, region string, category model.Category, day model.EventDay) ([]types.AgeGroup, error) {
	m.gotCat, m.gotDay = category, day
	return m.groups, m.err
}

func (m *mockDependencies) RunRegion(_ context.Context, region string) (types.RunReport, error) {
	m.runRegion = region
	return m.report, m.err
}

func (m *mockDependencies) Unclassified(region string) ([]types.TicketRef, error) {
	return m.refs, m.err
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func serve(mux *http.ServeMux, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, http.NoBody)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestServer_Register(t *testing.T) {
	Convey("Given a new API server", t, func() {
		capacity := 8
		pct := 12.5
		deps := &mockDependencies{
			rows: []types.SummaryRow{{
				Rank: 1, Category: "HYROX_MEN", EventDay: "SATURDAY", Total: 1, Complete: 1,
				Capacity: &capacity, PercentageFilled: &pct,
			}},
			groups: []types.AgeGroup{{Category: "HYROX_MEN", EventDay: "SATURDAY", Bucket: "30-34", Count: 1}},
			refs:   []types.TicketRef{{TicketID: "u1", RawName: "Merch T-Shirt"}},
			report: types.RunReport{Region: "hk", RunID: "run-1", Units: 3},
		}
		server := api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}})
		mux := http.NewServeMux()
		server.Register(context.Background(), mux)

		Convey("When calling the health endpoint", func() {
			w := serve(mux, http.MethodGet, "/healthz")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"status":"ok"`)
		})

		Convey("When calling the stats endpoint", func() {
			w := serve(mux, http.MethodGet, "/stats")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("When scraping metrics", func() {
			_ = serve(mux, http.MethodGet, "/healthz")
			w := serve(mux, http.MethodGet, "/metrics")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "tally_engine_http_requests_total")
		})

		Convey("When reading a summary", func() {
			w := serve(mux, http.MethodGet, "/summary?region=hk&event_day=sat")

			Convey("Then rows are returned with the parsed day", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.gotDay, ShouldEqual, model.DaySaturday)
				So(deps.adaptive, ShouldBeFalse)

				var body struct {
					Region string             `json:"region"`
					Rows   []types.SummaryRow `json:"rows"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.Region, ShouldEqual, "hk")
				So(body.Rows, ShouldHaveLength, 1)
				So(*body.Rows[0].PercentageFilled, ShouldEqual, 12.5)
			})
		})

		Convey("When reading the adaptive breakdown", func() {
			w := serve(mux, http.MethodGet, "/summary?region=hk&adaptive=true")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.adaptive, ShouldBeTrue)
		})

		Convey("When the summary request is malformed", func() {
			So(serve(mux, http.MethodGet, "/summary").Code, ShouldEqual, http.StatusBadRequest)
			So(serve(mux, http.MethodGet, "/summary?region=hk&event_day=monday").Code, ShouldEqual, http.StatusBadRequest)
			So(serve(mux, http.MethodGet, "/summary?region=hk&adaptive=maybe").Code, ShouldEqual, http.StatusBadRequest)
			So(serve(mux, http.MethodPost, "/summary?region=hk").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When reading age groups by display name", func() {
			w := serve(mux, http.MethodGet, "/age-groups?region=hk&category=Hyrox%20Men&event_day=SATURDAY")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.gotCat, ShouldEqual, model.CatMen)
			So(w.Body.String(), ShouldContainSubstring, `"bucket":"30-34"`)
		})

		Convey("When the age group category is unknown", func() {
			w := serve(mux, http.MethodGet, "/age-groups?region=hk&category=KIDS")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When triggering a run", func() {
			w := serve(mux, http.MethodPost, "/runs?region=hk")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.runRegion, ShouldEqual, "hk")
			So(w.Body.String(), ShouldContainSubstring, `"run_id":"run-1"`)

			So(serve(mux, http.MethodGet, "/runs?region=hk").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When listing unclassified tickets", func() {
			w := serve(mux, http.MethodGet, "/unclassified?region=hk")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "Merch T-Shirt")
		})

		Convey("When the service reports errors", func() {
			cases := []struct {
				err    error
				status int
			}{
				{fmt.Errorf("x: %w", service.ErrUnknownRegion), http.StatusNotFound},
				{service.ErrNoRun, http.StatusNotFound},
				{context.Canceled, http.StatusServiceUnavailable},
				{errors.New("database unavailable"), http.StatusInternalServerError},
			}
			for _, tc := range cases {
				deps.err = tc.err
				So(serve(mux, http.MethodGet, "/summary?region=hk").Code, ShouldEqual, tc.status)
				So(serve(mux, http.MethodGet, "/unclassified?region=hk").Code, ShouldEqual, tc.status)
			}
		})

		Convey("When the path is unknown", func() {
			So(serve(mux, http.MethodGet, "/no-such-route").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}
