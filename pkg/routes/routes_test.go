package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/clover/internal/repositories/accident"
	"github.com/Ramsey-B/clover/pkg/analytics"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/middleware"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/output"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func day(s string) models.Date {
	d, _ := time.Parse(models.DateLayout, s)
	return models.NewDate(d)
}

func seed(t *testing.T, repo accident.AccidentRepository) {
	t.Helper()
	fatal := models.ConsolidatedAccident{
		NumAcc:           "202300000001",
		Date:             day("2023-03-15"),
		Hour:             models.NewNumber(18),
		Lat:              models.NewNumber(48.85),
		Long:             models.NewNumber(2.35),
		Dep:              "75",
		Weekday:          models.NewNumber(2),
		SeverityScore:    110,
		SeverityCategory: "Serious",
		Fatal:            1,
	}
	fatal.Persons, fatal.Killed, fatal.LightInjured = 2, 1, 1

	minor := models.ConsolidatedAccident{
		NumAcc:           "202300000002",
		Date:             day("2023-07-01"),
		Dep:              "13",
		SeverityScore:    5,
		SeverityCategory: "Minor",
	}
	minor.Persons, minor.LightInjured = 1, 1

	accidents := []models.ConsolidatedAccident{fatal, minor}
	finished := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, repo.SaveRun(context.Background(), &output.Manifest{
		RunID:           "run-2023",
		Year:            2023,
		Locale:          "en",
		StartedAt:       finished.Add(-time.Minute),
		FinishedAt:      finished,
		KPIs:            analytics.ComputeKPIs(accidents),
		AgeDistribution: []analytics.Bucket{{Label: "18-24", Count: 3}},
	}, accidents))
}

func newTestServer(t *testing.T, checks map[string]HealthCheck) *echo.Echo {
	t.Helper()
	return newPagedTestServer(t, checks, 10)
}

func newPagedTestServer(t *testing.T, checks map[string]HealthCheck, maxPageSize int) *echo.Echo {
	t.Helper()
	logger := newTestLogger()
	db, err := database.Open(context.Background(), database.Config{
		Driver: database.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "clover.db"),
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.NewMigrationService(logger, &database.MigrationConfig{}).Migrate(db))

	repo := accident.NewRepository(db, logger, 100)
	seed(t, repo)

	e := echo.New()
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(middleware.Context())
	NewHandler(repo, nil, logger, checks, maxPageSize).Register(e)
	return e
}

func get(e *echo.Echo, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestStatusCodes(t *testing.T) {
	e := newTestServer(t, nil)

	tests := []struct {
		name         string
		target       string
		expectedCode int
	}{
		{name: "health", target: "/health", expectedCode: http.StatusOK},
		{name: "latest run", target: "/runs/latest", expectedCode: http.StatusOK},
		{name: "latest run of missing year", target: "/runs/latest?year=2019", expectedCode: http.StatusNotFound},
		{name: "run by id", target: "/runs/run-2023", expectedCode: http.StatusOK},
		{name: "unknown run", target: "/runs/nope", expectedCode: http.StatusNotFound},
		{name: "year out of range", target: "/runs?year=1900", expectedCode: http.StatusBadRequest},
		{name: "accident", target: "/accidents/202300000001", expectedCode: http.StatusOK},
		{name: "unknown accident", target: "/accidents/1", expectedCode: http.StatusNotFound},
		{name: "bad date", target: "/accidents?from=15/03/2023", expectedCode: http.StatusBadRequest},
		{name: "page too large", target: "/accidents?limit=11", expectedCode: http.StatusBadRequest},
		{name: "unknown dimension", target: "/stats/breakdown/colour", expectedCode: http.StatusBadRequest},
		{name: "heatmap", target: "/stats/heatmap", expectedCode: http.StatusOK},
		{name: "hotspots", target: "/stats/hotspots?limit=5", expectedCode: http.StatusOK},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rec := get(e, test.target)
			assert.Equal(t, test.expectedCode, rec.Code, rec.Body.String())
		})
	}
}

func TestListAccidentsFilters(t *testing.T) {
	e := newTestServer(t, nil)

	tests := []struct {
		name     string
		target   string
		expected []string
	}{
		{name: "all", target: "/accidents", expected: []string{"202300000001", "202300000002"}},
		{name: "department", target: "/accidents?dep=13", expected: []string{"202300000002"}},
		{name: "exclude fatal", target: "/accidents?exclude_fatal=true", expected: []string{"202300000002"}},
		{name: "date range", target: "/accidents?from=2023-01-01&to=2023-06-30", expected: []string{"202300000001"}},
		{name: "paged", target: "/accidents?limit=1&offset=1", expected: []string{"202300000002"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rec := get(e, test.target)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			res := decode[ListAccidentsResponse](t, rec)
			assert.Equal(t, "run-2023", res.RunID)
			ids := make([]string, 0, len(res.Accidents))
			for _, a := range res.Accidents {
				ids = append(ids, a.NumAcc)
			}
			assert.Equal(t, test.expected, ids)
		})
	}
}

func TestListAccidentsDefaultLimit(t *testing.T) {
	tests := []struct {
		name        string
		maxPageSize int
		target      string
		code        int
		limit       int
	}{
		{name: "max below default", maxPageSize: 10, target: "/accidents", code: http.StatusOK, limit: 10},
		{name: "max above default", maxPageSize: 500, target: "/accidents", code: http.StatusOK, limit: 100},
		{name: "explicit within max", maxPageSize: 10, target: "/accidents?limit=5", code: http.StatusOK, limit: 5},
		{name: "explicit over max", maxPageSize: 10, target: "/accidents?limit=11", code: http.StatusBadRequest},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rec := get(newPagedTestServer(t, nil, test.maxPageSize), test.target)
			require.Equal(t, test.code, rec.Code, rec.Body.String())
			if test.code != http.StatusOK {
				return
			}
			res := decode[ListAccidentsResponse](t, rec)
			assert.Equal(t, test.limit, res.Limit)
			assert.Len(t, res.Accidents, 2)
		})
	}
}

func TestKPIs(t *testing.T) {
	e := newTestServer(t, nil)

	res := decode[StatsResponse[analytics.KPIs]](t, get(e, "/stats/kpis"))
	assert.Equal(t, "run-2023", res.RunID)
	assert.Equal(t, 2, res.Data.Accidents)
	assert.Equal(t, 1, res.Data.Killed)

	res = decode[StatsResponse[analytics.KPIs]](t, get(e, "/stats/kpis?exclude_fatal=true"))
	assert.Equal(t, 1, res.Data.Accidents)
	assert.Equal(t, 0, res.Data.Killed)
}

func TestBreakdown(t *testing.T) {
	e := newTestServer(t, nil)

	rec := get(e, "/stats/breakdown/dep")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[StatsResponse[[]analytics.Group]](t, rec)
	assert.Len(t, res.Data, 2)
}

func TestAgeDistribution(t *testing.T) {
	e := newTestServer(t, nil)

	res := decode[StatsResponse[[]analytics.Bucket]](t, get(e, "/stats/age-distribution?run_id=run-2023"))
	require.Len(t, res.Data, 1)
	assert.Equal(t, 3, res.Data[0].Count)
}

func TestHealthDegraded(t *testing.T) {
	e := newTestServer(t, map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})

	rec := get(e, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	res := decode[HealthResponse](t, rec)
	assert.Equal(t, "degraded", res.Status)
	assert.Equal(t, "ok", res.Checks["database"])
	assert.Equal(t, "connection refused", res.Checks["redis"])
}
