// Package routes serves the consolidated accidents and their analytics over
// HTTP.
package routes

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/clover/internal/repositories/accident"
	"github.com/Ramsey-B/clover/pkg/cache"
	clovercontext "github.com/Ramsey-B/clover/pkg/context"
	"github.com/Ramsey-B/clover/pkg/output"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/trace"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Handler struct {
	repo        accident.AccidentRepository
	cache       *cache.SummaryCache
	logger      ectologger.Logger
	checks      map[string]HealthCheck
	maxPageSize int
}

// NewHandler builds the route handlers. summaries may be nil, in which case
// every analytics request is computed from the database.
func NewHandler(repo accident.AccidentRepository, summaries *cache.SummaryCache, logger ectologger.Logger, checks map[string]HealthCheck, maxPageSize int) *Handler {
	if maxPageSize <= 0 {
		maxPageSize = 500
	}
	return &Handler{
		repo:        repo,
		cache:       summaries,
		logger:      logger,
		checks:      checks,
		maxPageSize: maxPageSize,
	}
}

// Register registers every route on e
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/health", h.Health)

	runs := e.Group("/runs")
	runs.GET("", h.ListRuns)
	runs.GET("/latest", h.LatestRun)
	runs.GET("/:run_id", h.GetRun)

	accidents := e.Group("/accidents")
	accidents.GET("", h.ListAccidents)
	accidents.GET("/:num_acc", h.GetAccident)

	stats := e.Group("/stats")
	stats.GET("/kpis", h.KPIs)
	stats.GET("/breakdown/:dimension", h.Breakdown)
	stats.GET("/hotspots", h.Hotspots)
	stats.GET("/heatmap", h.Heatmap)
	stats.GET("/age-distribution", h.AgeDistribution)
}

// resolveRun loads the run a request targets and tags the context with it.
func (h *Handler) resolveRun(ctx context.Context, q RunQuery) (context.Context, *output.Manifest, error) {
	var (
		run *output.Manifest
		err error
	)
	if q.RunID != "" {
		run, err = h.repo.GetRun(ctx, q.RunID)
	} else {
		run, err = h.repo.LatestRun(ctx, q.Year)
	}
	if err != nil {
		return ctx, nil, err
	}
	trace.SpanFromContext(ctx).SetAttributes(tracing.AttrRunID.String(run.RunID), tracing.AttrYear.Int(run.Year))
	return clovercontext.SetRunID(ctx, run.RunID), run, nil
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health handles GET /health
func (h *Handler) Health(c echo.Context) error {
	ctx := c.Request().Context()
	res := HealthResponse{Status: "ok", Checks: map[string]string{}}
	code := http.StatusOK
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.WithContext(ctx).WithError(err).Warnf("Health check '%s' failed", name)
			res.Checks[name] = err.Error()
			res.Status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		res.Checks[name] = "ok"
	}
	return c.JSON(code, res)
}
