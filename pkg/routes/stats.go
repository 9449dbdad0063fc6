package routes

import (
	"context"
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectolinq"
	"github.com/Ramsey-B/clover/pkg/analytics"
	"github.com/Ramsey-B/clover/pkg/cache"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/labstack/echo/v4"
)

// StatsResponse wraps an analytics result with the run it was computed on.
type StatsResponse[T any] struct {
	RunID string `json:"run_id"`
	Year  int    `json:"year"`
	Data  T      `json:"data"`
}

// KPIs handles GET /stats/kpis
func (h *Handler) KPIs(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "StatsHandler.KPIs")
	defer span.End()

	req, err := BindRequest[FilterQuery](c)
	if err != nil {
		return err
	}
	ctx, run, err := h.resolveRun(ctx, req.RunQuery)
	if err != nil {
		return err
	}

	filter := req.Filter()
	kpis, err := cache.Fetch(ctx, h.cache, cache.KPIKey(run.RunID, filter), func(ctx context.Context) (analytics.KPIs, error) {
		accidents, err := h.repo.All(ctx, run.RunID, filter)
		if err != nil {
			return analytics.KPIs{}, err
		}
		return analytics.ComputeKPIs(accidents), nil
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, StatsResponse[analytics.KPIs]{RunID: run.RunID, Year: run.Year, Data: kpis})
}

type BreakdownRequest struct {
	FilterQuery
	Dimension string `param:"dimension" validate:"required"`
	Limit     int    `query:"limit" validate:"omitempty,min=1,max=1000"`
}

// Breakdown handles GET /stats/breakdown/:dimension
func (h *Handler) Breakdown(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "StatsHandler.Breakdown")
	defer span.End()

	req, err := BindRequest[BreakdownRequest](c)
	if err != nil {
		return err
	}
	if !ectolinq.Contains(analytics.Dimensions(), req.Dimension) {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "unknown dimension '%s'", req.Dimension).
			AddMetaValue("dimensions", strings.Join(analytics.Dimensions(), ","))
	}

	ctx, run, err := h.resolveRun(ctx, req.RunQuery)
	if err != nil {
		return err
	}

	filter := req.Filter()
	key := cache.BreakdownKey(run.RunID, req.Dimension, req.Limit, filter)
	groups, err := cache.Fetch(ctx, h.cache, key, func(ctx context.Context) ([]analytics.Group, error) {
		accidents, err := h.repo.All(ctx, run.RunID, filter)
		if err != nil {
			return nil, err
		}
		return analytics.Breakdown(accidents, req.Dimension, req.Limit)
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, StatsResponse[[]analytics.Group]{RunID: run.RunID, Year: run.Year, Data: groups})
}

type HotspotsRequest struct {
	FilterQuery
	Limit int `query:"limit" validate:"omitempty,min=1,max=1000"`
}

// Hotspots handles GET /stats/hotspots
func (h *Handler) Hotspots(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "StatsHandler.Hotspots")
	defer span.End()

	req, err := BindRequest[HotspotsRequest](c)
	if err != nil {
		return err
	}
	if req.Limit == 0 {
		req.Limit = 50
	}
	ctx, run, err := h.resolveRun(ctx, req.RunQuery)
	if err != nil {
		return err
	}

	filter := req.Filter()
	spots, err := cache.Fetch(ctx, h.cache, cache.HotspotKey(run.RunID, req.Limit, filter), func(ctx context.Context) ([]analytics.Hotspot, error) {
		accidents, err := h.repo.All(ctx, run.RunID, filter)
		if err != nil {
			return nil, err
		}
		return analytics.Hotspots(accidents, req.Limit), nil
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, StatsResponse[[]analytics.Hotspot]{RunID: run.RunID, Year: run.Year, Data: spots})
}

// Heatmap handles GET /stats/heatmap
func (h *Handler) Heatmap(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "StatsHandler.Heatmap")
	defer span.End()

	req, err := BindRequest[FilterQuery](c)
	if err != nil {
		return err
	}
	ctx, run, err := h.resolveRun(ctx, req.RunQuery)
	if err != nil {
		return err
	}

	filter := req.Filter()
	heatmap, err := cache.Fetch(ctx, h.cache, cache.HeatmapKey(run.RunID, filter), func(ctx context.Context) (analytics.Heatmap, error) {
		accidents, err := h.repo.All(ctx, run.RunID, filter)
		if err != nil {
			return analytics.Heatmap{}, err
		}
		return analytics.HourWeekday(accidents), nil
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, StatsResponse[analytics.Heatmap]{RunID: run.RunID, Year: run.Year, Data: heatmap})
}

// AgeDistribution handles GET /stats/age-distribution. Person records are not
// persisted, so the distribution is the one recorded in the run manifest.
func (h *Handler) AgeDistribution(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "StatsHandler.AgeDistribution")
	defer span.End()

	req, err := BindRequest[RunQuery](c)
	if err != nil {
		return err
	}
	_, run, err := h.resolveRun(ctx, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, StatsResponse[[]analytics.Bucket]{RunID: run.RunID, Year: run.Year, Data: run.AgeDistribution})
}
