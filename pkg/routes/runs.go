package routes

import (
	"net/http"

	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/labstack/echo/v4"
)

type ListRunsRequest struct {
	Year  int `query:"year" validate:"omitempty,min=2005,max=2100"`
	Limit int `query:"limit" validate:"omitempty,min=1,max=100"`
}

// ListRuns handles GET /runs
func (h *Handler) ListRuns(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "RunHandler.List")
	defer span.End()

	req, err := BindRequest[ListRunsRequest](c)
	if err != nil {
		return err
	}
	if req.Limit == 0 {
		req.Limit = 20
	}

	runs, err := h.repo.ListRuns(ctx, req.Year, req.Limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, runs)
}

// LatestRun handles GET /runs/latest
func (h *Handler) LatestRun(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "RunHandler.Latest")
	defer span.End()

	req, err := BindRequest[RunQuery](c)
	if err != nil {
		return err
	}

	_, run, err := h.resolveRun(ctx, RunQuery{Year: req.Year})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, run)
}

type GetRunRequest struct {
	RunID string `param:"run_id" validate:"required"`
}

// GetRun handles GET /runs/:run_id
func (h *Handler) GetRun(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "RunHandler.Get")
	defer span.End()

	req, err := BindRequest[GetRunRequest](c)
	if err != nil {
		return err
	}

	run, err := h.repo.GetRun(ctx, req.RunID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, run)
}
