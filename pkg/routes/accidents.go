package routes

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Ramsey-B/clover/internal/repositories/accident"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/labstack/echo/v4"
)

type ListAccidentsRequest struct {
	FilterQuery
	Limit  int `query:"limit" validate:"omitempty,min=1"`
	Offset int `query:"offset" validate:"omitempty,min=0"`
}

type ListAccidentsResponse struct {
	RunID     string                        `json:"run_id"`
	Total     int                           `json:"total"`
	Limit     int                           `json:"limit"`
	Offset    int                           `json:"offset"`
	Accidents []models.ConsolidatedAccident `json:"accidents"`
}

// ListAccidents handles GET /accidents
func (h *Handler) ListAccidents(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "AccidentHandler.List")
	defer span.End()

	req, err := BindRequest[ListAccidentsRequest](c)
	if err != nil {
		return err
	}
	if req.Limit == 0 {
		req.Limit = min(100, h.maxPageSize)
	}
	if req.Limit > h.maxPageSize {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "limit must not exceed %d", h.maxPageSize)
	}

	ctx, run, err := h.resolveRun(ctx, req.RunQuery)
	if err != nil {
		return err
	}

	accidents, total, err := h.repo.List(ctx, run.RunID, accident.Query{
		Filter: req.Filter(),
		Limit:  req.Limit,
		Offset: req.Offset,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ListAccidentsResponse{
		RunID:     run.RunID,
		Total:     total,
		Limit:     req.Limit,
		Offset:    req.Offset,
		Accidents: accidents,
	})
}

type GetAccidentRequest struct {
	RunQuery
	NumAcc string `param:"num_acc" validate:"required"`
}

// GetAccident handles GET /accidents/:num_acc
func (h *Handler) GetAccident(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "AccidentHandler.Get")
	defer span.End()

	req, err := BindRequest[GetAccidentRequest](c)
	if err != nil {
		return err
	}

	ctx, run, err := h.resolveRun(ctx, req.RunQuery)
	if err != nil {
		return err
	}

	a, err := h.repo.Get(ctx, run.RunID, req.NumAcc)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}
