package routes

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Ramsey-B/clover/pkg/analytics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// BindRequest binds path, query and body values into T and validates it.
func BindRequest[T any](c echo.Context) (T, error) {
	var v T

	if err := c.Bind(&v); err != nil {
		return v, httperror.WrapError(http.StatusBadRequest, err)
	}

	if err := validate.Struct(v); err != nil {
		return v, httperror.NewHTTPError(http.StatusBadRequest, validationMessage(err))
	}

	return v, nil
}

func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("field '%s' failed rule '%s' (got '%v')", fe.Field(), fe.Tag(), fe.Value()))
	}
	return "invalid request: " + strings.Join(msgs, "; ")
}

// RunQuery selects a consolidation run: an explicit id, or the latest run of
// a year, or the latest run overall.
type RunQuery struct {
	RunID string `query:"run_id" validate:"omitempty,max=64"`
	Year  int    `query:"year" validate:"omitempty,min=2005,max=2100"`
}

// FilterQuery carries the accident filter accepted by list and stats routes.
type FilterQuery struct {
	RunQuery
	From                string   `query:"from" validate:"omitempty,datetime=2006-01-02"`
	To                  string   `query:"to" validate:"omitempty,datetime=2006-01-02"`
	Departments         []string `query:"dep" validate:"omitempty,dive,min=1,max=3"`
	ExcludeFatal        bool     `query:"exclude_fatal"`
	ExcludeHospitalized bool     `query:"exclude_hospitalized"`
	ExcludeLightInjury  bool     `query:"exclude_light_injury"`
	Metropolitan        bool     `query:"metropolitan"`
}

func parseDate(s string) models.Date {
	if s == "" {
		return models.Date{}
	}
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return models.Date{}
	}
	return models.NewDate(t)
}

// Filter converts the query to an analytics filter. Dates are validated by
// BindRequest beforehand.
func (q FilterQuery) Filter() analytics.Filter {
	return analytics.Filter{
		From:                parseDate(q.From),
		To:                  parseDate(q.To),
		Departments:         q.Departments,
		ExcludeFatal:        q.ExcludeFatal,
		ExcludeHospitalized: q.ExcludeHospitalized,
		ExcludeLightInjury:  q.ExcludeLightInjury,
		Metropolitan:        q.Metropolitan,
	}
}
