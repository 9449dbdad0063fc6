package middleware

import (
	"github.com/Ramsey-B/clover/pkg/context"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Context tags the request context with the request id, echoed back in the
// response header, the route template and the run named by ?run_id.
func Context() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			req := c.Request()

			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			route := c.Path()
			if route == "" {
				route = req.URL.Path
			}

			ctx := req.Context()
			ctx = context.SetRequestID(ctx, requestID)
			ctx = context.SetMethod(ctx, req.Method)
			ctx = context.SetRoute(ctx, route)
			ctx = context.SetRemoteIP(ctx, c.RealIP())
			if runID := c.QueryParam("run_id"); runID != "" {
				ctx = context.SetRunID(ctx, runID)
			}

			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}
