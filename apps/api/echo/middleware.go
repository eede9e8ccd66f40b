package echoapi

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/sintimjnr/gctu-project-submission-system/core/user"
	metricsvc "github.com/sintimjnr/gctu-project-submission-system/services/metrics"
)

// roleMiddleware lets through only callers holding role.
func roleMiddleware(role user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.Role == role {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func adminMiddleware() echo.MiddlewareFunc   { return roleMiddleware(user.RoleAdmin) }
func studentMiddleware() echo.MiddlewareFunc { return roleMiddleware(user.RoleStudent) }

// metricsMiddleware records every request under its route template.
func metricsMiddleware(m *metricsvc.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			err := next(ctx)
			status := ctx.Response().Status
			if err != nil {
				status = errorStatus(err)
			}
			path := ctx.Path()
			if path == "" {
				path = "unmatched"
			}
			m.ObserveRequest(ctx.Request().Method, path, status, time.Since(start))
			return err
		}
	}
}

// bodyLimit formats n bytes the way middleware.BodyLimit expects, e.g. "32M".
func bodyLimit(n int64) string {
	switch {
	case n%(1<<20) == 0:
		return strconv.FormatInt(n>>20, 10) + "M"
	case n%(1<<10) == 0:
		return strconv.FormatInt(n>>10, 10) + "K"
	}
	return strconv.FormatInt(n, 10) + "B"
}
