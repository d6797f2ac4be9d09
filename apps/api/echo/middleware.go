package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/learnova/learnova/core"
	"github.com/learnova/learnova/core/access"
)

// roleGroupMiddleware runs the role router before any handler of the group.
// Requests that are not allowed are redirected, never rejected with an error.
func roleGroupMiddleware(group access.Group, sessions sessionProvider, logger core.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			decision := access.Authorize(sessions.Session(ctx), group)
			if decision.Allow {
				return next(ctx)
			}
			logger.Debug(
				fmt.Sprintf("%s %s: redirecting to %s", ctx.Request().Method, ctx.Request().URL.Path, decision.Redirect),
				map[string]interface{}{"group": group.String(), "reason": decision.Reason.String()},
			)
			return ctx.Redirect(http.StatusFound, decision.Redirect)
		}
	}
}

// sessionMiddleware rejects requests without a valid session. Used by the JSON APIs.
func sessionMiddleware(sessions sessionProvider) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if sessions.Session(ctx) == nil {
				return errUnauthorized
			}
			return next(ctx)
		}
	}
}
