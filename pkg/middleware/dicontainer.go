package middleware

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"
)

// DIContainer pins every request context to the dependency container the
// handlers resolve their services from.
func DIContainer(containerID string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, err := ectoinject.SetActiveContainer(c.Request().Context(), containerID)
			if err != nil {
				return httperror.NewHTTPError(http.StatusInternalServerError, "dependency container unavailable")
			}

			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
