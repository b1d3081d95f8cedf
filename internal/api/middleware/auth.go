package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/identity-service/internal/api/handler"
	"github.com/99minutos/identity-service/internal/api/metrics"
	"github.com/99minutos/identity-service/internal/core/domain"
	"github.com/99minutos/identity-service/internal/core/ports"
)

// Auth resolves the bearer session token to a user and injects it into the
// context. Every rejection surfaces as domain.ErrUnauthorized; store failures
// are passed through unchanged.
func Auth(authenticator ports.Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := domain.ParseBearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				metrics.GuardRejectionsTotal.WithLabelValues("header").Inc()
				return err
			}

			user, err := authenticator.Authenticate(c.Request().Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthorized) {
					metrics.GuardRejectionsTotal.WithLabelValues("session").Inc()
				} else {
					metrics.GuardRejectionsTotal.WithLabelValues("error").Inc()
				}
				return err
			}

			handler.SetCurrentUser(c, user)
			return next(c)
		}
	}
}

// RequireAdmin allows the request only for users flagged as admin. It must
// run after Auth.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := handler.CurrentUser(c)
			if user == nil {
				return domain.ErrUnauthorized
			}
			if !user.IsAdmin {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
