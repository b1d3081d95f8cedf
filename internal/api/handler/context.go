package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/99minutos/identity-service/internal/core/domain"
)

const currentUserKey = "current_user"

// SetCurrentUser stores the authenticated user on the request context.
// Called by the access guard middleware.
func SetCurrentUser(c echo.Context, u *domain.User) {
	c.Set(currentUserKey, u)
}

// CurrentUser returns the user resolved by the access guard, or nil when the
// route is not guarded.
func CurrentUser(c echo.Context) *domain.User {
	u, _ := c.Get(currentUserKey).(*domain.User)
	return u
}
