package middleware

import (
	"net/http"
	"slices"

	"catering/internal/domain/model"

	"github.com/labstack/echo/v4"
)

// RequireRole はcontextのroleが許可リストに入っているかを見る。
// roleが無い（AuthJWTを通っていない）なら401、入っていなければ403。
func RequireRole(allowed ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(CtxUserRoleKey).(string)
			if !ok || role == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			if !slices.Contains(allowed, model.Role(role)) {
				return c.JSON(http.StatusForbidden, errorJSON("forbidden"))
			}
			return next(c)
		}
	}
}

// /admin配下用
func AdminRoleGuard() echo.MiddlewareFunc {
	return RequireRole(model.RoleAdmin)
}
