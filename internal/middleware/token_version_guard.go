package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"catering/internal/repository"

	"github.com/labstack/echo/v4"
)

// TokenVersionGuard はJWTのtvとDBのtoken_versionを突き合わせる。
// 一致したらroleもDBの値で上書きする（降格された管理者を即座に締め出すため）。
func TokenVersionGuard(userRepo repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, ok := c.Get(CtxUserIDKey).(int64)
			if !ok || userID <= 0 {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			tv, ok := c.Get(CtxTokenVersionKey).(int)
			if !ok || tv < 0 {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			user, err := userRepo.FindByID(c.Request().Context(), userID)
			switch {
			case errors.Is(err, repository.ErrNotFound), err == nil && user == nil:
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			case err != nil:
				// DBが落ちているのはトークンのせいではない
				slog.ErrorContext(c.Request().Context(), "token version lookup failed", "user_id", userID, "err", err)
				return c.JSON(http.StatusInternalServerError, errorJSON("internal error"))
			}

			if user.TokenVersion != tv || !user.IsActive {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			c.Set(CtxUserRoleKey, string(user.Role))
			return next(c)
		}
	}
}
