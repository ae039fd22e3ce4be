package realtime

import (
	"net/http"

	"catering/internal/domain/model"
	"catering/internal/middleware"
	"catering/internal/notify"

	"github.com/labstack/echo/v4"
)

// HandleWebSocket upgrades an authenticated request (AuthJWT must run first).
// The caller joins its own topic; admins also join the admin topic.
func (h *Hub) HandleWebSocket(c echo.Context) error {
	userID, ok := c.Get(middleware.CtxUserIDKey).(int64)
	if !ok || userID <= 0 {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	role, _ := c.Get(middleware.CtxUserRoleKey).(string)

	topics := []string{notify.UserTopic(userID)}
	if role == string(model.RoleAdmin) {
		topics = append(topics, notify.TopicAdmin)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgraderがエラーレスポンスを書いている
		h.logger.Info("ws upgrade failed", "user_id", userID, "err", err)
		return nil
	}

	h.Serve(conn, topics)
	return nil
}

// RegisterRoutes は /ws を登録する。
func (h *Hub) RegisterRoutes(e *echo.Echo, auth ...echo.MiddlewareFunc) {
	e.GET("/ws", h.HandleWebSocket, auth...)
}
