package server

import (
	"catering/internal/handler"
	"catering/internal/middleware"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, d Deps) {
	handler.NewHealthHandler(d.Ping).RegisterRoutes(e)
	handler.NewOrderHandler(d.Orders).RegisterRoutes(e, d.Config, d.Users)
	handler.NewAdminOrderHandler(d.AdminOrders).RegisterRoutes(e, d.Config, d.Users)

	if d.Hub != nil {
		d.Hub.RegisterRoutes(e, middleware.AuthJWT(d.Config), middleware.TokenVersionGuard(d.Users))
	}
}
