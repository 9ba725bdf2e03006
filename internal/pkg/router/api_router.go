package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/CivicLens/BillboardGuard/app/controllers"
	"github.com/CivicLens/BillboardGuard/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())

	// API v1 routes
	v1 := api.Group("/v1")
	v1.Get("/ping", controllers.HandlePing)

	// Everything below requires an API key
	authed := v1.Group("", middleware.APIKeyAuthMiddleware())
	authed.Post("/reports", controllers.HandleSubmitReport)
	authed.Get("/reports", controllers.HandleListUserReports)
	authed.Get("/reports/:uuid", controllers.HandleGetReport)
	authed.Get("/reports/:uuid/status", controllers.HandleGetReportStatus)
	authed.Get("/zones", controllers.HandleListZones)

	admin := authed.Group("/admin", middleware.AdminOnlyMiddleware())
	admin.Get("/queue", controllers.HandleAdminQueueStats)
	admin.Post("/zones", controllers.HandleAdminCreateZone)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
