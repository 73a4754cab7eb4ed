// Package api wires the HTTP surface of the workshop service.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/motohub/workshop-service/internal/api/middleware"
	"github.com/motohub/workshop-service/internal/auth"
	"github.com/motohub/workshop-service/internal/health"
	invH "github.com/motohub/workshop-service/internal/inventory/handler"
	"github.com/motohub/workshop-service/internal/pkg/logger"
	prodH "github.com/motohub/workshop-service/internal/product/handler"
	"github.com/motohub/workshop-service/internal/realtime"
	reqH "github.com/motohub/workshop-service/internal/requisition/handler"
)

type Deps struct {
	ServiceName string
	CookieName  string
	Tokens      *auth.TokenManager
	Logger      logger.ZapLogger
	Health      *health.Checker

	Requisitions *reqH.RequisitionHandler
	Inventory    *invH.InventoryHandler
	Products     *prodH.ProductHandler
	Realtime     *realtime.Handler
}

func SetupRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.Tracing(d.ServiceName),
		middleware.Logger(d.Logger),
		middleware.Recovery(d.Logger),
		middleware.Metrics(),
	)

	if d.Health != nil {
		router.GET("/healthz", d.Health.Handler)
	}
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	workshop := router.Group("/api/v1/workshop")

	// The websocket authenticates from its own query token or cookie.
	if d.Realtime != nil {
		workshop.GET("/realtime/ws", d.Realtime.ServeWs)
	}

	authed := workshop.Group("")
	authed.Use(middleware.Authenticate(d.Tokens, d.CookieName), middleware.Authorize(auth.WorkshopRoles...))
	admin := middleware.Authorize(auth.AdminRoles...)

	requisitions := authed.Group("/requisitions")
	{
		requisitions.POST("", d.Requisitions.Create)
		requisitions.GET("", d.Requisitions.List)
		requisitions.GET("/:id", d.Requisitions.Get)
		requisitions.PATCH("/:id", admin, d.Requisitions.UpdateStatus)
	}

	inventory := authed.Group("/inventory")
	{
		inventory.GET("", d.Inventory.List)
		inventory.GET("/search", d.Inventory.Search)
		inventory.GET("/movements", d.Inventory.ListMovements)
		inventory.POST("/adjustments", admin, d.Inventory.Adjust)
		inventory.GET("/:productId/batches", d.Inventory.ListBatches)
		inventory.POST("/:productId/batches", admin, d.Inventory.ReceiveBatch)
	}

	products := authed.Group("/products")
	{
		products.POST("", admin, d.Products.Create)
		products.GET("/:id", d.Products.Get)
		products.PUT("/:id", admin, d.Products.Update)
	}

	return router
}
