package router

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/polkiloo/farmsupply/internal/authz"
	"github.com/polkiloo/farmsupply/internal/metrics"
	"github.com/polkiloo/farmsupply/internal/server/http/handlers"
	"github.com/polkiloo/farmsupply/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.ConsoleFacade, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	engine.GET("/metrics", gin.WrapH(m.Handler()))

	sessionHandler := handlers.NewSessionHandler(facade)
	consoleHandler := handlers.NewConsoleHandler(facade, facade)
	farmerHandler := handlers.NewFarmerHandler(facade, facade)
	productHandler := handlers.NewProductHandler(facade, facade)
	orderHandler := handlers.NewOrderHandler(facade, facade)
	directoryHandler := handlers.NewDirectoryHandler(facade, facade)

	api := engine.Group("/api")
	api.POST("/session/login", sessionHandler.Login)
	api.POST("/session/logout", sessionHandler.Logout)

	authed := api.Group("")
	authed.Use(middleware.AuthRequired(facade))
	authed.GET("/session", sessionHandler.Current)
	authed.GET("/capabilities", sessionHandler.Capabilities)
	authed.GET("/dashboard", consoleHandler.Dashboard)
	authed.POST("/sync", consoleHandler.Sync)
	authed.GET("/events", consoleHandler.Events)

	need := func(resources ...authz.Resource) gin.HandlerFunc {
		return middleware.RequireCapability(facade, resources...)
	}

	farmers := authed.Group("/farmers")
	farmers.GET("", need(authz.ResourceFarmersRead), farmerHandler.List)
	farmers.POST("", need(authz.ResourceFarmersWrite), farmerHandler.Create)
	farmers.PUT("/:id", need(authz.ResourceFarmersWrite), farmerHandler.Update)
	farmers.DELETE("/:id", need(authz.ResourceFarmersWrite), farmerHandler.Delete)
	farmers.PUT("/:id/approval", need(authz.ResourceFarmersApprove), farmerHandler.Approval)

	products := authed.Group("/products")
	products.GET("", need(authz.ResourceProductsRead), productHandler.List)
	products.POST("", need(authz.ResourceProductsManage), productHandler.Create)
	products.PUT("/:id", need(authz.ResourceProductsManage), productHandler.Update)
	products.DELETE("/:id", need(authz.ResourceProductsManage), productHandler.Delete)

	orders := authed.Group("/orders")
	orders.GET("", need(authz.ResourceOrdersRead), orderHandler.List)
	orders.POST("", need(authz.ResourceOrdersCreate), orderHandler.Create)
	orders.PUT("/:id/status", need(authz.ResourceOrdersApprove, authz.ResourceOrdersFulfil), orderHandler.Status)
	orders.PUT("/:id/schedule-delivery", need(authz.ResourceOrdersFulfil), orderHandler.Schedule)
	orders.GET("/:id/invoice", need(authz.ResourceOrdersFulfil), orderHandler.Invoice)

	users := authed.Group("/users", need(authz.ResourceUsers))
	users.GET("", directoryHandler.Users)
	users.POST("", directoryHandler.CreateUser)
	users.PUT("/:id", directoryHandler.UpdateUser)
	users.DELETE("/:id", directoryHandler.DeleteUser)

	trainings := authed.Group("/trainings")
	trainings.GET("", need(authz.ResourceTrainingsView), directoryHandler.Trainings)
	trainings.POST("", need(authz.ResourceTrainingsManage), directoryHandler.CreateTraining)
	trainings.PUT("/:id", need(authz.ResourceTrainingsManage), directoryHandler.UpdateTraining)
	trainings.DELETE("/:id", need(authz.ResourceTrainingsManage), directoryHandler.DeleteTraining)

	authed.GET("/reports/orders.xlsx", need(authz.ResourceReportsExport), consoleHandler.ExportOrders)

	return engine
}
