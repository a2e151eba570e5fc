package server

import (
	"github.com/labstack/echo/v4"

	"github.com/ringmast4r/project147/internal/server/middleware"
	"github.com/ringmast4r/project147/internal/server/routes"
)

func RegisterRoutes(e *echo.Echo, app *middleware.App) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	if app.Hub != nil {
		e.GET("/ws/progress", echo.WrapHandler(app.Hub))
	}

	api := e.Group("/api")

	// Dataset routes
	api.GET("/dataset/status", routes.DatasetStatusHandler)
	api.POST("/dataset/reload", routes.ReloadDatasetHandler, middleware.AuthMiddleware, middleware.RequirePermission(middleware.PermDatasetReload))
	api.GET("/books", routes.GetBooksHandler)
	api.GET("/chapters", routes.GetChaptersHandler)
	api.GET("/connections", routes.GetConnectionsHandler)

	// Chart routes
	api.GET("/charts", routes.ListChartsHandler)
	api.GET("/charts/:name", routes.GetChartHandler)
	api.GET("/stats", routes.GetStatsHandler)

	// Text routes
	api.GET("/verses/:ref", routes.GetVerseHandler)
	api.GET("/chapters/:book/:chapter/verses", routes.GetChapterVersesHandler)
	api.GET("/crossrefs", routes.GetCrossRefsHandler)

	// Theographic routes
	api.GET("/theographic/stats", routes.GetTheographicStatsHandler)
	api.GET("/theographic/search/:kind", routes.SearchTheographicHandler)

	// Export routes
	exports := api.Group("/exports", middleware.AuthMiddleware)
	exports.POST("", routes.CreateExportHandler, middleware.RequirePermission(middleware.PermExportCreate))
	exports.GET("", routes.GetExportsHandler, middleware.RequireAnyPermission(middleware.PermExportView, middleware.PermExportViewAll))
	exports.GET("/:id", routes.GetExportHandler, middleware.RequireAnyPermission(middleware.PermExportView, middleware.PermExportViewAll))
	exports.DELETE("/:id", routes.DeleteExportHandler, middleware.RequirePermission(middleware.PermExportDelete))
}
