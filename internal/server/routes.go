package server

import (
	"net/http"

	"github.com/OFFIS-RIT/dramatis/internal/server/routes"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	apiRoutes := e.Group("/api")

	apiRoutes.GET("/:kind", routes.ListHandler)
	apiRoutes.POST("/:kind", routes.CreateHandler)
	apiRoutes.GET("/:kind/:id", routes.ShowHandler)
	apiRoutes.GET("/:kind/:id/edit", routes.EditHandler)
	apiRoutes.PUT("/:kind/:id", routes.UpdateHandler)
	apiRoutes.DELETE("/:kind/:id", routes.DestroyHandler)
}
