package middleware

import (
	"github.com/OFFIS-RIT/dramatis/pkg/catalog"

	"github.com/labstack/echo/v4"
)

type App struct {
	Catalog *catalog.Service
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}
