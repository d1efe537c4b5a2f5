package server

import (
	"ipif/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	// Person routes
	e.GET("/persons/", routes.GetPersonsHandler)
	e.GET("/persons/:id", routes.GetPersonHandler)

	// Factoid routes
	e.GET("/factoids/", routes.GetFactoidsHandler)
	e.GET("/factoids/:id", routes.GetFactoidHandler)

	// Source routes
	e.GET("/sources/", routes.GetSourcesHandler)
	e.GET("/sources/:id", routes.GetSourceHandler)

	// Statement routes
	e.GET("/statements/", routes.GetStatementsHandler)
	e.GET("/statements/:id", routes.GetStatementHandler)

	// Admin routes
	e.POST("/rebuild", routes.PostRebuildHandler)
}
