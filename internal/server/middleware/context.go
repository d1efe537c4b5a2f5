package middleware

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"ipif/pkg/solr"
)

// Searcher is the read side of the index as seen by request handlers.
type Searcher interface {
	Search(ctx context.Context, q solr.Query) (*solr.Response, error)
}

// App bundles the shared clients handed to every request handler.
type App struct {
	Search Searcher
	Queue  *amqp091.Channel
}

// AppContext wraps the echo context with the shared application clients.
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
