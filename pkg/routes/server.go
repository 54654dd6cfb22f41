// Package routes assembles the HTTP API.
package routes

import (
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/Ramsey-B/fern/pkg/middleware"
	"github.com/Ramsey-B/fern/pkg/routes/charts"
	"github.com/Ramsey-B/fern/pkg/routes/entries"
	"github.com/Ramsey-B/fern/pkg/routes/entrystatuses"
	"github.com/Ramsey-B/fern/pkg/routes/forms"
	"github.com/Ramsey-B/fern/pkg/routes/health"
)

const APIPrefix = "/api/v1"

type ServerConfig struct {
	ServiceName  string
	BodyLimit    string
	AllowOrigins []string
	AllowMethods []string
}

type Handlers struct {
	Health        *health.Checker
	Forms         *forms.Handler
	Entries       *entries.Handler
	EntryStatuses *entrystatuses.Handler
	Charts        *charts.Handler
}

// NewServer builds the echo instance with middleware, health, metrics and
// the API routes.
func NewServer(cfg ServerConfig, logger ectologger.Logger, handlers Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(logger)

	e.Use(echomw.Recover())
	e.Use(otelecho.Middleware(cfg.ServiceName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	if cfg.BodyLimit != "" {
		e.Use(echomw.BodyLimit(cfg.BodyLimit))
	}
	if len(cfg.AllowOrigins) > 0 {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins:  cfg.AllowOrigins,
			AllowMethods:  cfg.AllowMethods,
			ExposeHeaders: []string{middleware.HeaderSessionID, echo.HeaderXRequestID},
		}))
	}

	if handlers.Health != nil {
		handlers.Health.RegisterRoutes(e)
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group(APIPrefix)
	if handlers.Forms != nil {
		handlers.Forms.Register(api.Group("/forms"))
	}
	if handlers.Entries != nil {
		handlers.Entries.Register(api)
	}
	if handlers.EntryStatuses != nil {
		handlers.EntryStatuses.Register(api.Group("/entry-statuses"))
	}
	if handlers.Charts != nil {
		handlers.Charts.Register(api.Group("/charts"))
	}
	return e
}
