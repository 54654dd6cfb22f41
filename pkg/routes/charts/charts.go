package charts

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/charts"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

type Service interface {
	EntriesData(ctx context.Context, req charts.Request) charts.Response
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(g *echo.Group) {
	g.POST("/entries", h.Entries)
}

// Entries handles POST /charts/entries. The widget expects status 200 with an
// error field when the request cannot be answered.
func (h *Handler) Entries(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ChartHandler.Entries")
	defer span.End()

	var req charts.Request
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusOK, charts.ErrorResponse(err))
	}
	return c.JSON(http.StatusOK, h.service.EntriesData(ctx, req))
}
