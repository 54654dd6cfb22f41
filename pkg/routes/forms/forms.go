package forms

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/utils"
)

type Service interface {
	List(ctx context.Context) ([]models.Form, error)
	GetByHandle(ctx context.Context, handle string) (*models.Form, error)
	Save(ctx context.Context, form *models.Form) (*models.Form, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Save)
	g.GET("/:handle", h.Get)
	g.DELETE("/:handle", h.Delete)
}

// List handles GET /forms
func (h *Handler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "FormHandler.List")
	defer span.End()

	forms, err := h.service.List(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, forms)
}

// Get handles GET /forms/:handle
func (h *Handler) Get(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "FormHandler.Get")
	defer span.End()

	form, err := h.service.GetByHandle(ctx, c.Param("handle"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, form)
}

// Save handles POST /forms. Forms are upserted by handle.
func (h *Handler) Save(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "FormHandler.Save")
	defer span.End()

	req, err := utils.BindRequest[models.Form](c)
	if err != nil {
		return err
	}

	form, err := h.service.Save(ctx, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, form)
}

// Delete handles DELETE /forms/:handle
func (h *Handler) Delete(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "FormHandler.Delete")
	defer span.End()

	form, err := h.service.GetByHandle(ctx, c.Param("handle"))
	if err != nil {
		return err
	}
	if _, err := h.service.Delete(ctx, form.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
