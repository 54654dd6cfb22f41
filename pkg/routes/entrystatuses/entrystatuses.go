package entrystatuses

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/utils"
)

type Service interface {
	GetAll(ctx context.Context) ([]models.EntryStatus, error)
	GetByID(ctx context.Context, id int64) (*models.EntryStatus, error)
	Save(ctx context.Context, status *models.EntryStatus) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Reorder(ctx context.Context, ids []int64) error
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.POST("/reorder", h.Reorder)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

type SaveStatusRequest struct {
	Name      string `json:"name"`
	Handle    string `json:"handle"`
	Color     string `json:"color"`
	SortOrder int    `json:"sort_order"`
	IsDefault bool   `json:"is_default"`
}

func (r SaveStatusRequest) toModel(id int64) *models.EntryStatus {
	return &models.EntryStatus{
		ID:        id,
		Name:      r.Name,
		Handle:    r.Handle,
		Color:     r.Color,
		SortOrder: r.SortOrder,
		IsDefault: r.IsDefault,
	}
}

type ReorderRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1"`
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid status id %q", c.Param("id"))
	}
	return id, nil
}

// List handles GET /entry-statuses
func (h *Handler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "EntryStatusHandler.List")
	defer span.End()

	statuses, err := h.service.GetAll(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, statuses)
}

// Get handles GET /entry-statuses/:id
func (h *Handler) Get(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "EntryStatusHandler.Get")
	defer span.End()

	id, err := parseID(c)
	if err != nil {
		return err
	}
	status, err := h.service.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, status)
}

// Create handles POST /entry-statuses
func (h *Handler) Create(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "EntryStatusHandler.Create")
	defer span.End()

	req, err := utils.BindRequest[SaveStatusRequest](c)
	if err != nil {
		return err
	}

	status := req.toModel(0)
	saved, err := h.service.Save(ctx, status)
	if err != nil {
		return err
	}
	if !saved {
		return status.Errors.ToHTTPError()
	}
	return c.JSON(http.StatusCreated, status)
}

// Update handles PUT /entry-statuses/:id
func (h *Handler) Update(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "EntryStatusHandler.Update")
	defer span.End()

	id, err := parseID(c)
	if err != nil {
		return err
	}
	req, err := utils.BindRequest[SaveStatusRequest](c)
	if err != nil {
		return err
	}

	status := req.toModel(id)
	saved, err := h.service.Save(ctx, status)
	if err != nil {
		return err
	}
	if !saved {
		return status.Errors.ToHTTPError()
	}
	return c.JSON(http.StatusOK, status)
}

// Delete handles DELETE /entry-statuses/:id. A status that is in use, the
// last remaining status or an unknown id is not deleted.
func (h *Handler) Delete(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "EntryStatusHandler.Delete")
	defer span.End()

	id, err := parseID(c)
	if err != nil {
		return err
	}
	deleted, err := h.service.Delete(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": deleted})
}

// Reorder handles POST /entry-statuses/reorder
func (h *Handler) Reorder(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "EntryStatusHandler.Reorder")
	defer span.End()

	req, err := utils.BindRequest[ReorderRequest](c)
	if err != nil {
		return err
	}
	if err := h.service.Reorder(ctx, req.IDs); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}
