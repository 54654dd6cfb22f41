package entries

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"

	appctx "github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/session"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const (
	defaultLimit = 50
	maxLimit     = 500
	// maxUploadSize caps a single multipart file.
	maxUploadSize = 16 << 20
)

type Service interface {
	SubmitEntry(ctx context.Context, store session.Store, form *models.Form, submission map[string]any) (*models.Entry, bool, error)
	GetEntryByID(ctx context.Context, id int64) (*models.Entry, error)
	ListEntries(ctx context.Context, formID int64, limit, offset int) ([]*models.Entry, error)
	DeleteEntry(ctx context.Context, id int64) (bool, error)
}

type FormLookup interface {
	GetByHandle(ctx context.Context, handle string) (*models.Form, error)
}

type Handler struct {
	service  Service
	forms    FormLookup
	sessions session.Provider
}

func NewHandler(service Service, forms FormLookup, sessions session.Provider) *Handler {
	return &Handler{
		service:  service,
		forms:    forms,
		sessions: sessions,
	}
}

// Register mounts the entry routes on the API group.
func (h *Handler) Register(g *echo.Group) {
	g.POST("/forms/:handle/entries", h.Submit)
	g.GET("/forms/:handle/entries", h.List)
	g.GET("/entries/:id", h.Get)
	g.DELETE("/entries/:id", h.Delete)
}

type SubmitRequest struct {
	Fields map[string]any `json:"fields"`
}

type SubmitResponse struct {
	Success bool                    `json:"success"`
	Entry   *models.Entry           `json:"entry,omitempty"`
	Errors  errors.ValidationErrors `json:"errors,omitempty"`
}

// Submit handles POST /forms/:handle/entries with a JSON body or a multipart
// form using fields[handle] names.
func (h *Handler) Submit(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "EntryHandler.Submit")
	defer span.End()

	form, err := h.forms.GetByHandle(ctx, c.Param("handle"))
	if err != nil {
		return err
	}

	submission, err := readSubmission(c)
	if err != nil {
		return err
	}

	store := h.sessions.ForSession(appctx.GetSessionID(ctx))
	entry, ok, err := h.service.SubmitEntry(ctx, store, form, submission)
	if err != nil {
		return err
	}

	switch {
	case ok:
		return c.JSON(http.StatusOK, SubmitResponse{Success: true, Entry: entry})
	case entry.Faked:
		// Reported as handled so the sender cannot tell the entry was dropped.
		return c.JSON(http.StatusOK, SubmitResponse{Success: true})
	default:
		return c.JSON(http.StatusUnprocessableEntity, SubmitResponse{Success: false, Errors: entry.Errors})
	}
}

func readSubmission(c echo.Context) (map[string]any, error) {
	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(contentType, echo.MIMEMultipartForm) || strings.HasPrefix(contentType, echo.MIMEApplicationForm) {
		return readForm(c)
	}

	var req SubmitRequest
	if err := c.Bind(&req); err != nil {
		return nil, httperror.WrapError(http.StatusBadRequest, err)
	}
	if req.Fields == nil {
		req.Fields = map[string]any{}
	}
	return req.Fields, nil
}

var fieldName = regexp.MustCompile(`^fields\[([^\]]+)\](?:\[([^\]]*)\])?$`)

// readForm maps fields[handle], fields[handle][] and fields[handle][key]
// inputs to submission values. Files become uploads of their field.
func readForm(c echo.Context) (map[string]any, error) {
	submission := map[string]any{}

	values, err := c.FormParams()
	if err != nil {
		return nil, httperror.WrapError(http.StatusBadRequest, err)
	}
	for name, items := range values {
		match := fieldName.FindStringSubmatch(name)
		if match == nil {
			continue
		}
		handle, key := match[1], match[2]
		switch {
		case strings.HasSuffix(name, "[]"):
			submission[handle] = appendAll(submission[handle], items)
		case key != "":
			m, _ := submission[handle].(map[string]any)
			if m == nil {
				m = map[string]any{}
			}
			m[key] = items[len(items)-1]
			submission[handle] = m
		default:
			submission[handle] = items[len(items)-1]
		}
	}

	if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return submission, nil
	}
	multipartForm, err := c.MultipartForm()
	if err != nil {
		return nil, httperror.WrapError(http.StatusBadRequest, err)
	}
	for name, files := range multipartForm.File {
		match := fieldName.FindStringSubmatch(name)
		if match == nil {
			continue
		}
		uploads := make([]any, 0, len(files))
		for _, file := range files {
			upload, err := readUpload(file)
			if err != nil {
				return nil, err
			}
			uploads = append(uploads, upload)
		}
		submission[match[1]] = appendAll(submission[match[1]], uploads)
	}
	return submission, nil
}

func appendAll[T any](existing any, items []T) []any {
	list, _ := existing.([]any)
	for _, item := range items {
		list = append(list, item)
	}
	return list
}

func readUpload(file *multipart.FileHeader) (models.Upload, error) {
	if file.Size > maxUploadSize {
		return models.Upload{}, httperror.NewHTTPErrorf(http.StatusRequestEntityTooLarge, "%s is larger than %d bytes", file.Filename, maxUploadSize)
	}
	f, err := file.Open()
	if err != nil {
		return models.Upload{}, httperror.WrapError(http.StatusBadRequest, err)
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, maxUploadSize+1))
	if err != nil {
		return models.Upload{}, httperror.WrapError(http.StatusBadRequest, err)
	}
	return models.Upload{
		Filename: file.Filename,
		MimeType: file.Header.Get(echo.HeaderContentType),
		Content:  content,
	}, nil
}

// List handles GET /forms/:handle/entries
func (h *Handler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "EntryHandler.List")
	defer span.End()

	form, err := h.forms.GetByHandle(ctx, c.Param("handle"))
	if err != nil {
		return err
	}

	limit, err := queryInt(c, "limit", defaultLimit)
	if err != nil {
		return err
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		return err
	}
	if limit <= 0 || limit > maxLimit {
		limit = defaultLimit
	}

	entries, err := h.service.ListEntries(ctx, form.ID, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entries)
}

func queryInt(c echo.Context, name string, fallback int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid %s %q", name, raw)
	}
	return value, nil
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid entry id %q", c.Param("id"))
	}
	return id, nil
}

// Get handles GET /entries/:id
func (h *Handler) Get(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "EntryHandler.Get")
	defer span.End()

	id, err := parseID(c)
	if err != nil {
		return err
	}
	entry, err := h.service.GetEntryByID(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entry)
}

// Delete handles DELETE /entries/:id
func (h *Handler) Delete(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "EntryHandler.Delete")
	defer span.End()

	id, err := parseID(c)
	if err != nil {
		return err
	}
	deleted, err := h.service.DeleteEntry(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "entry %d not found", id)
	}
	return c.NoContent(http.StatusNoContent)
}
