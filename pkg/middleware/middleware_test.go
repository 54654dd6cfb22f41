package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/errors"
)

func newEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = Error(ectologger.NewEctoLogger(func(ectologger.EctoLogMessage) {}))
	e.Use(Context())
	return e
}

func TestContextKeepsSessionAndSite(t *testing.T) {
	e := newEcho()
	var sessionID string
	var siteID int64
	e.GET("/", func(c echo.Context) error {
		sessionID = appctx.GetSessionID(c.Request().Context())
		siteID = appctx.GetSiteID(c.Request().Context())
		return c.NoContent(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderSessionID, "abc")
	req.Header.Set(HeaderSiteID, "3")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "abc", sessionID)
	assert.Equal(t, int64(3), siteID)
	assert.Equal(t, "abc", rec.Header().Get(HeaderSessionID))
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestErrorRendersHTTPErrors(t *testing.T) {
	e := newEcho()
	e.GET("/missing", func(echo.Context) error {
		return httperror.NewHTTPError(http.StatusNotFound, "form not found")
	})
	e.GET("/invalid", func(echo.Context) error {
		return errors.ValidationErrors{"name": {"Name cannot be blank."}}
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Message, "form not found")
	assert.NotEmpty(t, resp.RequestID)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/invalid", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
