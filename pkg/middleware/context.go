package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/context"
)

const (
	// HeaderSessionID carries the visitor session used for multi-step forms
	HeaderSessionID = "X-Session-ID"
	// HeaderSiteID selects the site an entry is submitted for
	HeaderSiteID = "X-Site-ID"
	// HeaderUserID is the header key for user ID
	HeaderUserID = "X-User-ID"
)

func Context() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			req := c.Request()

			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
			}

			sessionID := req.Header.Get(HeaderSessionID)
			if sessionID == "" {
				sessionID = uuid.New().String()
			}
			c.Response().Header().Set(HeaderSessionID, sessionID)
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			ctx := req.Context()
			ctx = context.SetRequestID(ctx, requestID)
			ctx = context.SetSessionID(ctx, sessionID)
			ctx = context.SetSiteID(ctx, context.ParseSiteID(req.Header.Get(HeaderSiteID)))
			ctx = context.SetUserID(ctx, req.Header.Get(HeaderUserID))
			ctx = context.SetMethod(ctx, req.Method)
			ctx = context.SetRoute(ctx, req.URL.Path)
			ctx = context.SetRemoteIP(ctx, c.RealIP())
			ctx = context.SetUserAgent(ctx, req.UserAgent())

			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}
