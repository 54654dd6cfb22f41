package context

import (
	"context"
	"strconv"
)

type ContextKey string

var (
	RequestIDKey = ContextKey("X-Request-Id")
	SessionIDKey = ContextKey("X-Session-Id")
	SiteIDKey    = ContextKey("X-Site-Id")
	UserIDKey    = ContextKey("X-User-Id")
	MethodKey    = ContextKey("X-Method")
	RouteKey     = ContextKey("X-Route")
	RemoteIPKey  = ContextKey("X-Remote-Ip")
	UserAgentKey = ContextKey("X-User-Agent")
)

func getString(ctx context.Context, key ContextKey) string {
	value, ok := ctx.Value(key).(string)
	if !ok {
		return ""
	}
	return value
}

func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	return getString(ctx, RequestIDKey)
}

// SetSessionID binds the visitor session that scopes in-flight entries.
func SetSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionIDKey, sessionID)
}

func GetSessionID(ctx context.Context) string {
	return getString(ctx, SessionIDKey)
}

func SetSiteID(ctx context.Context, siteID int64) context.Context {
	return context.WithValue(ctx, SiteIDKey, siteID)
}

// GetSiteID returns the site of the request, 1 when none was given.
func GetSiteID(ctx context.Context) int64 {
	value, ok := ctx.Value(SiteIDKey).(int64)
	if !ok || value == 0 {
		return 1
	}
	return value
}

// ParseSiteID reads a header value, falling back to the primary site.
func ParseSiteID(raw string) int64 {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 1
	}
	return id
}

func SetUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

func GetUserID(ctx context.Context) string {
	return getString(ctx, UserIDKey)
}

func SetMethod(ctx context.Context, method string) context.Context {
	return context.WithValue(ctx, MethodKey, method)
}

func GetMethod(ctx context.Context) string {
	return getString(ctx, MethodKey)
}

func SetRoute(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, RouteKey, route)
}

func GetRoute(ctx context.Context) string {
	return getString(ctx, RouteKey)
}

func SetRemoteIP(ctx context.Context, remoteIP string) context.Context {
	return context.WithValue(ctx, RemoteIPKey, remoteIP)
}

func GetRemoteIP(ctx context.Context) string {
	return getString(ctx, RemoteIPKey)
}

func SetUserAgent(ctx context.Context, userAgent string) context.Context {
	return context.WithValue(ctx, UserAgentKey, userAgent)
}

func GetUserAgent(ctx context.Context) string {
	return getString(ctx, UserAgentKey)
}
