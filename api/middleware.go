package api

import (
	"compress/gzip"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const userContextKey = "user_id"

// GzipRequestMiddleware decompresses gzip-encoded request bodies so handlers
// only ever see plain JSON. A body that is not valid gzip is a 400.
func GzipRequestMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !acceptsEncoding(req.Header.Get(echo.HeaderContentEncoding), "gzip") {
				return next(c)
			}

			gr, err := gzip.NewReader(req.Body)
			if err != nil {
				_ = req.Body.Close()
				return echo.NewHTTPError(http.StatusBadRequest, "Invalid gzip body")
			}
			req.Body = &gzipBody{Reader: gr, raw: req.Body}
			req.ContentLength = -1
			req.Header.Del(echo.HeaderContentEncoding)
			req.Header.Del(echo.HeaderContentLength)
			return next(c)
		}
	}
}

func acceptsEncoding(header, want string) bool {
	for _, enc := range strings.Split(header, ",") {
		if strings.EqualFold(strings.TrimSpace(enc), want) {
			return true
		}
	}
	return false
}

type gzipBody struct {
	*gzip.Reader
	raw io.Closer
}

func (g *gzipBody) Close() error {
	return errors.Join(g.Reader.Close(), g.raw.Close())
}

// RequireAuth rejects requests without a valid bearer token and stores the
// token subject on the context. A nil auth disables the check.
func RequireAuth(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if auth == nil {
			return next
		}
		return func(c echo.Context) error {
			userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}
			c.Set(userContextKey, userID)
			return next(c)
		}
	}
}

func userIDFrom(c echo.Context) string {
	if id, ok := c.Get(userContextKey).(string); ok && id != "" {
		return id
	}
	return "anonymous"
}
