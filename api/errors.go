package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"dashboard-api/domain"
)

const internalErrorMessage = "Internal server error"

func notFound(entity string) error {
	return echo.NewHTTPError(http.StatusNotFound, entity+" not found")
}

// storeError maps domain.ErrNotFound to a 404 for entity and wraps anything
// else so it is rendered as a 500.
func storeError(entity, op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return notFound(entity)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// errorHandler renders every error as {"error": ..., "details": ...}.
// Unexpected errors are logged and never shown to the client.
func errorHandler(logger *log.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		m := metricsFrom(c)

		var (
			status = http.StatusInternalServerError
			body   = errorResponse{Error: internalErrorMessage}
			verr   *ValidationError
			herr   *echo.HTTPError
		)
		switch {
		case errors.As(err, &verr):
			m.SetErrorStage("validation")
			status = http.StatusBadRequest
			body = errorResponse{Error: "Validation failed", Details: verr.Details}
		case errors.As(err, &herr):
			status = herr.Code
			if status >= http.StatusInternalServerError {
				m.SetErrorStage("http")
				break
			}
			m.SetErrorStage(stageForStatus(status))
			body = errorResponse{Error: fmt.Sprint(herr.Message)}
		case errors.Is(err, domain.ErrNotFound):
			m.SetErrorStage("not_found")
			status = http.StatusNotFound
			body = errorResponse{Error: "Not found"}
		default:
			m.SetErrorStage("storage")
		}

		if status >= http.StatusInternalServerError && logger != nil {
			logger.WithFields(log.Fields{
				"method":     c.Request().Method,
				"route":      c.Path(),
				"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
				"error":      err.Error(),
			}).Error("request failed")
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, body)
		}
		if werr != nil && logger != nil {
			logger.WithError(werr).Warn("write error response")
		}
	}
}

func stageForStatus(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return "auth"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "duplicate"
	default:
		return "request"
	}
}
