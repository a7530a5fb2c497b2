// Package handler exposes the HTTP endpoints of the lending API.  Handlers
// decode requests, call a service and render its result or error as JSON.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/book-lending/internal/service"
)

const defaultTimeout = 5 * time.Second

const msgBadBody = "Invalid request body"

// base carries what every handler needs besides its service.
type base struct {
	timeout time.Duration
	log     logrus.FieldLogger
}

func newBase(timeout time.Duration, log logrus.FieldLogger) base {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return base{timeout: timeout, log: log}
}

// ctx bounds storage calls made on behalf of c.
func (b base) ctx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), b.timeout)
}

// fail renders err.  Service errors keep their client message; storage and
// unexpected errors are logged and reported with a generic message.
func (b base) fail(c echo.Context, err error) error {
	var se *service.Error
	if !errors.As(err, &se) {
		b.log.WithError(err).WithField("path", c.Path()).Error("unexpected handler error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}
	switch se.Kind {
	case service.KindValidation:
		body := echo.Map{"error": se.Message}
		if len(se.Fields) > 0 {
			body["errors"] = se.Fields
		}
		return c.JSON(http.StatusBadRequest, body)
	case service.KindNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": se.Message})
	case service.KindConflict:
		return c.JSON(http.StatusConflict, echo.Map{"error": se.Message})
	case service.KindUnauthorized:
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": se.Message})
	case service.KindForbidden:
		return c.JSON(http.StatusForbidden, echo.Map{"error": se.Message})
	}
	b.log.WithError(se).WithFields(logrus.Fields{
		"path": c.Path(),
		"kind": se.Kind.String(),
	}).Error("request failed")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": se.Message})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// queryID reads an optional numeric query parameter.  Absent yields 0.
func queryID(c echo.Context, name string) (uint64, bool) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// ErrorHandler renders errors that escape handlers (unknown routes, body
// limits, recovered panics) as {"error": msg}.  5xx are logged.
func ErrorHandler(log logrus.FieldLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		msg := "Internal server error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if s, ok := he.Message.(string); ok && code < 500 {
				msg = s
			} else if code < 500 {
				msg = http.StatusText(code)
			}
		}
		if code >= 500 {
			log.WithError(err).WithFields(logrus.Fields{
				"method": c.Request().Method,
				"uri":    c.Request().RequestURI,
			}).Error("unhandled error")
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, echo.Map{"error": msg})
		}
		if err != nil {
			log.WithError(err).Warn("write error response")
		}
	}
}
