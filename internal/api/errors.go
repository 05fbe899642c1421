package api

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"nathanbeddoewebdev/perfsight/internal/analytics"
	"nathanbeddoewebdev/perfsight/internal/report/domain"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusOf maps an error to the HTTP status reported for it.
func StatusOf(err error) int {
	var he *echo.HTTPError
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &he):
		return he.Code
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &verrs),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, analytics.ErrTooFewReports),
		errors.Is(err, analytics.ErrInsufficientMembers),
		errors.Is(err, analytics.ErrUnknownBaseline),
		errors.Is(err, analytics.ErrUnknownReport):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := StatusOf(err)
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(he.Code)
		}
	}
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", zap.String("route", c.Path()), zap.Error(err))
		msg = "internal error"
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	if werr := c.JSON(status, ErrorResponse{Error: msg}); werr != nil {
		s.log.Warn("failed to write error response", zap.Error(werr))
	}
}
