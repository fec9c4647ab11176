package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/framecraft/framecraft/internal/siteapi"
	"github.com/framecraft/framecraft/internal/usecase"
)

type Meta struct {
	Total int `json:"total"`
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
}

type Res struct {
	Data    interface{} `json:"data"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// errorStatus maps use case and site API failures to response codes.
func errorStatus(err error) int {
	var serr *siteapi.StatusError
	switch {
	case errors.Is(err, usecase.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, usecase.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &serr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(ctx echo.Context, err error) error {
	status := errorStatus(err)
	if status >= 500 {
		s.logger.ErrorContext(ctx.Request().Context(), "request failed",
			slog.String("path", ctx.Path()),
			slog.Int("status", status),
			slog.String("err", err.Error()),
		)
	}
	return ctx.JSON(status, map[string]string{"error": err.Error()})
}
