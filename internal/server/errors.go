package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/avatarstudio/avatarstudio/internal/usecase"
	"github.com/labstack/echo/v4"
)

func statusOf(err error) int {
	var (
		notFound     usecase.ErrNotFound
		unauthorized usecase.ErrUnauthorized
		invalid      usecase.ErrInvalid
		transition   usecase.ErrInvalidTransition
	)
	switch {
	case errors.Is(err, usecase.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.As(err, &unauthorized):
		return http.StatusForbidden
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &invalid):
		return http.StatusUnprocessableEntity
	case errors.As(err, &transition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// errorJSON writes a usecase error with its mapped status. Internal errors
// are logged and their text is not leaked.
func (s *Server) errorJSON(ctx echo.Context, err error) error {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		s.logger.ErrorContext(ctx.Request().Context(), "request failed",
			slog.String("uri", ctx.Request().RequestURI),
			slog.String("err", err.Error()))
		return ctx.JSON(status, map[string]string{"error": "internal server error"})
	}
	return ctx.JSON(status, map[string]string{"error": err.Error()})
}
