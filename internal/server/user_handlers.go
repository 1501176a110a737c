package server

import (
	"time"

	"github.com/labstack/echo/v4"
)

type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Image     string `json:"image,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

func (s *Server) GetMe(ctx echo.Context) error {
	u, err := s.server.GetMe(ctx.Request().Context(), callerOf(ctx))
	if err != nil {
		return s.errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Data: User{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Image:     u.Image,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: u.UpdatedAt.UTC().Format(time.RFC3339),
	}})
}
