package server

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/avatarstudio/avatarstudio/internal/usecase"
)

func (s *Server) CreateCuratedAvatar(ctx echo.Context) error {
	var req CreateAvatarRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}

	avatar, err := s.server.CreateCuratedAvatar(ctx.Request().Context(), req.Prompt)
	if err != nil {
		return s.errorJSON(ctx, err)
	}

	return ctx.JSON(201, Res{Data: toAvatar(avatar)})
}

type SetResultRequest struct {
	ID  string `param:"id" validate:"required,uuid"`
	URL string `json:"url" validate:"required,url"`
}

func (s *Server) SetAvatarResult(ctx echo.Context) error {
	return s.setResult(ctx, usecase.KindAvatar)
}

func (s *Server) SetAnimationResult(ctx echo.Context) error {
	return s.setResult(ctx, usecase.KindAnimation)
}

// setResult completes a pending generation. Repeating it with the same URL
// is a no-op.
func (s *Server) setResult(ctx echo.Context, kind usecase.GenerationKind) error {
	var req SetResultRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.ID)
	if err := s.server.SetResult(ctx.Request().Context(), kind, id, req.URL); err != nil {
		return s.errorJSON(ctx, err)
	}

	return ctx.NoContent(204)
}

type FailRequest struct {
	ID     string `param:"id" validate:"required,uuid"`
	Reason string `json:"reason"`
}

func (s *Server) FailAvatar(ctx echo.Context) error {
	return s.fail(ctx, usecase.KindAvatar)
}

func (s *Server) FailAnimation(ctx echo.Context) error {
	return s.fail(ctx, usecase.KindAnimation)
}

func (s *Server) fail(ctx echo.Context, kind usecase.GenerationKind) error {
	var req FailRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.ID)
	if err := s.server.Fail(ctx.Request().Context(), kind, id, req.Reason); err != nil {
		return s.errorJSON(ctx, err)
	}

	return ctx.NoContent(204)
}
