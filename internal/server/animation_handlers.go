package server

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/avatarstudio/avatarstudio/internal/usecase"
)

type Animation struct {
	ID            string  `json:"id"`
	VideoURL      *string `json:"video_url"`
	Prompt        string  `json:"prompt"`
	AvatarID      *string `json:"avatar_id"`
	UserID        *string `json:"user_id"`
	State         string  `json:"state"`
	FailureReason *string `json:"failure_reason,omitempty"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`

	Avatar *Avatar `json:"avatar,omitempty"`
}

func toAnimation(a usecase.Animation) Animation {
	anim := Animation{
		ID:            a.ID.String(),
		VideoURL:      a.VideoURL,
		Prompt:        a.Prompt,
		UserID:        a.UserID,
		State:         string(a.State()),
		FailureReason: a.FailureReason,
		CreatedAt:     a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     a.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if a.AvatarID != nil {
		tmp := a.AvatarID.String()
		anim.AvatarID = &tmp
	}
	if a.Avatar != nil {
		av := toAvatar(*a.Avatar)
		anim.Avatar = &av
	}
	return anim
}

func toAnimations(animations []usecase.Animation) []Animation {
	list := make([]Animation, 0, len(animations))
	for _, a := range animations {
		list = append(list, toAnimation(a))
	}
	return list
}

func (s *Server) ListAnimations(ctx echo.Context) error {
	animations, err := s.server.ListAnimations(ctx.Request().Context(), callerOf(ctx))
	if err != nil {
		return s.errorJSON(ctx, err)
	}

	list := toAnimations(animations)
	return ctx.JSON(200, Res{
		Data: list,
		Meta: &Meta{Total: len(list)},
	})
}

type AnimationIDRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}

func (s *Server) GetAnimationByID(ctx echo.Context) error {
	var req AnimationIDRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.ID)
	anim, err := s.server.GetAnimationByID(ctx.Request().Context(), callerOf(ctx), id)
	if err != nil {
		return s.errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Data: toAnimation(anim)})
}

func (s *Server) GetAnimationStatus(ctx echo.Context) error {
	var req AnimationIDRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.ID)
	st, err := s.server.GetAnimationStatus(ctx.Request().Context(), callerOf(ctx), id)
	if err != nil {
		return s.errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Data: toStatus(st)})
}

type CreateAnimationRequest struct {
	AvatarID string `json:"avatar_id" validate:"required,uuid"`
	Prompt   string `json:"prompt"`
}

func (s *Server) CreateAnimation(ctx echo.Context) error {
	var req CreateAnimationRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	avatarID, _ := uuid.Parse(req.AvatarID)
	anim, err := s.server.CreateAnimation(ctx.Request().Context(), callerOf(ctx), avatarID, req.Prompt)
	if err != nil {
		return s.errorJSON(ctx, err)
	}

	return ctx.JSON(201, Res{Data: toAnimation(anim)})
}

type UpdateAnimationRequest struct {
	ID     string `param:"id" validate:"required,uuid"`
	Prompt string `json:"prompt"`
}

func (s *Server) UpdateAnimation(ctx echo.Context) error {
	var req UpdateAnimationRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.ID)
	anim, err := s.server.UpdateAnimationPrompt(ctx.Request().Context(), callerOf(ctx), id, req.Prompt)
	if err != nil {
		return s.errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Data: toAnimation(anim)})
}

func (s *Server) DeleteAnimation(ctx echo.Context) error {
	var req AnimationIDRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.ID)
	if err := s.server.DeleteAnimation(ctx.Request().Context(), callerOf(ctx), id); err != nil {
		return s.errorJSON(ctx, err)
	}

	return ctx.NoContent(204)
}
