package server

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/avatarstudio/avatarstudio/internal/usecase"
)

type Avatar struct {
	ID            string         `json:"id"`
	ImageURL      *string        `json:"image_url"`
	Prompt        usecase.Prompt `json:"prompt"`
	UserID        *string        `json:"user_id"`
	RemixedFromID *string        `json:"remixed_from_id,omitempty"`
	State         string         `json:"state"`
	FailureReason *string        `json:"failure_reason,omitempty"`
	Curated       bool           `json:"curated"`
	CreatedAt     string         `json:"created_at"`
	UpdatedAt     string         `json:"updated_at"`
}

func toAvatar(a usecase.Avatar) Avatar {
	var remixedFrom *string
	if a.RemixedFromID != nil {
		id := a.RemixedFromID.String()
		remixedFrom = &id
	}
	return Avatar{
		ID:            a.ID.String(),
		ImageURL:      a.ImageURL,
		Prompt:        a.Prompt,
		UserID:        a.UserID,
		RemixedFromID: remixedFrom,
		State:         string(a.State()),
		FailureReason: a.FailureReason,
		Curated:       a.IsCurated(),
		CreatedAt:     a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     a.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

type Status struct {
	ID            string  `json:"id"`
	Kind          string  `json:"kind"`
	State         string  `json:"state"`
	URL           *string `json:"url"`
	FailureReason *string `json:"failure_reason,omitempty"`
}

func toStatus(st usecase.Status) Status {
	return Status{
		ID:            st.ID.String(),
		Kind:          string(st.Kind),
		State:         string(st.State),
		URL:           st.URL,
		FailureReason: st.FailureReason,
	}
}

type ListAvatarsRequest struct {
	Scope string `query:"scope" validate:"omitempty,oneof=curated own"`
}

func (s *Server) ListAvatars(ctx echo.Context) error {
	var req ListAvatarsRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	avatars, err := s.server.ListAvatars(ctx.Request().Context(), callerOf(ctx), usecase.AvatarScope(req.Scope))
	if err != nil {
		return s.errorJSON(ctx, err)
	}

	list := make([]Avatar, 0, len(avatars))
	for _, a := range avatars {
		list = append(list, toAvatar(a))
	}

	return ctx.JSON(200, Res{
		Data: list,
		Meta: &Meta{Total: len(list)},
	})
}

type AvatarIDRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}

func (s *Server) GetAvatarByID(ctx echo.Context) error {
	var req AvatarIDRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.ID)
	avatar, err := s.server.GetAvatarByID(ctx.Request().Context(), callerOf(ctx), id)
	if err != nil {
		return s.errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Data: toAvatar(avatar)})
}

func (s *Server) GetAvatarStatus(ctx echo.Context) error {
	var req AvatarIDRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.ID)
	st, err := s.server.GetAvatarStatus(ctx.Request().Context(), callerOf(ctx), id)
	if err != nil {
		return s.errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Data: toStatus(st)})
}

// Prompt is either a plain string or a JSON object of structured fields.
type CreateAvatarRequest struct {
	Prompt usecase.Prompt `json:"prompt"`
}

func (s *Server) CreateAvatar(ctx echo.Context) error {
	var req CreateAvatarRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}

	avatar, err := s.server.CreateAvatar(ctx.Request().Context(), callerOf(ctx), req.Prompt)
	if err != nil {
		return s.errorJSON(ctx, err)
	}

	return ctx.JSON(201, Res{Data: toAvatar(avatar)})
}

type UpdateAvatarRequest struct {
	ID     string         `param:"id" validate:"required,uuid"`
	Prompt usecase.Prompt `json:"prompt"`
}

func (s *Server) UpdateAvatar(ctx echo.Context) error {
	var req UpdateAvatarRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.ID)
	avatar, err := s.server.UpdateAvatarPrompt(ctx.Request().Context(), callerOf(ctx), id, req.Prompt)
	if err != nil {
		return s.errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Data: toAvatar(avatar)})
}

func (s *Server) DeleteAvatar(ctx echo.Context) error {
	var req AvatarIDRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.ID)
	if err := s.server.DeleteAvatar(ctx.Request().Context(), callerOf(ctx), id); err != nil {
		return s.errorJSON(ctx, err)
	}

	return ctx.NoContent(204)
}

func (s *Server) RegenerateAvatar(ctx echo.Context) error {
	var req AvatarIDRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.ID)
	avatar, err := s.server.RegenerateAvatar(ctx.Request().Context(), callerOf(ctx), id)
	if err != nil {
		return s.errorJSON(ctx, err)
	}

	return ctx.JSON(201, Res{Data: toAvatar(avatar)})
}

// RemixAvatarRequest may omit the prompt to reuse the source avatar's.
type RemixAvatarRequest struct {
	ID     string         `param:"id" validate:"required,uuid"`
	Prompt usecase.Prompt `json:"prompt"`
}

func (s *Server) RemixAvatar(ctx echo.Context) error {
	var req RemixAvatarRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.ID)
	avatar, err := s.server.RemixAvatar(ctx.Request().Context(), callerOf(ctx), id, req.Prompt)
	if err != nil {
		return s.errorJSON(ctx, err)
	}

	return ctx.JSON(201, Res{Data: toAvatar(avatar)})
}
