package server

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/avatarstudio/avatarstudio/internal/usecase"
)

type Upload struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	Type        string  `json:"type"`
	URL         string  `json:"url"`
	Filename    string  `json:"filename"`
	MimeType    string  `json:"mime_type"`
	Size        int64   `json:"size"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Demo        bool    `json:"demo"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func toUpload(up usecase.Upload) Upload {
	return Upload{
		ID:          up.ID.String(),
		UserID:      up.UserID,
		Type:        string(up.Type),
		URL:         up.URL,
		Filename:    up.Filename,
		MimeType:    up.MimeType,
		Size:        up.Size,
		Title:       up.Title,
		Description: up.Description,
		Demo:        up.Demo,
		CreatedAt:   up.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   up.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

type ListUploadsRequest struct {
	Type string `query:"type" validate:"omitempty,oneof=demo video image"`
	Demo string `query:"demo" validate:"omitempty,boolean"`
}

func (s *Server) ListUploads(ctx echo.Context) error {
	var req ListUploadsRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	var demo *bool
	if req.Demo != "" {
		b, _ := strconv.ParseBool(req.Demo)
		demo = &b
	}

	uploads, err := s.server.ListUploads(ctx.Request().Context(), callerOf(ctx), usecase.UploadType(req.Type), demo)
	if err != nil {
		return s.errorJSON(ctx, err)
	}

	list := make([]Upload, 0, len(uploads))
	for _, up := range uploads {
		list = append(list, toUpload(up))
	}

	return ctx.JSON(200, Res{
		Data: list,
		Meta: &Meta{Total: len(list)},
	})
}

type UploadIDRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}

func (s *Server) GetUploadByID(ctx echo.Context) error {
	var req UploadIDRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.ID)
	up, err := s.server.GetUploadByID(ctx.Request().Context(), callerOf(ctx), id)
	if err != nil {
		return s.errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Data: toUpload(up)})
}

type CreateUploadRequest struct {
	Type        string  `json:"type" validate:"required,oneof=demo video image"`
	URL         string  `json:"url" validate:"required,url"`
	Filename    string  `json:"filename" validate:"required"`
	MimeType    string  `json:"mime_type"`
	Size        int64   `json:"size" validate:"gte=0"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Demo        bool    `json:"demo"`
}

func (s *Server) CreateUpload(ctx echo.Context) error {
	var req CreateUploadRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	up, err := s.server.CreateUpload(ctx.Request().Context(), callerOf(ctx), usecase.Upload{
		Type:        usecase.UploadType(req.Type),
		URL:         req.URL,
		Filename:    req.Filename,
		MimeType:    req.MimeType,
		Size:        req.Size,
		Title:       req.Title,
		Description: req.Description,
		Demo:        req.Demo,
	})
	if err != nil {
		return s.errorJSON(ctx, err)
	}

	return ctx.JSON(201, Res{Data: toUpload(up)})
}

type UpdateUploadRequest struct {
	ID          string  `param:"id" validate:"required,uuid"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

func (s *Server) UpdateUpload(ctx echo.Context) error {
	var req UpdateUploadRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.ID)
	up, err := s.server.UpdateUpload(ctx.Request().Context(), callerOf(ctx), id, req.Title, req.Description)
	if err != nil {
		return s.errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Data: toUpload(up)})
}

func (s *Server) DeleteUpload(ctx echo.Context) error {
	var req UploadIDRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.ID)
	if err := s.server.DeleteUpload(ctx.Request().Context(), callerOf(ctx), id); err != nil {
		return s.errorJSON(ctx, err)
	}

	return ctx.NoContent(204)
}

type GetUploadURLRequest struct {
	Name string `json:"name" validate:"required"`
}

type UploadTarget struct {
	UploadURL string `json:"upload_url"`
	Path      string `json:"path"`
	URL       string `json:"url"`
}

func (s *Server) GetUploadURL(ctx echo.Context) error {
	var req GetUploadURLRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	target, err := s.server.GetUploadURL(ctx.Request().Context(), callerOf(ctx), req.Name)
	if err != nil {
		return s.errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Data: UploadTarget{
		UploadURL: target.UploadURL,
		Path:      target.Path,
		URL:       target.URL,
	}})
}
