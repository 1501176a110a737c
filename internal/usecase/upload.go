package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type UploadType string

const (
	UploadTypeDemo  UploadType = "demo"
	UploadTypeVideo UploadType = "video"
	UploadTypeImage UploadType = "image"
)

func (t UploadType) Valid() bool {
	switch t {
	case UploadTypeDemo, UploadTypeVideo, UploadTypeImage:
		return true
	}
	return false
}

type Upload struct {
	ID          uuid.UUID
	UserID      string
	Type        UploadType
	URL         string
	Filename    string
	MimeType    string
	Size        int64
	Title       *string
	Description *string
	Demo        bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ListUploadsOption struct {
	UserID string
	Type   UploadType
	Demo   *bool
}

// ListUploads returns the caller's uploads, newest first. An empty type
// matches every type; a nil demo matches both demo and regular uploads. The
// demo type is shorthand for demo videos.
func (u Usecase) ListUploads(ctx context.Context, caller Caller, typ UploadType, demo *bool) ([]Upload, error) {
	if err := caller.require(); err != nil {
		return nil, err
	}
	if typ != "" && !typ.Valid() {
		return nil, ErrInvalid{Field: "type", Message: "unknown upload type " + string(typ)}
	}
	if typ == UploadTypeDemo {
		typ = UploadTypeVideo
		demo = new(bool)
		*demo = true
	}
	return u.repo.ListUploads(ctx, ListUploadsOption{
		UserID: caller.ID,
		Type:   typ,
		Demo:   demo,
	})
}

func (u Usecase) GetUploadByID(ctx context.Context, caller Caller, id uuid.UUID) (Upload, error) {
	if err := caller.require(); err != nil {
		return Upload{}, err
	}
	up, err := u.repo.GetUploadByID(ctx, id)
	if err != nil {
		return Upload{}, err
	}
	if up.UserID != caller.ID {
		return Upload{}, unauthorized(id, "upload")
	}
	return up, nil
}

// CreateUpload records an asset the caller already pushed to storage.
func (u Usecase) CreateUpload(ctx context.Context, caller Caller, up Upload) (Upload, error) {
	if err := caller.require(); err != nil {
		return Upload{}, err
	}

	up.URL = strings.TrimSpace(up.URL)
	up.Filename = strings.TrimSpace(up.Filename)
	switch {
	case up.URL == "":
		return Upload{}, ErrInvalid{Field: "url", Message: "url must not be empty"}
	case up.Filename == "":
		return Upload{}, ErrInvalid{Field: "filename", Message: "filename must not be empty"}
	case !up.Type.Valid():
		return Upload{}, ErrInvalid{Field: "type", Message: "unknown upload type " + string(up.Type)}
	case up.Size < 0:
		return Upload{}, ErrInvalid{Field: "size", Message: "size must not be negative"}
	}

	// demos are stored as demo videos
	if up.Type == UploadTypeDemo {
		up.Type = UploadTypeVideo
		up.Demo = true
	}
	if up.Demo && up.Type != UploadTypeVideo {
		return Upload{}, ErrInvalid{Field: "type", Message: "demo uploads must be of type video"}
	}
	if up.Demo && !strings.HasPrefix(up.MimeType, "video/") {
		return Upload{}, ErrInvalid{Field: "mime_type", Message: "demo uploads must be videos"}
	}

	up.ID = uuid.Nil
	up.UserID = caller.ID
	return u.repo.CreateUpload(ctx, up)
}

// UpdateUpload changes title and description; nil fields are kept.
func (u Usecase) UpdateUpload(ctx context.Context, caller Caller, id uuid.UUID, title, description *string) (Upload, error) {
	up, err := u.GetUploadByID(ctx, caller, id)
	if err != nil {
		return Upload{}, err
	}
	if title != nil {
		up.Title = title
	}
	if description != nil {
		up.Description = description
	}
	return u.repo.UpdateUpload(ctx, up)
}

func (u Usecase) DeleteUpload(ctx context.Context, caller Caller, id uuid.UUID) error {
	if _, err := u.GetUploadByID(ctx, caller, id); err != nil {
		return err
	}
	return u.repo.DeleteUpload(ctx, id)
}
