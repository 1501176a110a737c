package database

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/avatarstudio/avatarstudio/internal/usecase"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Avatar struct {
	ID            uuid.UUID      `gorm:"column:id;primaryKey;type:uuid"`
	ImageURL      *string        `gorm:"column:image_url;type:text"`
	Prompt        datatypes.JSON `gorm:"column:prompt;not null"`
	UserID        *string        `gorm:"column:user_id;type:varchar(128);index:avatars_user_id_idx"`
	RemixedFromID *uuid.UUID     `gorm:"column:remixed_from_id;type:uuid;index:avatars_remixed_from_id_idx"`
	GenerationID  *uuid.UUID     `gorm:"column:generation_id;type:uuid"`
	FailureReason *string        `gorm:"column:failure_reason;type:text"`
	FailedAt      *time.Time     `gorm:"column:failed_at"`
	CreatedAt     time.Time      `gorm:"column:created_at;index:avatars_created_at_idx"`
	UpdatedAt     time.Time      `gorm:"column:updated_at"`

	User        *User       `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:SET NULL"`
	RemixedFrom *Avatar     `gorm:"foreignKey:RemixedFromID;references:ID;constraint:OnDelete:SET NULL"`
	Generation  *Generation `gorm:"foreignKey:GenerationID;references:ID;constraint:OnDelete:SET NULL"`
}

func (Avatar) TableName() string {
	return "avatars"
}

func (a *Avatar) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// visibleTo limits a query to curated rows plus the viewer's own.
func visibleTo(viewerID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id IS NULL OR user_id = ?", viewerID)
	}
}

func newestFirst(db *gorm.DB) *gorm.DB {
	return db.
		Order(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}, Desc: true}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: true})
}

func (s *service) ListAvatars(ctx context.Context, opt usecase.ListAvatarsOption) ([]usecase.Avatar, error) {
	var avatars []Avatar

	db := s.db.WithContext(ctx).Model(&Avatar{})

	switch opt.Scope {
	case usecase.AvatarScopeCurated:
		db = db.Where("user_id IS NULL")
	case usecase.AvatarScopeOwn:
		db = db.Where("user_id = ?", opt.ViewerID)
	default:
		db = db.Scopes(visibleTo(opt.ViewerID))
	}

	if err := db.Scopes(newestFirst).Find(&avatars).Error; err != nil {
		return nil, err
	}

	list := make([]usecase.Avatar, 0, len(avatars))
	for _, a := range avatars {
		list = append(list, a.ConvertToUsecase())
	}
	return list, nil
}

func (s *service) GetAvatarByID(ctx context.Context, id uuid.UUID) (usecase.Avatar, error) {
	var a Avatar
	err := s.db.WithContext(ctx).First(&a, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return usecase.Avatar{}, usecase.ErrNotFound{
			ID:      id,
			Code:    "avatar_not_found",
			Message: "avatar " + id.String() + " not found",
		}
	}
	if err != nil {
		return usecase.Avatar{}, err
	}
	return a.ConvertToUsecase(), nil
}

func (s *service) CreateAvatar(ctx context.Context, avatar usecase.Avatar) (usecase.Avatar, error) {
	prompt, err := json.Marshal(avatar.Prompt)
	if err != nil {
		return usecase.Avatar{}, err
	}
	a := Avatar{
		ID:            avatar.ID,
		Prompt:        prompt,
		UserID:        avatar.UserID,
		RemixedFromID: avatar.RemixedFromID,
		GenerationID:  avatar.GenerationID,
		CreatedAt:     avatar.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&a).Error; err != nil {
		return usecase.Avatar{}, err
	}
	return a.ConvertToUsecase(), nil
}

func (s *service) UpdateAvatarPrompt(ctx context.Context, id uuid.UUID, prompt usecase.Prompt) (usecase.Avatar, error) {
	b, err := json.Marshal(prompt)
	if err != nil {
		return usecase.Avatar{}, err
	}
	res := s.db.
		WithContext(ctx).
		Model(&Avatar{}).
		Where("id = ?", id).
		Update("prompt", datatypes.JSON(b))
	if res.Error != nil {
		return usecase.Avatar{}, res.Error
	}
	return s.GetAvatarByID(ctx, id)
}

// ResolveAvatar applies a terminal outcome if the avatar is still pending and
// reports whether it did.
func (s *service) ResolveAvatar(ctx context.Context, id uuid.UUID, r usecase.Resolution) (bool, error) {
	res := s.db.
		WithContext(ctx).
		Model(&Avatar{}).
		Where("id = ? AND image_url IS NULL AND failed_at IS NULL", id).
		Updates(resolutionColumns("image_url", r))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *service) DeleteAvatar(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&Avatar{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return usecase.ErrNotFound{
			ID:      id,
			Code:    "avatar_not_found",
			Message: "avatar " + id.String() + " not found",
		}
	}
	return nil
}

func resolutionColumns(urlColumn string, r usecase.Resolution) map[string]any {
	cols := map[string]any{"updated_at": r.At}
	if r.URL != nil {
		cols[urlColumn] = *r.URL
	}
	if r.FailureReason != nil {
		cols["failure_reason"] = *r.FailureReason
		cols["failed_at"] = r.At
	}
	return cols
}

// Convert core model to usecase model
func (a Avatar) ConvertToUsecase() usecase.Avatar {
	var prompt usecase.Prompt
	_ = json.Unmarshal(a.Prompt, &prompt)
	return usecase.Avatar{
		ID:            a.ID,
		ImageURL:      a.ImageURL,
		Prompt:        prompt,
		UserID:        a.UserID,
		RemixedFromID: a.RemixedFromID,
		GenerationID:  a.GenerationID,
		FailureReason: a.FailureReason,
		FailedAt:      a.FailedAt,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}
