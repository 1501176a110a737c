package database

import (
	"context"
	"errors"
	"time"

	"github.com/avatarstudio/avatarstudio/internal/usecase"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Animation.AvatarID is nullable so deleting the source avatar never blocks;
// creation requires it at the application level.
type Animation struct {
	ID            uuid.UUID  `gorm:"column:id;primaryKey;type:uuid"`
	VideoURL      *string    `gorm:"column:video_url;type:text"`
	Prompt        string     `gorm:"column:prompt;type:text;not null"`
	AvatarID      *uuid.UUID `gorm:"column:avatar_id;type:uuid;index:animations_avatar_id_idx"`
	UserID        *string    `gorm:"column:user_id;type:varchar(128);index:animations_user_id_idx"`
	GenerationID  *uuid.UUID `gorm:"column:generation_id;type:uuid;index:animations_generation_id_idx"`
	FailureReason *string    `gorm:"column:failure_reason;type:text"`
	FailedAt      *time.Time `gorm:"column:failed_at"`
	CreatedAt     time.Time  `gorm:"column:created_at;index:animations_created_at_idx"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`

	Avatar     *Avatar     `gorm:"foreignKey:AvatarID;references:ID;constraint:OnDelete:SET NULL"`
	User       *User       `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:SET NULL"`
	Generation *Generation `gorm:"foreignKey:GenerationID;references:ID;constraint:OnDelete:SET NULL"`
}

func (Animation) TableName() string {
	return "animations"
}

func (a *Animation) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (s *service) ListAnimations(ctx context.Context, opt usecase.ListAnimationsOption) ([]usecase.Animation, error) {
	var animations []Animation

	err := s.db.
		WithContext(ctx).
		Model(&Animation{}).
		Scopes(visibleTo(opt.ViewerID), newestFirst).
		Preload("Avatar").
		Find(&animations).Error
	if err != nil {
		return nil, err
	}

	list := make([]usecase.Animation, 0, len(animations))
	for _, a := range animations {
		list = append(list, a.ConvertToUsecase())
	}
	return list, nil
}

func (s *service) GetAnimationByID(ctx context.Context, id uuid.UUID) (usecase.Animation, error) {
	var a Animation
	err := s.db.
		WithContext(ctx).
		Preload("Avatar").
		First(&a, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return usecase.Animation{}, usecase.ErrNotFound{
			ID:      id,
			Code:    "animation_not_found",
			Message: "animation " + id.String() + " not found",
		}
	}
	if err != nil {
		return usecase.Animation{}, err
	}
	return a.ConvertToUsecase(), nil
}

func (s *service) CreateAnimation(ctx context.Context, animation usecase.Animation) (usecase.Animation, error) {
	a := Animation{
		ID:           animation.ID,
		Prompt:       animation.Prompt,
		AvatarID:     animation.AvatarID,
		UserID:       animation.UserID,
		GenerationID: animation.GenerationID,
		CreatedAt:    animation.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&a).Error; err != nil {
		return usecase.Animation{}, err
	}
	return s.GetAnimationByID(ctx, a.ID)
}

func (s *service) UpdateAnimationPrompt(ctx context.Context, id uuid.UUID, prompt string) (usecase.Animation, error) {
	err := s.db.
		WithContext(ctx).
		Model(&Animation{}).
		Where("id = ?", id).
		Update("prompt", prompt).Error
	if err != nil {
		return usecase.Animation{}, err
	}
	return s.GetAnimationByID(ctx, id)
}

func (s *service) ResolveAnimation(ctx context.Context, id uuid.UUID, r usecase.Resolution) (bool, error) {
	res := s.db.
		WithContext(ctx).
		Model(&Animation{}).
		Where("id = ? AND video_url IS NULL AND failed_at IS NULL", id).
		Updates(resolutionColumns("video_url", r))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *service) DeleteAnimation(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&Animation{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return usecase.ErrNotFound{
			ID:      id,
			Code:    "animation_not_found",
			Message: "animation " + id.String() + " not found",
		}
	}
	return nil
}

func (a Animation) ConvertToUsecase() usecase.Animation {
	ua := usecase.Animation{
		ID:            a.ID,
		VideoURL:      a.VideoURL,
		Prompt:        a.Prompt,
		AvatarID:      a.AvatarID,
		UserID:        a.UserID,
		GenerationID:  a.GenerationID,
		FailureReason: a.FailureReason,
		FailedAt:      a.FailedAt,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
	if a.Avatar != nil {
		av := a.Avatar.ConvertToUsecase()
		ua.Avatar = &av
	}
	return ua
}
