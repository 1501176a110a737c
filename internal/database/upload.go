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

type Upload struct {
	ID          uuid.UUID `gorm:"column:id;primaryKey;type:uuid"`
	UserID      string    `gorm:"column:user_id;type:varchar(128);not null;index:uploads_user_id_idx"`
	Type        string    `gorm:"column:type;type:varchar(16);not null;index:uploads_type_idx"`
	URL         string    `gorm:"column:url;type:text;not null"`
	Filename    string    `gorm:"column:filename;type:text;not null"`
	MimeType    string    `gorm:"column:mime_type;type:varchar(255);not null"`
	Size        int64     `gorm:"column:size;type:bigint;not null"`
	Title       *string   `gorm:"column:title;type:text"`
	Description *string   `gorm:"column:description;type:text"`
	Demo        bool      `gorm:"column:demo;not null;default:false;index:uploads_demo_idx"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`

	User *User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}

func (Upload) TableName() string {
	return "uploads"
}

func (u *Upload) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (s *service) ListUploads(ctx context.Context, opt usecase.ListUploadsOption) ([]usecase.Upload, error) {
	var uploads []Upload

	db := s.db.WithContext(ctx).Model(&Upload{}).Where("user_id = ?", opt.UserID)

	if opt.Type != "" {
		db = db.Where("type = ?", string(opt.Type))
	}
	if opt.Demo != nil {
		db = db.Where("demo = ?", *opt.Demo)
	}

	if err := db.Scopes(newestFirst).Find(&uploads).Error; err != nil {
		return nil, err
	}

	list := make([]usecase.Upload, 0, len(uploads))
	for _, u := range uploads {
		list = append(list, u.ConvertToUsecase())
	}
	return list, nil
}

func (s *service) GetUploadByID(ctx context.Context, id uuid.UUID) (usecase.Upload, error) {
	var u Upload
	err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return usecase.Upload{}, usecase.ErrNotFound{
			ID:      id,
			Code:    "upload_not_found",
			Message: "upload " + id.String() + " not found",
		}
	}
	if err != nil {
		return usecase.Upload{}, err
	}
	return u.ConvertToUsecase(), nil
}

func (s *service) CreateUpload(ctx context.Context, upload usecase.Upload) (usecase.Upload, error) {
	u := Upload{
		ID:          upload.ID,
		UserID:      upload.UserID,
		Type:        string(upload.Type),
		URL:         upload.URL,
		Filename:    upload.Filename,
		MimeType:    upload.MimeType,
		Size:        upload.Size,
		Title:       upload.Title,
		Description: upload.Description,
		Demo:        upload.Demo,
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&u).Error; err != nil {
		return usecase.Upload{}, err
	}
	return u.ConvertToUsecase(), nil
}

func (s *service) UpdateUpload(ctx context.Context, upload usecase.Upload) (usecase.Upload, error) {
	err := s.db.
		WithContext(ctx).
		Model(&Upload{}).
		Where("id = ?", upload.ID).
		Updates(map[string]any{
			"title":       upload.Title,
			"description": upload.Description,
		}).Error
	if err != nil {
		return usecase.Upload{}, err
	}
	return s.GetUploadByID(ctx, upload.ID)
}

func (s *service) DeleteUpload(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&Upload{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return usecase.ErrNotFound{
			ID:      id,
			Code:    "upload_not_found",
			Message: "upload " + id.String() + " not found",
		}
	}
	return nil
}

func (u Upload) ConvertToUsecase() usecase.Upload {
	return usecase.Upload{
		ID:          u.ID,
		UserID:      u.UserID,
		Type:        usecase.UploadType(u.Type),
		URL:         u.URL,
		Filename:    u.Filename,
		MimeType:    u.MimeType,
		Size:        u.Size,
		Title:       u.Title,
		Description: u.Description,
		Demo:        u.Demo,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
