package database

import (
	"context"
	"errors"
	"time"

	"github.com/avatarstudio/avatarstudio/internal/usecase"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// User rows mirror identities from the auth provider; the id is the
// provider's uid.
type User struct {
	ID        string    `gorm:"column:id;primaryKey;type:varchar(128)"`
	Name      string    `gorm:"column:name;type:varchar(255)"`
	Email     string    `gorm:"column:email;type:varchar(255);index"`
	Image     string    `gorm:"column:image;type:text"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (s *service) GetUserByID(ctx context.Context, id string) (usecase.User, error) {
	var u User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return usecase.User{}, usecase.ErrNotFound{
			Code:    "user_not_found",
			Message: "user " + id + " not found",
		}
	}
	if err != nil {
		return usecase.User{}, err
	}
	return u.ConvertToUsecase(), nil
}

func (s *service) UpsertUser(ctx context.Context, user usecase.User) (usecase.User, error) {
	u := User{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Image: user.Image,
	}
	err := s.db.
		WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "email", "image", "updated_at"}),
		}).
		Create(&u).Error
	if err != nil {
		return usecase.User{}, err
	}
	return u.ConvertToUsecase(), nil
}

func (u User) ConvertToUsecase() usecase.User {
	return usecase.User{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Image:     u.Image,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
