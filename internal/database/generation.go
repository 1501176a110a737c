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

type Generation struct {
	ID         uuid.UUID  `gorm:"column:id;primaryKey;type:uuid"`
	Kind       string     `gorm:"column:kind;type:varchar(32);not null"`
	EntityID   uuid.UUID  `gorm:"column:entity_id;type:uuid;not null;index:generations_entity_id_idx"`
	Status     string     `gorm:"column:status;type:varchar(32);not null;index:generations_status_idx"`
	Attempts   int        `gorm:"column:attempts;not null;default:0"`
	ResultURL  *string    `gorm:"column:result_url;type:text"`
	Error      string     `gorm:"column:error;type:text"`
	StartedAt  *time.Time `gorm:"column:started_at"`
	FinishedAt *time.Time `gorm:"column:finished_at"`
	CreatedAt  time.Time  `gorm:"column:created_at"`
	UpdatedAt  time.Time  `gorm:"column:updated_at"`
}

func (Generation) TableName() string {
	return "generations"
}

func (g *Generation) BeforeCreate(*gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

func (s *service) CreateGeneration(ctx context.Context, gen usecase.Generation) (usecase.Generation, error) {
	g := Generation{
		ID:        gen.ID,
		Kind:      string(gen.Kind),
		EntityID:  gen.EntityID,
		Status:    gen.Status,
		CreatedAt: gen.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&g).Error; err != nil {
		return usecase.Generation{}, err
	}
	return g.ConvertToUsecase(), nil
}

func (s *service) GetGenerationByID(ctx context.Context, id uuid.UUID) (usecase.Generation, error) {
	var g Generation
	err := s.db.WithContext(ctx).First(&g, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return usecase.Generation{}, usecase.ErrNotFound{
			ID:      id,
			Code:    "generation_not_found",
			Message: "generation " + id.String() + " not found",
		}
	}
	if err != nil {
		return usecase.Generation{}, err
	}
	return g.ConvertToUsecase(), nil
}

func (s *service) ListGenerations(ctx context.Context, opt usecase.ListGenerationsOption) ([]usecase.Generation, error) {
	var gens []Generation

	db := s.db.WithContext(ctx).Model(&Generation{})

	if opt.Statuses != nil {
		db = db.Where("status IN ?", opt.Statuses)
	}
	if opt.Kinds != nil {
		kinds := make([]string, 0, len(opt.Kinds))
		for _, k := range opt.Kinds {
			kinds = append(kinds, string(k))
		}
		db = db.Where("kind IN ?", kinds)
	}
	if opt.CreatedBefore != nil {
		db = db.Where("created_at < ?", *opt.CreatedBefore)
	}
	if opt.Limit > 0 {
		db = db.Limit(opt.Limit)
	}

	err := db.
		Order(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}}).
		Find(&gens).Error
	if err != nil {
		return nil, err
	}

	list := make([]usecase.Generation, 0, len(gens))
	for _, g := range gens {
		list = append(list, g.ConvertToUsecase())
	}
	return list, nil
}

func (s *service) UpdateGeneration(ctx context.Context, gen usecase.Generation) (usecase.Generation, error) {
	err := s.db.
		WithContext(ctx).
		Model(&Generation{}).
		Where("id = ?", gen.ID).
		Updates(map[string]any{
			"status":      gen.Status,
			"attempts":    gen.Attempts,
			"result_url":  gen.ResultURL,
			"error":       gen.Error,
			"started_at":  gen.StartedAt,
			"finished_at": gen.FinishedAt,
		}).Error
	if err != nil {
		return usecase.Generation{}, err
	}
	return s.GetGenerationByID(ctx, gen.ID)
}

// Convert core model to usecase model
func (g Generation) ConvertToUsecase() usecase.Generation {
	return usecase.Generation{
		ID:         g.ID,
		Kind:       usecase.GenerationKind(g.Kind),
		EntityID:   g.EntityID,
		Status:     g.Status,
		Attempts:   g.Attempts,
		ResultURL:  g.ResultURL,
		Error:      g.Error,
		StartedAt:  g.StartedAt,
		FinishedAt: g.FinishedAt,
		CreatedAt:  g.CreatedAt,
		UpdatedAt:  g.UpdatedAt,
	}
}
