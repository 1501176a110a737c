package database

import (
	"context"
	"time"

	"github.com/avatarstudio/avatarstudio/internal/usecase"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Product struct {
	ID          uuid.UUID `gorm:"column:id;primaryKey;type:uuid"`
	Name        string    `gorm:"column:name;type:varchar(255);not null"`
	Description string    `gorm:"column:description;type:text"`
	PriceCents  int64     `gorm:"column:price_cents;not null"`
	Currency    string    `gorm:"column:currency;type:varchar(3);not null;default:'usd'"`
	Active      bool      `gorm:"column:active;not null;index:products_active_idx"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (Product) TableName() string {
	return "products"
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (s *service) ListProducts(ctx context.Context, opt usecase.ListProductsOption) ([]usecase.Product, error) {
	var products []Product

	db := s.db.WithContext(ctx).Model(&Product{})
	if opt.ActiveOnly {
		db = db.Where("active = ?", true)
	}

	err := db.
		Order(clause.OrderByColumn{Column: clause.Column{Name: "price_cents"}}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "name"}}).
		Find(&products).Error
	if err != nil {
		return nil, err
	}

	list := make([]usecase.Product, 0, len(products))
	for _, p := range products {
		list = append(list, p.ConvertToUsecase())
	}
	return list, nil
}

func (p Product) ConvertToUsecase() usecase.Product {
	return usecase.Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		PriceCents:  p.PriceCents,
		Currency:    p.Currency,
		Active:      p.Active,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
