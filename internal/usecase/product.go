package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Product struct {
	ID          uuid.UUID
	Name        string
	Description string
	PriceCents  int64
	Currency    string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ListProductsOption struct {
	ActiveOnly bool
}

func (u Usecase) ListProducts(ctx context.Context, caller Caller, opt ListProductsOption) ([]Product, error) {
	if err := caller.require(); err != nil {
		return nil, err
	}
	return u.repo.ListProducts(ctx, opt)
}
