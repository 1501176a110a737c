package server

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avatarstudio/avatarstudio/internal/usecase"
)

type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	PriceCents  int64  `json:"price_cents"`
	Currency    string `json:"currency"`
	Active      bool   `json:"active"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type ListProductsRequest struct {
	Active bool `query:"active"`
}

func (s *Server) ListProducts(ctx echo.Context) error {
	var req ListProductsRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}

	products, err := s.server.ListProducts(ctx.Request().Context(), callerOf(ctx), usecase.ListProductsOption{
		ActiveOnly: req.Active,
	})
	if err != nil {
		return s.errorJSON(ctx, err)
	}

	list := make([]Product, 0, len(products))
	for _, p := range products {
		list = append(list, Product{
			ID:          p.ID.String(),
			Name:        p.Name,
			Description: p.Description,
			PriceCents:  p.PriceCents,
			Currency:    p.Currency,
			Active:      p.Active,
			CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
			UpdatedAt:   p.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}

	return ctx.JSON(200, Res{
		Data: list,
		Meta: &Meta{Total: len(list)},
	})
}
