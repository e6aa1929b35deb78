package product

import (
	"context"

	"cartservice/internal/domain"
)

// Repository is the catalog the cart service snapshots prices from.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetBySKU(ctx context.Context, sku string) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
}
