package coupon

import (
	"context"

	"cartservice/internal/domain"
)

// Repository stores discount codes.
type Repository interface {
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)
	Upsert(ctx context.Context, c domain.Coupon) error
}
