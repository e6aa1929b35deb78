package cart

import (
	"context"
	"time"

	"cartservice/internal/domain"
)

// Repository persists cart aggregates keyed by cart key. Save performs a
// compare-and-swap on the version the caller loaded, so concurrent writers
// in other processes surface as domain.ErrConcurrencyConflict.
type Repository interface {
	Load(ctx context.Context, cartKey string) (*domain.Cart, error)
	Create(ctx context.Context, cart domain.Cart) error
	Save(ctx context.Context, cart domain.Cart, expectedVersion int64) error
	DeleteIdle(ctx context.Context, olderThan time.Time) (int64, error)
}
