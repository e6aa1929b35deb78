package seed

import (
	"context"
	"fmt"
	"log"
	"time"

	"cartservice/internal/domain"
	couponrepo "cartservice/internal/repository/coupon"
	productrepo "cartservice/internal/repository/product"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Apply inserts demo catalog and coupon data for manual testing. It is
// idempotent via the repositories' upserts.
func Apply(ctx context.Context, pool *pgxpool.Pool, logger *log.Logger) error {
	products := productrepo.NewPostgres(pool, logger)
	coupons := couponrepo.NewPostgres(pool, logger)

	demoProducts := []domain.Product{
		{
			SKU:        "SKU-DEMO-TSHIRT",
			Name:       "Demo T-Shirt",
			PriceCents: 1999,
			Currency:   "USD",
			StoreID:    "store-main",
			StoreName:  "Main Street Store",
			ImageURL:   "https://example.com/img/tshirt.png",
		},
		{
			SKU:        "SKU-DEMO-MUG",
			Name:       "Demo Mug",
			PriceCents: 1299,
			Currency:   "USD",
			StoreID:    "store-main",
			StoreName:  "Main Street Store",
			ImageURL:   "https://example.com/img/mug.png",
		},
		{
			SKU:        "SKU-DEMO-POSTER",
			Name:       "Demo Poster",
			PriceCents: 899,
			Currency:   "USD",
			StoreID:    "store-outlet",
			StoreName:  "Outlet Store",
		},
	}
	for _, p := range demoProducts {
		if _, err := products.Upsert(ctx, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.SKU, err)
		}
	}

	until := time.Now().UTC().AddDate(1, 0, 0)
	demoCoupons := []domain.Coupon{
		{
			Code:        "SAVE5",
			Kind:        domain.CouponKindAmount,
			AmountCents: 500,
			Active:      true,
			ValidUntil:  &until,
		},
		{
			Code:             "TENOFF",
			Kind:             domain.CouponKindPercent,
			PercentBps:       1000,
			MinSubtotalCents: 2000,
			Active:           true,
			ValidUntil:       &until,
		},
	}
	for _, c := range demoCoupons {
		if err := coupons.Upsert(ctx, c); err != nil {
			return fmt.Errorf("upsert coupon %s: %w", c.Code, err)
		}
	}

	return nil
}
