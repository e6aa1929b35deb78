package coupon

import (
	"context"
	"errors"
	"io"
	"log"

	"cartservice/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	const q = `
SELECT code, kind, amount_cents, percent_bps, min_subtotal_cents, valid_from, valid_until, active, created_at
FROM coupons
WHERE code = $1
`
	var c domain.Coupon
	err := r.pool.QueryRow(ctx, q, code).Scan(
		&c.Code,
		&c.Kind,
		&c.AmountCents,
		&c.PercentBps,
		&c.MinSubtotalCents,
		&c.ValidFrom,
		&c.ValidUntil,
		&c.Active,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("coupon repo: get code=%s error=%v", code, err)
		return nil, err
	}
	return &c, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, c domain.Coupon) error {
	const q = `
INSERT INTO coupons (code, kind, amount_cents, percent_bps, min_subtotal_cents, valid_from, valid_until, active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (code) DO UPDATE SET
    kind = EXCLUDED.kind,
    amount_cents = EXCLUDED.amount_cents,
    percent_bps = EXCLUDED.percent_bps,
    min_subtotal_cents = EXCLUDED.min_subtotal_cents,
    valid_from = EXCLUDED.valid_from,
    valid_until = EXCLUDED.valid_until,
    active = EXCLUDED.active
`
	_, err := r.pool.Exec(ctx, q, c.Code, c.Kind, c.AmountCents, c.PercentBps, c.MinSubtotalCents, c.ValidFrom, c.ValidUntil, c.Active)
	if err != nil {
		r.logger.Printf("coupon repo: upsert code=%s error=%v", c.Code, err)
		return err
	}
	return nil
}
