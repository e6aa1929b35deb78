package cart

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

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

const cartColumns = `cart_key, owner_id, currency, coupon_code, coupon_discount_cents,
subtotal_cents, tax_cents, shipping_cents, discount_cents, total_cents, version, created_at, updated_at`

func (r *postgresRepo) Load(ctx context.Context, cartKey string) (*domain.Cart, error) {
	const q = `
SELECT ` + cartColumns + `
FROM carts
WHERE cart_key = $1
`
	var cart domain.Cart
	err := r.pool.QueryRow(ctx, q, cartKey).Scan(
		&cart.CartKey,
		&cart.OwnerID,
		&cart.Currency,
		&cart.CouponCode,
		&cart.CouponDiscountCents,
		&cart.SubtotalCents,
		&cart.TaxCents,
		&cart.ShippingCents,
		&cart.DiscountCents,
		&cart.TotalCents,
		&cart.Version,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("cart repo: load cart_key=%s error=%v", cartKey, err)
		return nil, err
	}

	const linesQuery = `
SELECT id::text, product_id, product_name, product_sku, store_id, attributes, unit_price_cents, quantity, total_cents, added_at
FROM cart_lines
WHERE cart_key = $1
ORDER BY added_at ASC, id ASC
`
	rows, err := r.pool.Query(ctx, linesQuery, cartKey)
	if err != nil {
		r.logger.Printf("cart repo: load lines cart_key=%s error=%v", cartKey, err)
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(
			&line.ID,
			&line.ProductID,
			&line.ProductName,
			&line.ProductSKU,
			&line.StoreID,
			&line.Attributes,
			&line.UnitPriceCents,
			&line.Quantity,
			&line.TotalCents,
			&line.AddedAt,
		); err != nil {
			return nil, err
		}
		cart.Lines = append(cart.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &cart, nil
}

func (r *postgresRepo) Create(ctx context.Context, cart domain.Cart) error {
	const q = `
INSERT INTO carts (cart_key, owner_id, currency, version, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)
`
	_, err := r.pool.Exec(ctx, q, cart.CartKey, cart.OwnerID, cart.Currency, cart.Version, cart.CreatedAt)
	if err != nil {
		r.logger.Printf("cart repo: create cart_key=%s error=%v", cart.CartKey, err)
		return err
	}
	r.logger.Printf("cart repo: created cart_key=%s", cart.CartKey)
	return nil
}

// Save writes the whole aggregate in one transaction. The cart row update is
// guarded by the version the caller loaded; zero rows affected means another
// writer got there first.
func (r *postgresRepo) Save(ctx context.Context, cart domain.Cart, expectedVersion int64) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const updateQuery = `
UPDATE carts
SET owner_id = $1,
    coupon_code = $2,
    coupon_discount_cents = $3,
    subtotal_cents = $4,
    tax_cents = $5,
    shipping_cents = $6,
    discount_cents = $7,
    total_cents = $8,
    version = $9,
    updated_at = $10
WHERE cart_key = $11 AND version = $12
`
	cmd, err := tx.Exec(ctx, updateQuery,
		cart.OwnerID,
		cart.CouponCode,
		cart.CouponDiscountCents,
		cart.SubtotalCents,
		cart.TaxCents,
		cart.ShippingCents,
		cart.DiscountCents,
		cart.TotalCents,
		cart.Version,
		cart.UpdatedAt,
		cart.CartKey,
		expectedVersion,
	)
	if err != nil {
		r.logger.Printf("cart repo: save cart_key=%s error=%v", cart.CartKey, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM carts WHERE cart_key = $1)`, cart.CartKey).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return domain.ErrNotFound
		}
		r.logger.Printf("cart repo: save cart_key=%s expected_version=%d conflict", cart.CartKey, expectedVersion)
		return domain.ErrConcurrencyConflict
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE cart_key = $1`, cart.CartKey); err != nil {
		return err
	}
	for _, line := range cart.Lines {
		if _, err := tx.Exec(ctx, `
INSERT INTO cart_lines (id, cart_key, product_id, product_name, product_sku, store_id, attributes, unit_price_cents, quantity, total_cents, added_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`, line.ID, cart.CartKey, line.ProductID, line.ProductName, line.ProductSKU, line.StoreID, line.Attributes, line.UnitPriceCents, line.Quantity, line.TotalCents, line.AddedAt); err != nil {
			r.logger.Printf("cart repo: save line cart_key=%s product_id=%s error=%v", cart.CartKey, line.ProductID, err)
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	r.logger.Printf("cart repo: saved cart_key=%s version=%d lines=%d", cart.CartKey, cart.Version, len(cart.Lines))
	return nil
}

func (r *postgresRepo) DeleteIdle(ctx context.Context, olderThan time.Time) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE updated_at < $1`, olderThan)
	if err != nil {
		r.logger.Printf("cart repo: delete idle older_than=%s error=%v", olderThan.Format(time.RFC3339), err)
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
