package product

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

const productColumns = `id::text, sku, name, price_cents, currency, store_id, store_name, image_url, created_at`

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	const q = `
SELECT ` + productColumns + `
FROM products
WHERE id = $1::uuid
`
	return r.fetchOne(ctx, q, id)
}

func (r *postgresRepo) GetBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	const q = `
SELECT ` + productColumns + `
FROM products
WHERE sku = $1
`
	return r.fetchOne(ctx, q, sku)
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Product, error) {
	const q = `
SELECT ` + productColumns + `
FROM products
ORDER BY created_at DESC
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		r.logger.Printf("product repo: list error=%v", err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.PriceCents, &p.Currency, &p.StoreID, &p.StoreName, &p.ImageURL, &p.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("product repo: list rows error=%v", err)
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (id, sku, name, price_cents, currency, store_id, store_name, image_url)
VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (sku) DO UPDATE SET
    name = EXCLUDED.name,
    price_cents = EXCLUDED.price_cents,
    currency = EXCLUDED.currency,
    store_id = EXCLUDED.store_id,
    store_name = EXCLUDED.store_name,
    image_url = EXCLUDED.image_url
RETURNING id::text, created_at
`
	res := p
	err := r.pool.QueryRow(ctx, q, p.ID, p.SKU, p.Name, p.PriceCents, p.Currency, p.StoreID, p.StoreName, p.ImageURL).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		r.logger.Printf("product repo: upsert sku=%s error=%v", p.SKU, err)
		return nil, err
	}
	r.logger.Printf("product repo: upserted sku=%s id=%s", res.SKU, res.ID)
	return &res, nil
}

func (r *postgresRepo) fetchOne(ctx context.Context, q string, arg any) (*domain.Product, error) {
	var p domain.Product
	err := r.pool.QueryRow(ctx, q, arg).Scan(&p.ID, &p.SKU, &p.Name, &p.PriceCents, &p.Currency, &p.StoreID, &p.StoreName, &p.ImageURL, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("product repo: fetch error=%v", err)
		return nil, err
	}
	return &p, nil
}
