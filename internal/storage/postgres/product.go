package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mielpino/storefront/internal/domain/product"
)

var (
	_ product.Repository = (*ProductRepository)(nil)
	_ product.Inventory  = (*ProductRepository)(nil)
)

const productColumns = `id, name, description, price, stock, sizes_kg,
	image_url, bg_color, btn_color, honey_color, model_path`

// ProductRepository implements both the catalog read contract and the
// inventory mutation contract on the products table.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns the whole catalog ordered by ID.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// GetByID returns a single product, or product.ErrNotFound.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)

	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}
	return p, nil
}

// GetByIDs batch-fetches products. Missing IDs are simply absent from the
// result; the caller decides whether that is an error.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []int64) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// ConditionalDecrement performs the guarded stock update in a single
// statement. Postgres serializes row updates, so concurrent decrements of
// the same product cannot both pass the stock >= amount guard.
func (r *ProductRepository) ConditionalDecrement(ctx context.Context, id int64, amount decimal.Decimal) (bool, decimal.Decimal, error) {
	var newStock decimal.Decimal
	err := r.pool.QueryRow(ctx, `
		UPDATE products SET stock = stock - $2
		WHERE id = $1 AND stock >= $2
		RETURNING stock`, id, amount).Scan(&newStock)
	if err == nil {
		return true, newStock, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, decimal.Zero, fmt.Errorf("decrementing stock for product %d: %w", id, err)
	}

	// Guard failed (or the product vanished): report what is available now.
	var available decimal.Decimal
	err = r.pool.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, id).Scan(&available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, decimal.Zero, product.ErrNotFound
		}
		return false, decimal.Zero, fmt.Errorf("reading stock for product %d: %w", id, err)
	}
	return false, available, nil
}

// Increment credits stock back during rollback compensation.
func (r *ProductRepository) Increment(ctx context.Context, id int64, amount decimal.Decimal) error {
	ct, err := r.pool.Exec(ctx, `UPDATE products SET stock = stock + $2 WHERE id = $1`, id, amount)
	if err != nil {
		return fmt.Errorf("incrementing stock for product %d: %w", id, err)
	}
	if ct.RowsAffected() != 1 {
		return fmt.Errorf("incrementing stock for product %d: %w", id, product.ErrNotFound)
	}
	return nil
}

// Upsert inserts or refreshes a catalog row. Stock is only written on first
// insert so reseeding a live database never resurrects sold inventory.
func (r *ProductRepository) Upsert(ctx context.Context, p *product.Product) error {
	sizesJSON, err := json.Marshal(p.SizesKg)
	if err != nil {
		return fmt.Errorf("encoding sizes for product %d: %w", p.ID, err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO products (id, name, description, price, stock, sizes_kg,
			image_url, bg_color, btn_color, honey_color, model_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			sizes_kg = EXCLUDED.sizes_kg,
			image_url = EXCLUDED.image_url,
			bg_color = EXCLUDED.bg_color,
			btn_color = EXCLUDED.btn_color,
			honey_color = EXCLUDED.honey_color,
			model_path = EXCLUDED.model_path`,
		p.ID, p.Name, p.Description, p.Price, p.Stock, sizesJSON,
		p.ImageURL, p.Display.BgColor, p.Display.BtnColor,
		p.Display.HoneyColor, p.Display.ModelPath,
	)
	if err != nil {
		return fmt.Errorf("upserting product %d: %w", p.ID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*product.Product, error) {
	var (
		p         product.Product
		sizesJSON []byte
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &sizesJSON,
		&p.ImageURL, &p.Display.BgColor, &p.Display.BtnColor,
		&p.Display.HoneyColor, &p.Display.ModelPath,
	)
	if err != nil {
		return nil, err
	}

	if len(sizesJSON) > 0 {
		if err := json.Unmarshal(sizesJSON, &p.SizesKg); err != nil {
			return nil, fmt.Errorf("parsing sizes for product %d: %w", p.ID, err)
		}
	}
	return &p, nil
}

func scanProducts(rows pgx.Rows) ([]product.Product, error) {
	var out []product.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
