package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mielpino/storefront/internal/domain/order"
)

var _ order.Ledger = (*OrderLedger)(nil)

// OrderLedger implements order.Ledger backed by PostgreSQL. Orders and their
// items are written in one transaction so the ledger never shows an order
// without its items.
type OrderLedger struct {
	pool *pgxpool.Pool
}

// NewOrderLedger returns an OrderLedger that uses the given pool.
func NewOrderLedger(pool *pgxpool.Pool) *OrderLedger {
	return &OrderLedger{pool: pool}
}

// InsertWithItems writes the order header and all items atomically.
func (l *OrderLedger) InsertWithItems(ctx context.Context, o *order.Order) error {
	tx, err := l.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin order transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, status, total, email, first_name, last_name,
			address, city, postal_code, phone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		o.ID, string(o.Status), o.Total,
		o.Checkout.Email, o.Checkout.FirstName, o.Checkout.LastName,
		o.Checkout.Address, o.Checkout.City, o.Checkout.PostalCode,
		o.Checkout.Phone, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting order %q: %w", o.ID, err)
	}

	for _, it := range o.Items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, size_kg, price_at_purchase)
			VALUES ($1, $2, $3, $4, $5)`,
			o.ID, it.ProductID, it.Quantity, it.SizeKg, it.PriceAtPurchase,
		)
		if err != nil {
			return fmt.Errorf("inserting item for order %q: %w", o.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing order %q: %w", o.ID, err)
	}
	return nil
}

// GetByID loads an order and its items, or order.ErrNotFound.
func (l *OrderLedger) GetByID(ctx context.Context, id string) (*order.Order, error) {
	var (
		o      order.Order
		status string
	)
	err := l.pool.QueryRow(ctx, `
		SELECT id, status, total, email, first_name, last_name,
			address, city, postal_code, phone, created_at
		FROM orders WHERE id = $1`, id).Scan(
		&o.ID, &status, &o.Total,
		&o.Checkout.Email, &o.Checkout.FirstName, &o.Checkout.LastName,
		&o.Checkout.Address, &o.Checkout.City, &o.Checkout.PostalCode,
		&o.Checkout.Phone, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	o.Status = order.Status(status)

	rows, err := l.pool.Query(ctx, `
		SELECT product_id, quantity, size_kg, price_at_purchase
		FROM order_items WHERE order_id = $1
		ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("getting items for order %q: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var it order.Item
		if err := rows.Scan(&it.ProductID, &it.Quantity, &it.SizeKg, &it.PriceAtPurchase); err != nil {
			return nil, fmt.Errorf("scanning item for order %q: %w", id, err)
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading items for order %q: %w", id, err)
	}

	return &o, nil
}

// CountPendingBefore counts pending orders created strictly before ts.
func (l *OrderLedger) CountPendingBefore(ctx context.Context, ts time.Time) (int, error) {
	var n int
	err := l.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM orders
		WHERE status = 'pending' AND created_at < $1`, ts).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting pending orders: %w", err)
	}
	return n, nil
}
