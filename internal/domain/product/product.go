package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product is a catalog item. Stock is denominated in kilograms and may be
// fractional (honey jars come in 0.5 kg steps). Price is per kilogram.
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       decimal.Decimal
	SizesKg     []decimal.Decimal
	ImageURL    string
	Display     Display
}

// Display holds presentation metadata consumed by the storefront UI.
type Display struct {
	BgColor    string
	BtnColor   string
	HoneyColor string
	ModelPath  string
}

// OffersSize reports whether the product is sold in the given unit size.
// Products without an explicit size list are sold in 1 kg units only.
func (p *Product) OffersSize(sizeKg decimal.Decimal) bool {
	if len(p.SizesKg) == 0 {
		return sizeKg.Equal(decimal.NewFromInt(1))
	}
	for _, s := range p.SizesKg {
		if s.Equal(sizeKg) {
			return true
		}
	}
	return false
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	GetByIDs(ctx context.Context, ids []int64) ([]Product, error)
}

// Inventory is the stock mutation contract. Stock counters must only ever
// change through these two operations; an unconditional overwrite would
// reintroduce the lost-update race between concurrent checkouts.
type Inventory interface {
	// ConditionalDecrement atomically subtracts amount from the product's
	// stock if and only if stock >= amount. When the guard fails it returns
	// ok=false together with the stock that was available at that moment,
	// without mutating anything.
	ConditionalDecrement(ctx context.Context, id int64, amount decimal.Decimal) (ok bool, available decimal.Decimal, err error)

	// Increment adds amount back to the product's stock. It is used only to
	// compensate a reservation that could not be committed.
	Increment(ctx context.Context, id int64, amount decimal.Decimal) error
}
