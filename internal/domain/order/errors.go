package order

import (
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = errors.New("order not found")

// Sentinel errors for cart validation.
var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
	ErrInvalidSize     = errors.New("size must be greater than 0")

	// ErrLedgerWrite means stock was reserved but the order record could not
	// be written. All reservations have been rolled back; the submission is
	// safe to retry.
	ErrLedgerWrite = errors.New("order could not be recorded")
)

// ProductNotFoundError indicates a cart line references an unknown product.
type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

// SizeNotOfferedError indicates a cart line asks for a unit size the product
// is not sold in.
type SizeNotOfferedError struct {
	ProductID int64
	SizeKg    decimal.Decimal
}

func (e *SizeNotOfferedError) Error() string {
	return fmt.Sprintf("product %d is not sold in %s kg units", e.ProductID, e.SizeKg)
}

// Shortage describes one product that could not be reserved.
type Shortage struct {
	ProductID int64
	Required  decimal.Decimal
	Available decimal.Decimal
}

// InsufficientStockError reports every product whose reservation failed, not
// just the first, so the customer can fix the whole cart in one pass. By the
// time the caller sees this error all partial reservations have been
// released.
type InsufficientStockError struct {
	Shortages []Shortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, len(e.Shortages))
	for i, s := range e.Shortages {
		parts[i] = fmt.Sprintf("product %d: need %s kg, have %s kg", s.ProductID, s.Required, s.Available)
	}
	return "insufficient stock: " + strings.Join(parts, "; ")
}
