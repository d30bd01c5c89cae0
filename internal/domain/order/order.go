package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the order lifecycle state. Orders are created as StatusPending;
// later transitions are made by fulfillment tooling, never by this service.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// CartLine is a single line of a submitted cart: quantity counts units of
// SizeKg kilograms each. The stock consumed by the line is Quantity * SizeKg.
type CartLine struct {
	ProductID int64
	Quantity  int
	SizeKg    decimal.Decimal
}

// StockRequired returns the kilograms of stock this line consumes.
func (l CartLine) StockRequired() decimal.Decimal {
	return l.SizeKg.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CheckoutInfo is the contact and delivery snapshot captured at checkout.
// It is immutable once the order exists.
type CheckoutInfo struct {
	Email      string
	FirstName  string
	LastName   string
	Address    string
	City       string
	PostalCode string
	Phone      string
}

// Order is a committed customer order.
type Order struct {
	ID        string
	Status    Status
	Total     decimal.Decimal
	Checkout  CheckoutInfo
	Items     []Item
	CreatedAt time.Time
}

// Item is an order line with the unit price frozen at purchase time, so later
// catalog price changes do not rewrite history.
type Item struct {
	ProductID       int64
	Quantity        int
	SizeKg          decimal.Decimal
	PriceAtPurchase decimal.Decimal
}

// LineTotal returns PriceAtPurchase * Quantity * SizeKg.
func (it Item) LineTotal() decimal.Decimal {
	return it.PriceAtPurchase.
		Mul(decimal.NewFromInt(int64(it.Quantity))).
		Mul(it.SizeKg)
}

// Ledger is the durable order record contract. InsertWithItems must be
// atomic: after it returns, either the order and every item are visible or
// nothing is.
type Ledger interface {
	InsertWithItems(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)

	// CountPendingBefore returns how many pending orders were created
	// strictly before ts. It feeds the advisory queue position.
	CountPendingBefore(ctx context.Context, ts time.Time) (int, error)
}
