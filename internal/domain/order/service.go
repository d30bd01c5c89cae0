package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mielpino/storefront/internal/domain/product"
	"github.com/mielpino/storefront/internal/event"
)

// Service is the reservation coordinator: it turns a submitted cart into a
// committed order while guaranteeing stock is never oversold. Stock is only
// ever touched through the Inventory contract's conditional decrement, and
// every partial reservation is compensated before an error reaches the
// caller.
type Service struct {
	products  product.Repository
	inventory product.Inventory
	ledger    Ledger
	events    event.Publisher
	lg        *zap.Logger
	now       func() time.Time
}

// NewService creates the coordinator with its storage and notification
// dependencies.
func NewService(
	products product.Repository,
	inventory product.Inventory,
	ledger Ledger,
	events event.Publisher,
	lg *zap.Logger,
) *Service {
	return &Service{
		products:  products,
		inventory: inventory,
		ledger:    ledger,
		events:    events,
		lg:        lg,
		now:       time.Now,
	}
}

// SubmitRequest is a proposed checkout. Lines are untrusted client state:
// quantities and sizes are validated and prices are ignored in favour of the
// catalog's current prices.
type SubmitRequest struct {
	Lines    []CartLine
	Checkout CheckoutInfo
}

// SubmitOrder reserves stock for every cart line, commits the order in
// pending state, and returns it. On any failure after stock was decremented,
// the decrements are rolled back before the error is returned.
func (s *Service) SubmitOrder(ctx context.Context, req SubmitRequest) (*Order, error) {
	if err := validateLines(req.Lines); err != nil {
		return nil, err
	}

	byID, distinct, err := s.fetchProducts(ctx, req.Lines)
	if err != nil {
		return nil, err
	}

	for _, line := range req.Lines {
		p := byID[line.ProductID]
		if !p.OffersSize(line.SizeKg) {
			return nil, &SizeNotOfferedError{ProductID: line.ProductID, SizeKg: line.SizeKg}
		}
	}

	// Aggregate demand per product so a cart holding the same product in two
	// sizes issues a single decrement.
	demand := make(map[int64]decimal.Decimal, len(distinct))
	for _, line := range req.Lines {
		demand[line.ProductID] = demand[line.ProductID].Add(line.StockRequired())
	}

	res := newReservation(s.inventory, s.lg)
	shortages, err := res.acquire(ctx, distinct, demand)
	if err != nil {
		res.release()
		return nil, errors.Wrap(err, "reserve stock")
	}
	if len(shortages) > 0 {
		res.release()
		return nil, &InsufficientStockError{Shortages: shortages}
	}

	o := s.buildOrder(req, byID)
	if err := s.ledger.InsertWithItems(ctx, o); err != nil {
		res.release()
		s.lg.Error("ledger write failed, reservations released",
			zap.String("order_id", o.ID),
			zap.Error(err),
		)
		return nil, errors.Wrapf(ErrLedgerWrite, "insert order %s: %v", o.ID, err)
	}

	// Post-commit side effects are advisory: a failed publish must never
	// unwind a durably recorded order.
	if err := s.events.PublishOrderCommitted(ctx, event.OrderCommitted{
		OrderID:     o.ID,
		Email:       o.Checkout.Email,
		Total:       o.Total.String(),
		ItemCount:   len(o.Items),
		CommittedAt: o.CreatedAt,
	}); err != nil {
		s.lg.Warn("order committed but notification failed",
			zap.String("order_id", o.ID),
			zap.Error(err),
		)
	}

	return o, nil
}

func validateLines(lines []CartLine) error {
	if len(lines) == 0 {
		return ErrEmptyCart
	}
	for _, l := range lines {
		if l.Quantity <= 0 {
			return errors.Wrapf(ErrInvalidQuantity, "product %d", l.ProductID)
		}
		if !l.SizeKg.IsPositive() {
			return errors.Wrapf(ErrInvalidSize, "product %d", l.ProductID)
		}
	}
	return nil
}

// fetchProducts batch-loads every referenced product and verifies all exist.
// distinct preserves first-reference order so reservation attempts and error
// reports are deterministic.
func (s *Service) fetchProducts(ctx context.Context, lines []CartLine) (map[int64]*product.Product, []int64, error) {
	distinct := make([]int64, 0, len(lines))
	seen := make(map[int64]bool, len(lines))
	for _, l := range lines {
		if !seen[l.ProductID] {
			seen[l.ProductID] = true
			distinct = append(distinct, l.ProductID)
		}
	}

	fetched, err := s.products.GetByIDs(ctx, distinct)
	if err != nil {
		return nil, nil, errors.Wrap(err, "get products")
	}

	byID := make(map[int64]*product.Product, len(fetched))
	for i := range fetched {
		byID[fetched[i].ID] = &fetched[i]
	}
	for _, id := range distinct {
		if _, ok := byID[id]; !ok {
			return nil, nil, &ProductNotFoundError{ProductID: id}
		}
	}
	return byID, distinct, nil
}

func (s *Service) buildOrder(req SubmitRequest, byID map[int64]*product.Product) *Order {
	items := make([]Item, len(req.Lines))
	total := decimal.Zero
	for i, line := range req.Lines {
		items[i] = Item{
			ProductID:       line.ProductID,
			Quantity:        line.Quantity,
			SizeKg:          line.SizeKg,
			PriceAtPurchase: byID[line.ProductID].Price,
		}
		total = total.Add(items[i].LineTotal())
	}

	return &Order{
		ID:        uuid.New().String(),
		Status:    StatusPending,
		Total:     total.Round(2),
		Checkout:  req.Checkout,
		Items:     items,
		CreatedAt: s.now().UTC(),
	}
}

// QueuePosition answers "how many pending orders precede this one", plus one.
// The value is advisory UI information: any read error degrades to the
// conservative default of 1 instead of failing the request.
func (s *Service) QueuePosition(ctx context.Context, orderID string) int {
	o, err := s.ledger.GetByID(ctx, orderID)
	if err != nil {
		s.lg.Debug("queue position lookup failed", zap.String("order_id", orderID), zap.Error(err))
		return 1
	}

	ahead, err := s.ledger.CountPendingBefore(ctx, o.CreatedAt)
	if err != nil {
		s.lg.Debug("queue position count failed", zap.String("order_id", orderID), zap.Error(err))
		return 1
	}
	return ahead + 1
}

// GetOrder returns a committed order with its items, for receipts and order
// status pages.
func (s *Service) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	return s.ledger.GetByID(ctx, orderID)
}
