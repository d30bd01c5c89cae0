package order

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mielpino/storefront/internal/domain/product"
)

// incrementAttempts bounds the compensation retry loop. Stock must not be
// silently lost, so exhausting the budget is logged at error level for
// manual reconciliation.
const incrementAttempts = 5

// reservation tracks the conditional decrements applied for one submission
// so they can be compensated exactly once if the submission cannot commit.
type reservation struct {
	inventory product.Inventory
	lg        *zap.Logger

	mu       sync.Mutex
	applied  []appliedDecrement
	released bool
}

type appliedDecrement struct {
	productID int64
	amount    decimal.Decimal
}

func newReservation(inv product.Inventory, lg *zap.Logger) *reservation {
	return &reservation{inventory: inv, lg: lg}
}

// acquire attempts a conditional decrement for every product in ids.
// Distinct products do not contend, so the decrements run in parallel. Every
// product with insufficient stock is collected into shortages; an
// infrastructure error aborts the whole attempt. Either way the caller must
// release() on any non-commit path.
func (r *reservation) acquire(ctx context.Context, ids []int64, demand map[int64]decimal.Decimal) ([]Shortage, error) {
	shortages := make([]*Shortage, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		amount := demand[id]
		g.Go(func() error {
			ok, available, err := r.inventory.ConditionalDecrement(gctx, id, amount)
			if err != nil {
				return err
			}
			if !ok {
				shortages[i] = &Shortage{ProductID: id, Required: amount, Available: available}
				return nil
			}
			r.record(id, amount)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Shortage, 0, len(ids))
	for _, s := range shortages {
		if s != nil {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *reservation) record(productID int64, amount decimal.Decimal) {
	r.mu.Lock()
	r.applied = append(r.applied, appliedDecrement{productID: productID, amount: amount})
	r.mu.Unlock()
}

// release compensates every applied decrement. It is idempotent: a second
// call is a no-op, so a failed submission can never double-credit stock.
// Compensation runs on a fresh context because the request's context may
// already be cancelled, and losing the increment would lose stock for good.
func (r *reservation) release() {
	r.mu.Lock()
	if r.released {
		r.mu.Unlock()
		return
	}
	r.released = true
	applied := r.applied
	r.mu.Unlock()

	for _, a := range applied {
		r.increment(a.productID, a.amount)
	}
}

// increment retries the compensating increment with backoff until it
// succeeds or the attempt budget runs out.
func (r *reservation) increment(productID int64, amount decimal.Decimal) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	backoff := 50 * time.Millisecond
	var err error
	for attempt := 1; attempt <= incrementAttempts; attempt++ {
		if err = r.inventory.Increment(ctx, productID, amount); err == nil {
			return
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			attempt = incrementAttempts
		case <-time.After(backoff):
			backoff *= 2
		}
	}

	r.lg.Error("stock compensation failed, manual reconciliation required",
		zap.Int64("product_id", productID),
		zap.String("amount_kg", amount.String()),
		zap.Error(err),
	)
}
