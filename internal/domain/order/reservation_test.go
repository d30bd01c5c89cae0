package order

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReservation_ReleaseIsIdempotent(t *testing.T) {
	p1 := newTestProduct(1, "Miele Millefiori", "14.50", "10", "0.5", "1")
	inv := newInventory(p1)

	res := newReservation(inv, zap.NewNop())
	shortages, err := res.acquire(context.Background(),
		[]int64{1}, map[int64]decimal.Decimal{1: d("2")})
	require.NoError(t, err)
	require.Empty(t, shortages)
	require.True(t, d("8").Equal(inv.stockOf(1)))

	res.release()
	res.release()

	// A second release must not double-credit stock.
	assert.Equal(t, 1, inv.increments)
	assert.True(t, d("10").Equal(inv.stockOf(1)), "stock was %s", inv.stockOf(1))
}

func TestReservation_AcquireAbortsOnInfrastructureError(t *testing.T) {
	inv := newInventory()
	inv.decErr = assert.AnError

	res := newReservation(inv, zap.NewNop())
	_, err := res.acquire(context.Background(),
		[]int64{1, 2}, map[int64]decimal.Decimal{1: d("1"), 2: d("1")})
	require.Error(t, err)

	res.release()
	assert.Zero(t, inv.increments)
}
