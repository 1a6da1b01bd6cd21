package purchasing

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestComputeAggregateEmptyPool(t *testing.T) {
	agg := computeAggregate(nil)
	require.Zero(t, agg.SelectedCount)
	require.Zero(t, agg.UrgentCount)
	require.Zero(t, agg.OutOfStockCount)
	require.True(t, agg.TotalCost.IsZero())
}

func TestComputeAggregateSkipsExcluded(t *testing.T) {
	pool := []Candidate{
		{Key: "item:1", Included: true, Qty: 3, UnitPrice: decimal.NewFromInt(10), Priority: PriorityUrgent},
		{Key: "item:2", Included: false, Qty: 100, UnitPrice: decimal.NewFromInt(999), Priority: PriorityUrgent, StockSnapshot: 0},
	}
	agg := computeAggregate(pool)
	require.Equal(t, 1, agg.SelectedCount)
	require.Equal(t, 1, agg.UrgentCount)
	require.True(t, agg.TotalCost.Equal(decimal.NewFromInt(30)))
}

// Total cost is exactly the sum of qty*price over the included lines,
// whatever the pool looks like.
func TestComputeAggregateTotalProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for run := 0; run < 50; run++ {
		n := rng.Intn(40)
		pool := make([]Candidate, 0, n)
		want := decimal.Zero
		selected := 0
		for i := 0; i < n; i++ {
			qty := 1 + rng.Intn(50)
			price := decimal.NewFromFloat(float64(rng.Intn(100000)) / 100)
			included := rng.Intn(2) == 0
			pool = append(pool, Candidate{
				Key:       fmt.Sprintf("item:%d", i+1),
				Included:  included,
				Qty:       qty,
				UnitPrice: price,
			})
			if included {
				selected++
				want = want.Add(price.Mul(decimal.NewFromInt(int64(qty))))
			}
		}
		agg := computeAggregate(pool)
		require.Equal(t, selected, agg.SelectedCount)
		require.Truef(t, agg.TotalCost.Equal(want), "run %d: got %s want %s", run, agg.TotalCost, want)
	}
}
