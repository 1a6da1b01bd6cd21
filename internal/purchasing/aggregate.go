package purchasing

import "github.com/shopspring/decimal"

// computeAggregate folds the canonical pool into derived totals. It is
// pure and runs in O(n) over the pool; callers cache the result and
// refresh it only after a mutating selection operation, never on
// filter changes.
func computeAggregate(pool []Candidate) Aggregate {
	agg := Aggregate{TotalCost: decimal.Zero}
	for _, c := range pool {
		if !c.Included {
			continue
		}
		agg.SelectedCount++
		agg.TotalCost = agg.TotalCost.Add(c.LineCost())
		if c.Priority == PriorityUrgent {
			agg.UrgentCount++
		}
		if c.StockSnapshot == 0 {
			agg.OutOfStockCount++
		}
	}
	return agg
}
