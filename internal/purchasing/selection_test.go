package purchasing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func testPool() []Candidate {
	return []Candidate{
		{Key: "item:1", ItemID: 1, Name: "Thermal paste", SKU: "TP-01", Category: "consumables", Qty: 5, UnitPrice: decimal.NewFromInt(2), Priority: PriorityUrgent, StockSnapshot: 0},
		{Key: "item:2", ItemID: 2, Name: "SSD 1TB", SKU: "SSD-1T", Category: "storage", Qty: 2, UnitPrice: decimal.NewFromInt(80), Priority: PriorityHigh, StockSnapshot: 1},
		{Key: "item:3", ItemID: 3, Name: "HDD 2TB", SKU: "HDD-2T", Category: "storage", Qty: 1, UnitPrice: decimal.NewFromInt(50), Priority: PriorityLow, StockSnapshot: 9},
	}
}

func TestSetIncludedRestoresLastEdits(t *testing.T) {
	s := NewSelectionStore(testPool())
	s.SetIncluded("item:1", true)
	s.SetQuantity("item:1", 7)
	s.SetPrice("item:1", decimal.NewFromInt(3))
	s.SetPriority("item:1", PriorityLow)

	s.SetIncluded("item:1", false)
	require.Equal(t, 0, s.Aggregate().SelectedCount)

	s.SetIncluded("item:1", true)
	visible := s.Visible()
	require.Equal(t, 7, visible[0].Qty)
	require.True(t, visible[0].UnitPrice.Equal(decimal.NewFromInt(3)))
	require.Equal(t, PriorityLow, visible[0].Priority)
}

func TestMutationClampsAndUnknownKeys(t *testing.T) {
	s := NewSelectionStore(testPool())
	s.SetQuantity("item:1", 0)
	require.Equal(t, 1, s.Visible()[0].Qty)
	s.SetQuantity("item:1", -10)
	require.Equal(t, 1, s.Visible()[0].Qty)
	s.SetPrice("item:1", decimal.NewFromInt(-1))
	require.True(t, s.Visible()[0].UnitPrice.Equal(decimal.Zero))

	before := s.Pool()
	s.SetQuantity("item:404", 9)
	s.SetPrice("item:404", decimal.NewFromInt(9))
	s.SetIncluded("item:404", true)
	require.Equal(t, before, s.Pool())
}

func TestFilterIsPureProjection(t *testing.T) {
	s := NewSelectionStore(testPool())
	s.SetIncluded("item:2", true)

	s.SetFilter(Filter{Search: "ssd"})
	visible := s.Visible()
	require.Len(t, visible, 1)
	require.Equal(t, "item:2", visible[0].Key)

	// match is case-insensitive across name, sku and category
	s.SetFilter(Filter{Search: "STORAGE"})
	require.Len(t, s.Visible(), 2)

	s.SetFilter(Filter{Priority: "urgent"})
	require.Len(t, s.Visible(), 1)

	// toggling the filter back never loses canonical edits
	s.SetFilter(Filter{})
	require.Len(t, s.Visible(), 3)
	require.Equal(t, 1, s.Aggregate().SelectedCount)
}

func TestSelectAllIsFilterScoped(t *testing.T) {
	s := NewSelectionStore(testPool())
	s.SetFilter(Filter{Search: "storage"})
	s.SelectAll(true)

	s.SetFilter(Filter{})
	pool := s.Pool()
	require.False(t, pool[0].Included)
	require.True(t, pool[1].Included)
	require.True(t, pool[2].Included)
	require.Equal(t, 2, s.Aggregate().SelectedCount)

	// idempotent: applying again yields the same state
	s.SetFilter(Filter{Search: "storage"})
	s.SelectAll(true)
	s.SetFilter(Filter{})
	require.Equal(t, pool, s.Pool())

	// deselect is equally filter-scoped
	s.SetFilter(Filter{Search: "ssd"})
	s.SelectAll(false)
	s.SetFilter(Filter{})
	require.Equal(t, 1, s.Aggregate().SelectedCount)
}

func TestAggregateUntouchedByFilterChanges(t *testing.T) {
	s := NewSelectionStore(testPool())
	s.SetIncluded("item:1", true)
	want := s.Aggregate()

	s.SetFilter(Filter{Search: "nothing matches this"})
	require.Empty(t, s.Visible())
	require.Equal(t, want, s.Aggregate())
}

func TestAggregateCounts(t *testing.T) {
	s := NewSelectionStore(testPool())
	s.SetIncluded("item:1", true) // urgent, out of stock
	s.SetIncluded("item:2", true)

	agg := s.Aggregate()
	require.Equal(t, 2, agg.SelectedCount)
	require.Equal(t, 1, agg.UrgentCount)
	require.Equal(t, 1, agg.OutOfStockCount)
	// 5*2 + 2*80
	require.True(t, agg.TotalCost.Equal(decimal.NewFromInt(170)))
}
