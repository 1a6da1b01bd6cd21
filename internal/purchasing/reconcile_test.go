package purchasing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fixbench-erp/fixbench/internal/catalog"
)

func testItem(id int64, sku string, qty, minStock, reorder int) catalog.Item {
	return catalog.Item{
		ID:            id,
		SKU:           sku,
		Name:          "Item " + sku,
		Category:      "parts",
		LocationID:    1,
		Quantity:      qty,
		MinStock:      minStock,
		ReorderQty:    reorder,
		PurchasePrice: decimal.NewFromFloat(12.50),
	}
}

func TestDerivePriorityLadder(t *testing.T) {
	cases := []struct {
		name     string
		qty      int
		minStock int
		want     Priority
	}{
		{"zero stock is urgent", 0, 5, PriorityUrgent},
		{"at min level is high", 5, 5, PriorityHigh},
		{"below min level is high", 3, 5, PriorityHigh},
		{"within five above min is normal", 8, 5, PriorityNormal},
		{"exactly min plus five is normal", 10, 5, PriorityNormal},
		{"above min plus five is low", 11, 5, PriorityLow},
		{"zero min level nonzero stock", 2, 0, PriorityNormal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, DerivePriority(tc.qty, tc.minStock))
		})
	}
}

func TestSuggestedQty(t *testing.T) {
	// quantity=0, min=5, reorder=20 -> max(20, 5-0+10) = 20
	require.Equal(t, 20, SuggestedQty(testItem(1, "A1", 0, 5, 20)))
	// deficit formula wins when reorder is small
	require.Equal(t, 25, SuggestedQty(testItem(2, "A2", 0, 15, 3)))
	// floor at 1 when thresholds suggest nothing
	require.Equal(t, 1, SuggestedQty(catalog.Item{ID: 3, Quantity: 100, MinStock: 0, ReorderQty: 0}))
}

func TestReconcileDefaultsForCatalogItems(t *testing.T) {
	items := []catalog.Item{
		testItem(1, "A1", 0, 5, 20),
		testItem(2, "B2", 50, 5, 10),
	}
	pool := Reconcile(items, nil)
	require.Len(t, pool, 2)

	a1 := pool[0]
	require.Equal(t, "item:1", a1.Key)
	require.Equal(t, SourceCatalog, a1.Source)
	require.False(t, a1.Included)
	require.Equal(t, 20, a1.SuggestedQty)
	require.Equal(t, 20, a1.Qty)
	require.Equal(t, PriorityUrgent, a1.Priority)
	require.True(t, a1.UnitPrice.Equal(decimal.NewFromFloat(12.50)))

	require.Equal(t, PriorityLow, pool[1].Priority)
}

func TestReconcileRefreshesLiveFieldsKeepsUserIntent(t *testing.T) {
	items := []catalog.Item{testItem(1, "A1-renamed", 7, 5, 20)}
	persisted := []Candidate{{
		Key:           "item:1",
		ItemID:        1,
		Name:          "old name",
		SKU:           "A1",
		StockSnapshot: 0,
		Qty:           42,
		UnitPrice:     decimal.NewFromInt(99),
		Priority:      PriorityUrgent,
	}}
	pool := Reconcile(items, persisted)
	require.Len(t, pool, 1)
	c := pool[0]
	require.True(t, c.Included)
	require.Equal(t, SourceCatalog, c.Source)
	// descriptive and stock fields refresh to the live catalog
	require.Equal(t, "Item A1-renamed", c.Name)
	require.Equal(t, "A1-renamed", c.SKU)
	require.Equal(t, 7, c.StockSnapshot)
	// user intent is preserved
	require.Equal(t, 42, c.Qty)
	require.True(t, c.UnitPrice.Equal(decimal.NewFromInt(99)))
	require.Equal(t, PriorityUrgent, c.Priority)
}

func TestReconcileSynthesizesSnapshotOnlyCandidate(t *testing.T) {
	persisted := []Candidate{{
		Key:       "item:9",
		ItemID:    9,
		Name:      "discontinued fan",
		SKU:       "X",
		Qty:       3,
		UnitPrice: decimal.NewFromInt(4),
		Priority:  PriorityHigh,
	}}
	pool := Reconcile(nil, persisted)
	require.Len(t, pool, 1)
	c := pool[0]
	require.Equal(t, SourceSnapshot, c.Source)
	require.True(t, c.Included)
	require.Equal(t, "discontinued fan", c.Name)
	require.Equal(t, 3, c.Qty)
}

func TestReconcileOrderingIsStable(t *testing.T) {
	items := []catalog.Item{
		testItem(1, "A", 10, 2, 5),
		testItem(2, "B", 10, 2, 5),
		testItem(3, "C", 10, 2, 5),
	}
	persisted := []Candidate{
		{Key: "item:3", ItemID: 3, Qty: 1},
		{Key: "item:1", ItemID: 1, Qty: 1},
	}
	first := Reconcile(items, persisted)
	second := Reconcile(items, persisted)
	require.Equal(t, first, second)

	// persisted lines first in stored order, then remaining catalog scan order
	keys := make([]string, 0, len(first))
	for _, c := range first {
		keys = append(keys, c.Key)
	}
	require.Equal(t, []string{"item:3", "item:1", "item:2"}, keys)
}

func TestReconcileClampsPersistedValues(t *testing.T) {
	persisted := []Candidate{{
		Key:       "adhoc:x",
		Qty:       0,
		UnitPrice: decimal.NewFromInt(-5),
	}}
	pool := Reconcile(nil, persisted)
	require.Equal(t, 1, pool[0].Qty)
	require.True(t, pool[0].UnitPrice.Equal(decimal.Zero))
}
