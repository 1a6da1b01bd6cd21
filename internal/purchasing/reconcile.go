package purchasing

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fixbench-erp/fixbench/internal/catalog"
)

// Reconcile merges the live catalog with a previously persisted order
// into the candidate pool. Persisted lines come first in their stored
// order, then every catalog item they do not reference, in scan order.
// The result is stable across repeated calls for identical inputs.
//
// A persisted line whose catalog item no longer exists never fails:
// it is synthesized entirely from the persisted record so historical
// orders stay viewable after catalog drift.
func Reconcile(items []catalog.Item, persisted []Candidate) []Candidate {
	byID := make(map[int64]catalog.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	pool := make([]Candidate, 0, len(persisted)+len(items))
	referenced := make(map[int64]struct{}, len(persisted))

	for _, line := range persisted {
		if live, ok := byID[line.ItemID]; line.ItemID != 0 && ok {
			referenced[line.ItemID] = struct{}{}
			// Descriptive and stock fields refresh to current truth;
			// quantity, price and priority keep the user's intent.
			pool = append(pool, Candidate{
				Key:           CatalogKey(live.ID),
				ItemID:        live.ID,
				Source:        SourceCatalog,
				Name:          live.Name,
				SKU:           live.SKU,
				Category:      live.Category,
				StockSnapshot: live.Quantity,
				MinStockLevel: live.MinStock,
				SuggestedQty:  SuggestedQty(live),
				Qty:           clampQty(line.Qty),
				UnitPrice:     clampPrice(line.UnitPrice),
				Priority:      line.Priority,
				Included:      true,
			})
			continue
		}
		snap := line
		snap.Source = SourceSnapshot
		snap.Included = true
		snap.Qty = clampQty(snap.Qty)
		snap.UnitPrice = clampPrice(snap.UnitPrice)
		if snap.Key == "" {
			snap.Key = AdhocKey()
		}
		pool = append(pool, snap)
	}

	for _, it := range items {
		if _, ok := referenced[it.ID]; ok {
			continue
		}
		suggested := SuggestedQty(it)
		pool = append(pool, Candidate{
			Key:           CatalogKey(it.ID),
			ItemID:        it.ID,
			Source:        SourceCatalog,
			Name:          it.Name,
			SKU:           it.SKU,
			Category:      it.Category,
			StockSnapshot: it.Quantity,
			MinStockLevel: it.MinStock,
			SuggestedQty:  suggested,
			Qty:           suggested,
			UnitPrice:     clampPrice(it.PurchasePrice),
			Priority:      DerivePriority(it.Quantity, it.MinStock),
			Included:      false,
		})
	}
	return pool
}

// SuggestedQty derives the default order quantity from stock thresholds:
// max(reorder quantity, min level - on hand + 10), floored at 1.
func SuggestedQty(it catalog.Item) int {
	qty := it.MinStock - it.Quantity + 10
	if it.ReorderQty > qty {
		qty = it.ReorderQty
	}
	if qty < 1 {
		qty = 1
	}
	return qty
}

// DerivePriority maps the stock position to a restock priority.
func DerivePriority(quantity, minStock int) Priority {
	switch {
	case quantity == 0:
		return PriorityUrgent
	case quantity <= minStock:
		return PriorityHigh
	case quantity <= minStock+5:
		return PriorityNormal
	default:
		return PriorityLow
	}
}

// CatalogKey is the stable pool key for a catalog-backed candidate.
func CatalogKey(itemID int64) string {
	return fmt.Sprintf("item:%d", itemID)
}

// AdhocKey mints a pool key for a candidate with no catalog reference.
func AdhocKey() string {
	return "adhoc:" + uuid.NewString()
}

func clampQty(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func clampPrice(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	return p
}
