package catalog

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fixbench-erp/fixbench/internal/shared"
)

// Scope selects which slice of the catalog a query returns.
type Scope string

const (
	// ScopeAll returns every item for the location.
	ScopeAll Scope = "all"
	// ScopeLowStock returns items at or below their minimum stock level.
	ScopeLowStock Scope = "low-stock"
)

// Item is a catalog inventory item. Stock fields are owned by this
// package; the purchasing engine reads them as a snapshot.
type Item struct {
	ID            int64           `json:"id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	LocationID    int64           `json:"location_id"`
	Quantity      int             `json:"quantity"`
	MinStock      int             `json:"min_stock_level"`
	ReorderQty    int             `json:"reorder_quantity"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// LowStock reports whether the item sits at or below its minimum level.
func (i Item) LowStock() bool {
	return i.Quantity <= i.MinStock
}

var (
	// ErrNotFound indicates the item does not exist.
	ErrNotFound = fmt.Errorf("catalog: %w", shared.ErrNotFound)
	// ErrDuplicateSKU indicates a SKU collision within a location.
	ErrDuplicateSKU = fmt.Errorf("catalog: duplicate sku: %w", shared.ErrConflict)
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("catalog: invalid input")
)
