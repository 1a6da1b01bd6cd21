package purchasing

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fixbench-erp/fixbench/internal/shared"
)

// Priority ranks how badly a line item needs restocking.
type Priority string

const (
	PriorityUrgent Priority = "URGENT"
	PriorityHigh   Priority = "HIGH"
	PriorityNormal Priority = "NORMAL"
	PriorityLow    Priority = "LOW"
)

// ValidPriority reports whether p is one of the known priorities.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityUrgent, PriorityHigh, PriorityNormal, PriorityLow:
		return true
	}
	return false
}

// OrderStatus is the purchase order lifecycle status.
type OrderStatus string

const (
	StatusDraft     OrderStatus = "DRAFT"
	StatusSubmitted OrderStatus = "SUBMITTED"
	StatusApproved  OrderStatus = "APPROVED"
	StatusReceived  OrderStatus = "RECEIVED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// Action identifies a lifecycle transition request.
type Action string

const (
	ActionSubmit  Action = "submit"
	ActionApprove Action = "approve"
	ActionReceive Action = "receive"
	ActionCancel  Action = "cancel"
	ActionReopen  Action = "reopen"
)

// transitions is the status machine as data: source status -> action -> destination.
// RECEIVED has no outgoing edges on purpose.
var transitions = map[OrderStatus]map[Action]OrderStatus{
	StatusDraft: {
		ActionSubmit: StatusSubmitted,
		ActionCancel: StatusCancelled,
	},
	StatusSubmitted: {
		ActionApprove: StatusApproved,
		ActionCancel:  StatusCancelled,
	},
	StatusApproved: {
		ActionReceive: StatusReceived,
		ActionCancel:  StatusCancelled,
	},
	StatusCancelled: {
		ActionReopen: StatusDraft,
	},
}

// NextStatus resolves the destination of an action from the given status.
// The second return value is false when no edge exists.
func NextStatus(from OrderStatus, action Action) (OrderStatus, bool) {
	edges, ok := transitions[from]
	if !ok {
		return "", false
	}
	to, ok := edges[action]
	return to, ok
}

// CandidateSource tags the provenance of a line item candidate.
type CandidateSource string

const (
	// SourceCatalog marks a candidate backed by a live inventory item.
	SourceCatalog CandidateSource = "CATALOG"
	// SourceSnapshot marks a candidate reconstructed purely from the
	// persisted order record, e.g. after the catalog item was deleted.
	SourceSnapshot CandidateSource = "SNAPSHOT"
)

// Candidate is one row of the reconciled order pool.
type Candidate struct {
	Key           string          `json:"key"`
	ItemID        int64           `json:"item_id,omitempty"`
	Source        CandidateSource `json:"source"`
	Name          string          `json:"name"`
	SKU           string          `json:"sku"`
	Category      string          `json:"category"`
	StockSnapshot int             `json:"stock_snapshot"`
	MinStockLevel int             `json:"min_stock_level"`
	SuggestedQty  int             `json:"suggested_qty"`
	Qty           int             `json:"qty"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Priority      Priority        `json:"priority"`
	Included      bool            `json:"included"`
}

// LineCost returns qty x unit price for this candidate.
func (c Candidate) LineCost() decimal.Decimal {
	return c.UnitPrice.Mul(decimal.NewFromInt(int64(c.Qty)))
}

// PurchaseOrder is the order header.
type PurchaseOrder struct {
	ID           int64           `json:"id"`
	Number       string          `json:"number"`
	Status       OrderStatus     `json:"status"`
	LocationID   int64           `json:"location_id"`
	SupplierID   int64           `json:"supplier_id,omitempty"`
	Priority     Priority        `json:"priority"`
	ExpectedDate time.Time       `json:"expected_date,omitempty"`
	Notes        string          `json:"notes,omitempty"`
	TotalItems   int             `json:"total_items"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Aggregate is the derived projection over the included candidates.
type Aggregate struct {
	SelectedCount   int             `json:"selected_count"`
	TotalCost       decimal.Decimal `json:"total_cost"`
	UrgentCount     int             `json:"urgent_count"`
	OutOfStockCount int             `json:"out_of_stock_count"`
}

var (
	// ErrInvalidTransition occurs when an action has no edge from the current status.
	ErrInvalidTransition = errors.New("purchasing: invalid state transition")
	// ErrNotFound indicates a missing order or session.
	ErrNotFound = fmt.Errorf("purchasing: %w", shared.ErrNotFound)
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("purchasing: invalid input")
)
