package purchasing

import (
	"context"
	"time"
)

// OrderStatusChangedEvent describes a completed lifecycle transition.
// The engine emits these for external collaborators (chat delivery,
// dashboards); it never renders notifications itself.
type OrderStatusChangedEvent struct {
	OrderID    int64
	Number     string
	From       OrderStatus
	To         OrderStatus
	Action     Action
	Reason     string
	TotalItems int
	TotalCost  string
	OccurredAt time.Time
}

// OrderDeletedEvent describes a removed order.
type OrderDeletedEvent struct {
	OrderID    int64
	Number     string
	Status     OrderStatus
	OccurredAt time.Time
}

// NotifierPort receives purchasing domain events. Implementations run
// best-effort; a failed notification never rolls back a transition.
type NotifierPort interface {
	HandleOrderStatusChanged(ctx context.Context, evt OrderStatusChangedEvent) error
	HandleOrderDeleted(ctx context.Context, evt OrderDeletedEvent) error
}
