package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/fixbench-erp/fixbench/internal/purchasing"
)

// Notifier bridges purchasing domain events onto the job queue. The
// engine treats delivery as an external collaborator: enqueue failures
// are logged, never propagated back into the transition.
type Notifier struct {
	client *Client
	logger *slog.Logger
}

// NewNotifier constructs the queue-backed notifier.
func NewNotifier(client *Client, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{client: client, logger: logger}
}

// HandleOrderStatusChanged enqueues a notification task.
func (n *Notifier) HandleOrderStatusChanged(ctx context.Context, evt purchasing.OrderStatusChangedEvent) error {
	task, err := NewOrderNotifyTask(OrderNotifyPayload{
		OrderID:    evt.OrderID,
		Number:     evt.Number,
		From:       string(evt.From),
		To:         string(evt.To),
		Action:     string(evt.Action),
		Reason:     evt.Reason,
		TotalItems: evt.TotalItems,
		TotalCost:  evt.TotalCost,
		OccurredAt: evt.OccurredAt,
	})
	if err != nil {
		return err
	}
	if _, err := n.client.Enqueue(ctx, task); err != nil {
		n.logger.Warn("enqueue order notification", slog.Any("error", err), slog.Int64("order_id", evt.OrderID))
	}
	return nil
}

// HandleOrderDeleted enqueues a deletion notice.
func (n *Notifier) HandleOrderDeleted(ctx context.Context, evt purchasing.OrderDeletedEvent) error {
	task, err := NewOrderNotifyTask(OrderNotifyPayload{
		OrderID:    evt.OrderID,
		Number:     evt.Number,
		From:       string(evt.Status),
		Action:     "delete",
		OccurredAt: evt.OccurredAt,
	})
	if err != nil {
		return err
	}
	if _, err := n.client.Enqueue(ctx, task); err != nil {
		n.logger.Warn("enqueue order deletion notice", slog.Any("error", err), slog.Int64("order_id", evt.OrderID))
	}
	return nil
}

// NewOrderNotifyHandler returns the worker-side handler. Delivery to
// chat integrations is a separate collaborator; the handler logs the
// event so operators can tail worker output.
func NewOrderNotifyHandler(logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload OrderNotifyPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		logger.Info("purchase order notification",
			slog.Int64("order_id", payload.OrderID),
			slog.String("number", payload.Number),
			slog.String("action", payload.Action),
			slog.String("from", payload.From),
			slog.String("to", payload.To),
			slog.String("total_cost", payload.TotalCost),
		)
		return nil
	}
}
