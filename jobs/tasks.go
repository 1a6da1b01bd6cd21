package jobs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskOrderNotify fans a purchase order status change out to
	// notification collaborators (chat delivery, dashboards).
	TaskOrderNotify = "purchasing:notify"
	// TaskLowStockScan walks the catalog flagging items at or below
	// their minimum stock level.
	TaskLowStockScan = "catalog:lowstock:scan"
)

// OrderNotifyPayload describes a completed order lifecycle transition.
type OrderNotifyPayload struct {
	OrderID    int64     `json:"order_id"`
	Number     string    `json:"number"`
	From       string    `json:"from,omitempty"`
	To         string    `json:"to,omitempty"`
	Action     string    `json:"action"`
	Reason     string    `json:"reason,omitempty"`
	TotalItems int       `json:"total_items"`
	TotalCost  string    `json:"total_cost"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewOrderNotifyTask constructs an Asynq task.
func NewOrderNotifyTask(payload OrderNotifyPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderNotify, data, asynq.Queue(QueueDefault)), nil
}

// LowStockScanPayload carries scheduling metadata.
type LowStockScanPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewLowStockScanTask constructs an Asynq task for the periodic scan.
func NewLowStockScanTask(at time.Time) (*asynq.Task, error) {
	data, err := json.Marshal(LowStockScanPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockScan, data, asynq.Queue(QueueDefault)), nil
}

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// Enqueue submits a prepared task.
func (c *Client) Enqueue(ctx context.Context, task *asynq.Task) (*asynq.TaskInfo, error) {
	return c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
