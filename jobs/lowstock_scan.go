package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/fixbench-erp/fixbench/internal/catalog"
	"github.com/fixbench-erp/fixbench/internal/masterdata"
)

// LowStockScanJob walks every location's catalog and reports items at
// or below their minimum stock level.
type LowStockScanJob struct {
	catalog   *catalog.Service
	locations *masterdata.Repository
	logger    *slog.Logger
}

// NewLowStockScanJob wires the scan dependencies.
func NewLowStockScanJob(cat *catalog.Service, locations *masterdata.Repository, logger *slog.Logger) *LowStockScanJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &LowStockScanJob{catalog: cat, locations: locations, logger: logger}
}

// Run performs one scan across all locations.
func (j *LowStockScanJob) Run(ctx context.Context) error {
	locations, err := j.locations.ListLocations(ctx)
	if err != nil {
		return err
	}
	for _, loc := range locations {
		items, err := j.catalog.ListItems(ctx, loc.ID, catalog.ScopeLowStock)
		if err != nil {
			j.logger.Error("low-stock scan", slog.Any("error", err), slog.Int64("location_id", loc.ID))
			continue
		}
		outOfStock := 0
		for _, it := range items {
			if it.Quantity == 0 {
				outOfStock++
			}
		}
		j.logger.Info("low-stock scan",
			slog.Int64("location_id", loc.ID),
			slog.String("location", loc.Name),
			slog.Int("low_stock", len(items)),
			slog.Int("out_of_stock", outOfStock),
		)
	}
	return nil
}

// Handler adapts the job for Asynq registration.
func (j *LowStockScanJob) Handler() asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload LowStockScanPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		return j.Run(ctx)
	}
}
