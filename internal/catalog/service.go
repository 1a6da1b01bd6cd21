package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fixbench-erp/fixbench/internal/shared"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	ListItems(ctx context.Context, locationID int64, scope Scope) ([]Item, error)
	GetItem(ctx context.Context, id int64) (Item, error)
	CreateItem(ctx context.Context, it Item) (int64, error)
	UpdateItem(ctx context.Context, it Item) error
	DeleteItem(ctx context.Context, id int64) error
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service exposes catalog reads (the snapshot provider for the
// purchasing engine) and item CRUD.
type Service struct {
	repo   RepositoryPort
	cache  *Cache
	audit  AuditPort
	logger *slog.Logger
}

// NewService constructs catalog service.
func NewService(repo RepositoryPort, cache *Cache, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, audit: audit, logger: logger}
}

// ListItems returns the current items for a location, read through the
// snapshot cache. Cache failures degrade to a direct read.
func (s *Service) ListItems(ctx context.Context, locationID int64, scope Scope) ([]Item, error) {
	if locationID == 0 {
		return nil, fmt.Errorf("%w: location required", ErrValidation)
	}
	if scope != ScopeLowStock {
		scope = ScopeAll
	}
	if items, hit, err := s.cache.GetSnapshot(ctx, locationID, scope); err != nil {
		s.logger.Warn("catalog snapshot cache read", slog.Any("error", err))
	} else if hit {
		return items, nil
	}
	items, err := s.repo.ListItems(ctx, locationID, scope)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetSnapshot(ctx, locationID, scope, items); err != nil {
		s.logger.Warn("catalog snapshot cache write", slog.Any("error", err))
	}
	return items, nil
}

// GetItem returns a single item.
func (s *Service) GetItem(ctx context.Context, id int64) (Item, error) {
	return s.repo.GetItem(ctx, id)
}

// CreateItem validates and persists a new item.
func (s *Service) CreateItem(ctx context.Context, it Item) (Item, error) {
	if err := validateItem(it); err != nil {
		return Item{}, err
	}
	id, err := s.repo.CreateItem(ctx, it)
	if err != nil {
		return Item{}, err
	}
	it.ID = id
	s.invalidate(ctx)
	s.recordAudit(ctx, "ITEM_CREATE", id, map[string]any{"sku": it.SKU})
	return it, nil
}

// UpdateItem validates and overwrites an existing item.
func (s *Service) UpdateItem(ctx context.Context, it Item) (Item, error) {
	if it.ID == 0 {
		return Item{}, fmt.Errorf("%w: id required", ErrValidation)
	}
	if err := validateItem(it); err != nil {
		return Item{}, err
	}
	if err := s.repo.UpdateItem(ctx, it); err != nil {
		return Item{}, err
	}
	s.invalidate(ctx)
	s.recordAudit(ctx, "ITEM_UPDATE", it.ID, map[string]any{"sku": it.SKU})
	return it, nil
}

// DeleteItem removes an item from the catalog. Persisted order lines
// referencing it survive as snapshot-only candidates.
func (s *Service) DeleteItem(ctx context.Context, id int64) error {
	if err := s.repo.DeleteItem(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	s.recordAudit(ctx, "ITEM_DELETE", id, nil)
	return nil
}

func validateItem(it Item) error {
	switch {
	case it.SKU == "":
		return fmt.Errorf("%w: sku required", ErrValidation)
	case it.Name == "":
		return fmt.Errorf("%w: name required", ErrValidation)
	case it.LocationID == 0:
		return fmt.Errorf("%w: location required", ErrValidation)
	case it.Quantity < 0:
		return fmt.Errorf("%w: quantity must be >= 0", ErrValidation)
	case it.MinStock < 0:
		return fmt.Errorf("%w: min stock level must be >= 0", ErrValidation)
	case it.ReorderQty < 1:
		return fmt.Errorf("%w: reorder quantity must be >= 1", ErrValidation)
	case it.PurchasePrice.IsNegative():
		return fmt.Errorf("%w: purchase price must be >= 0", ErrValidation)
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("catalog snapshot cache bump", slog.Any("error", err))
	}
}

func (s *Service) recordAudit(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{Action: action, Entity: "catalog_item", EntityID: fmt.Sprintf("%d", id), Meta: meta})
}
