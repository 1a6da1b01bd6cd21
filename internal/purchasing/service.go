package purchasing

import (
	"context"
	"fmt"
	"time"

	"github.com/fixbench-erp/fixbench/internal/catalog"
	"github.com/fixbench-erp/fixbench/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetOrder(ctx context.Context, id int64) (PurchaseOrder, error)
	GetOrderLines(ctx context.Context, orderID int64) ([]Candidate, error)
	ListOrders(ctx context.Context, limit, offset int, f ListFilters) ([]PurchaseOrder, int, error)
}

// CatalogPort exposes the inventory snapshot provider.
type CatalogPort interface {
	ListItems(ctx context.Context, locationID int64, scope catalog.Scope) ([]catalog.Item, error)
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service owns the order lifecycle: it runs reconciliation into
// editing sessions, guards every status transition against the
// transition table, and keeps header totals consistent with the
// selected lines on every write.
type Service struct {
	repo        RepositoryPort
	catalog     CatalogPort
	sessions    *SessionManager
	audit       AuditPort
	notifier    NotifierPort
	idempotency *shared.IdempotencyStore
}

// NewService constructs purchasing service.
func NewService(repo RepositoryPort, cat CatalogPort, sessions *SessionManager, audit AuditPort, notifier NotifierPort, idem *shared.IdempotencyStore) *Service {
	return &Service{repo: repo, catalog: cat, sessions: sessions, audit: audit, notifier: notifier, idempotency: idem}
}

// StartSession loads the live catalog for the location plus, when
// editing an existing order, its persisted lines, reconciles them once
// and opens an editing session over the result.
func (s *Service) StartSession(ctx context.Context, locationID, orderID int64) (*Session, error) {
	var (
		order     PurchaseOrder
		persisted []Candidate
	)
	if orderID != 0 {
		var err error
		order, err = s.repo.GetOrder(ctx, orderID)
		if err != nil {
			return nil, err
		}
		persisted, err = s.repo.GetOrderLines(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if locationID == 0 {
			locationID = order.LocationID
		}
	}
	if locationID == 0 {
		return nil, fmt.Errorf("%w: location required", ErrValidation)
	}
	items, err := s.catalog.ListItems(ctx, locationID, catalog.ScopeAll)
	if err != nil {
		return nil, err
	}
	pool := Reconcile(items, persisted)
	if order.ID == 0 {
		order = PurchaseOrder{Status: StatusDraft, LocationID: locationID, Priority: PriorityNormal}
	}
	return s.sessions.add(locationID, order, NewSelectionStore(pool)), nil
}

// Session returns a live editing session.
func (s *Service) Session(id string) (*Session, error) {
	return s.sessions.Get(id)
}

// DropSession discards an editing session without persisting anything.
func (s *Service) DropSession(id string) {
	s.sessions.Drop(id)
}

// HeaderInput carries the user-editable header fields.
type HeaderInput struct {
	Number       string
	SupplierID   int64
	Priority     Priority
	ExpectedDate time.Time
	Notes        string
}

// CreateOrder persists the session's selection as a new draft order.
func (s *Service) CreateOrder(ctx context.Context, sessionID string, input HeaderInput) (PurchaseOrder, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return PurchaseOrder{}, err
	}
	if sess.Order().ID != 0 {
		return PurchaseOrder{}, fmt.Errorf("%w: session already bound to order %d", ErrValidation, sess.Order().ID)
	}
	header, lines := s.buildOrder(sess, input)
	header.Status = StatusDraft
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.CreateOrder(ctx, header)
		if err != nil {
			return err
		}
		header.ID = id
		return tx.ReplaceOrderLines(ctx, id, lines)
	})
	if err != nil {
		return PurchaseOrder{}, err
	}
	sess.setOrder(header)
	s.recordAudit(ctx, "PO_CREATE", header.ID, map[string]any{"number": header.Number, "total_items": header.TotalItems})
	return header, nil
}

// UpdateOrder overwrites a draft order's header and lines from the
// session bound to it. Rejected before any persistence call when the
// session belongs to a different order (or to none: editing an
// existing order requires a session started with its id) or when the
// order left DRAFT. Last successful update wins; there is no version
// token.
func (s *Service) UpdateOrder(ctx context.Context, orderID int64, sessionID string, input HeaderInput) (PurchaseOrder, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return PurchaseOrder{}, err
	}
	if sess.Order().ID != orderID {
		return PurchaseOrder{}, fmt.Errorf("%w: session is not bound to order %d", ErrValidation, orderID)
	}
	stored, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return PurchaseOrder{}, err
	}
	if stored.Status != StatusDraft {
		return PurchaseOrder{}, fmt.Errorf("%w: %s order is not editable", ErrInvalidTransition, stored.Status)
	}
	header, lines := s.buildOrder(sess, input)
	header.ID = stored.ID
	header.Status = stored.Status
	header.CreatedAt = stored.CreatedAt
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateOrderHeader(ctx, header); err != nil {
			return err
		}
		return tx.ReplaceOrderLines(ctx, orderID, lines)
	})
	if err != nil {
		return PurchaseOrder{}, err
	}
	sess.setOrder(header)
	s.recordAudit(ctx, "PO_UPDATE", header.ID, map[string]any{"number": header.Number, "total_items": header.TotalItems})
	return header, nil
}

func (s *Service) buildOrder(sess *Session, input HeaderInput) (PurchaseOrder, []Candidate) {
	lines := sess.Selected()
	agg := sess.Aggregate()
	header := sess.Order()
	header.Number = input.Number
	if header.Number == "" {
		header.Number = generateNumber("PO")
	}
	header.SupplierID = input.SupplierID
	header.Priority = input.Priority
	if !ValidPriority(header.Priority) {
		header.Priority = PriorityNormal
	}
	header.ExpectedDate = input.ExpectedDate
	header.Notes = input.Notes
	header.TotalItems = agg.SelectedCount
	header.TotalCost = agg.TotalCost
	return header, lines
}

// Transition applies a lifecycle action. An action with no edge from
// the current status fails with ErrInvalidTransition before any
// persistence call, leaving the stored status untouched.
func (s *Service) Transition(ctx context.Context, orderID int64, action Action, reason string) (PurchaseOrder, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return PurchaseOrder{}, err
	}
	next, ok := NextStatus(order.Status, action)
	if !ok {
		return PurchaseOrder{}, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, action, order.Status)
	}
	switch action {
	case ActionSubmit:
		lines, err := s.repo.GetOrderLines(ctx, orderID)
		if err != nil {
			return PurchaseOrder{}, err
		}
		if len(lines) == 0 {
			return PurchaseOrder{}, fmt.Errorf("%w: order has no line items", ErrValidation)
		}
	case ActionCancel:
		if reason == "" {
			return PurchaseOrder{}, fmt.Errorf("%w: cancellation reason required", ErrValidation)
		}
	}

	insertedKey := ""
	if action == ActionReceive && s.idempotency != nil {
		key := fmt.Sprintf("PO-RECEIVE:%d", orderID)
		if err := s.idempotency.CheckAndInsert(ctx, key, "purchasing"); err != nil {
			return PurchaseOrder{}, err
		}
		insertedKey = key
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.SetStatus(ctx, orderID, next)
	})
	if err != nil {
		if insertedKey != "" {
			_ = s.idempotency.Delete(ctx, insertedKey)
		}
		return PurchaseOrder{}, err
	}

	from := order.Status
	order.Status = next
	order.UpdatedAt = time.Now()
	s.recordAudit(ctx, "PO_"+string(next), orderID, map[string]any{"number": order.Number, "from": from, "reason": reason})
	if s.notifier != nil {
		_ = s.notifier.HandleOrderStatusChanged(ctx, OrderStatusChangedEvent{
			OrderID:    order.ID,
			Number:     order.Number,
			From:       from,
			To:         next,
			Action:     action,
			Reason:     reason,
			TotalItems: order.TotalItems,
			TotalCost:  order.TotalCost.String(),
			OccurredAt: time.Now(),
		})
	}
	return order, nil
}

// DeleteOrder removes an order and its lines. RECEIVED orders are
// immutable history and cannot be deleted.
func (s *Service) DeleteOrder(ctx context.Context, orderID int64) error {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status == StatusReceived {
		return fmt.Errorf("%w: received orders cannot be deleted", ErrInvalidTransition)
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.DeleteOrder(ctx, orderID)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, "PO_DELETE", orderID, map[string]any{"number": order.Number, "status": order.Status})
	if s.notifier != nil {
		_ = s.notifier.HandleOrderDeleted(ctx, OrderDeletedEvent{
			OrderID:    order.ID,
			Number:     order.Number,
			Status:     order.Status,
			OccurredAt: time.Now(),
		})
	}
	return nil
}

// GetOrder returns the order header.
func (s *Service) GetOrder(ctx context.Context, id int64) (PurchaseOrder, error) {
	return s.repo.GetOrder(ctx, id)
}

// GetOrderLines returns persisted line items.
func (s *Service) GetOrderLines(ctx context.Context, id int64) ([]Candidate, error) {
	return s.repo.GetOrderLines(ctx, id)
}

// ListOrders returns a page of orders with the unpaged total.
func (s *Service) ListOrders(ctx context.Context, limit, offset int, f ListFilters) ([]PurchaseOrder, int, error) {
	return s.repo.ListOrders(ctx, limit, offset, f)
}

func (s *Service) recordAudit(ctx context.Context, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{Action: action, Entity: "purchase_order", EntityID: fmt.Sprintf("%d", entityID), Meta: meta})
}

func generateNumber(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
