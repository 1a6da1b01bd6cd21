package purchasing

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fixbench-erp/fixbench/internal/catalog"
)

type memoryOrderRepo struct {
	orders map[int64]PurchaseOrder
	lines  map[int64][]Candidate
	nextID int64
}

type memoryOrderTx struct {
	repo *memoryOrderRepo
}

func newMemoryOrderRepo() *memoryOrderRepo {
	return &memoryOrderRepo{
		orders: make(map[int64]PurchaseOrder),
		lines:  make(map[int64][]Candidate),
	}
}

func (r *memoryOrderRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryOrderTx{repo: r})
}

func (r *memoryOrderRepo) GetOrder(ctx context.Context, id int64) (PurchaseOrder, error) {
	po, ok := r.orders[id]
	if !ok {
		return PurchaseOrder{}, ErrNotFound
	}
	return po, nil
}

func (r *memoryOrderRepo) GetOrderLines(ctx context.Context, orderID int64) ([]Candidate, error) {
	return append([]Candidate(nil), r.lines[orderID]...), nil
}

func (r *memoryOrderRepo) ListOrders(ctx context.Context, limit, offset int, f ListFilters) ([]PurchaseOrder, int, error) {
	out := make([]PurchaseOrder, 0, len(r.orders))
	for _, po := range r.orders {
		out = append(out, po)
	}
	return out, len(out), nil
}

func (tx *memoryOrderTx) CreateOrder(ctx context.Context, po PurchaseOrder) (int64, error) {
	tx.repo.nextID++
	po.ID = tx.repo.nextID
	po.CreatedAt = time.Now()
	tx.repo.orders[po.ID] = po
	return po.ID, nil
}

func (tx *memoryOrderTx) UpdateOrderHeader(ctx context.Context, po PurchaseOrder) error {
	if _, ok := tx.repo.orders[po.ID]; !ok {
		return ErrNotFound
	}
	tx.repo.orders[po.ID] = po
	return nil
}

func (tx *memoryOrderTx) ReplaceOrderLines(ctx context.Context, orderID int64, lines []Candidate) error {
	tx.repo.lines[orderID] = append([]Candidate(nil), lines...)
	return nil
}

func (tx *memoryOrderTx) SetStatus(ctx context.Context, id int64, status OrderStatus) error {
	po, ok := tx.repo.orders[id]
	if !ok {
		return ErrNotFound
	}
	po.Status = status
	tx.repo.orders[id] = po
	return nil
}

func (tx *memoryOrderTx) DeleteOrder(ctx context.Context, id int64) error {
	if _, ok := tx.repo.orders[id]; !ok {
		return ErrNotFound
	}
	delete(tx.repo.orders, id)
	delete(tx.repo.lines, id)
	return nil
}

type stubCatalog struct {
	items []catalog.Item
}

func (c *stubCatalog) ListItems(ctx context.Context, locationID int64, scope catalog.Scope) ([]catalog.Item, error) {
	return append([]catalog.Item(nil), c.items...), nil
}

type captureNotifier struct {
	statusEvents []OrderStatusChangedEvent
	deleteEvents []OrderDeletedEvent
}

func (n *captureNotifier) HandleOrderStatusChanged(ctx context.Context, evt OrderStatusChangedEvent) error {
	n.statusEvents = append(n.statusEvents, evt)
	return nil
}

func (n *captureNotifier) HandleOrderDeleted(ctx context.Context, evt OrderDeletedEvent) error {
	n.deleteEvents = append(n.deleteEvents, evt)
	return nil
}

func newTestService(items []catalog.Item) (*Service, *memoryOrderRepo, *captureNotifier) {
	repo := newMemoryOrderRepo()
	notifier := &captureNotifier{}
	svc := NewService(repo, &stubCatalog{items: items}, NewSessionManager(time.Hour), nil, notifier, nil)
	return svc, repo, notifier
}

func seedItems() []catalog.Item {
	return []catalog.Item{
		{ID: 1, SKU: "TP-01", Name: "Thermal paste", Category: "consumables", LocationID: 1, Quantity: 0, MinStock: 5, ReorderQty: 20, PurchasePrice: decimal.NewFromInt(2)},
		{ID: 2, SKU: "SSD-1T", Name: "SSD 1TB", Category: "storage", LocationID: 1, Quantity: 3, MinStock: 4, ReorderQty: 10, PurchasePrice: decimal.NewFromInt(80)},
	}
}

func createDraft(t *testing.T, svc *Service) (PurchaseOrder, *Session) {
	t.Helper()
	sess, err := svc.StartSession(context.Background(), 1, 0)
	require.NoError(t, err)
	sess.SetIncluded("item:1", true)
	sess.SetIncluded("item:2", true)
	po, err := svc.CreateOrder(context.Background(), sess.ID(), HeaderInput{Number: "PO-TEST-1", SupplierID: 7, Priority: PriorityHigh})
	require.NoError(t, err)
	return po, sess
}

func TestStartSessionRequiresLocation(t *testing.T) {
	svc, _, _ := newTestService(seedItems())
	_, err := svc.StartSession(context.Background(), 0, 0)
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreateOrderPersistsSelection(t *testing.T) {
	svc, repo, _ := newTestService(seedItems())
	po, sess := createDraft(t, svc)

	require.Equal(t, StatusDraft, po.Status)
	require.Equal(t, 2, po.TotalItems)
	// 20*2 + 11*80
	require.True(t, po.TotalCost.Equal(decimal.NewFromInt(920)))
	require.Len(t, repo.lines[po.ID], 2)

	// session is now bound; a second create through it must fail
	_, err := svc.CreateOrder(context.Background(), sess.ID(), HeaderInput{})
	require.ErrorIs(t, err, ErrValidation)
}

func TestFullLifecycleEndsTerminal(t *testing.T) {
	svc, repo, notifier := newTestService(seedItems())
	po, _ := createDraft(t, svc)

	for _, step := range []struct {
		action Action
		want   OrderStatus
	}{
		{ActionSubmit, StatusSubmitted},
		{ActionApprove, StatusApproved},
		{ActionReceive, StatusReceived},
	} {
		got, err := svc.Transition(context.Background(), po.ID, step.action, "")
		require.NoError(t, err)
		require.Equal(t, step.want, got.Status)
	}
	require.Len(t, notifier.statusEvents, 3)

	// RECEIVED is terminal: nothing moves it, storage untouched
	for _, action := range []Action{ActionSubmit, ActionApprove, ActionReceive, ActionCancel, ActionReopen} {
		_, err := svc.Transition(context.Background(), po.ID, action, "why not")
		require.ErrorIs(t, err, ErrInvalidTransition)
	}
	require.Equal(t, StatusReceived, repo.orders[po.ID].Status)
}

func TestReceiveFromDraftRejectedBeforePersistence(t *testing.T) {
	svc, repo, notifier := newTestService(seedItems())
	po, _ := createDraft(t, svc)

	_, err := svc.Transition(context.Background(), po.ID, ActionReceive, "")
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.Equal(t, StatusDraft, repo.orders[po.ID].Status)
	require.Empty(t, notifier.statusEvents)
}

func TestSubmitRequiresLines(t *testing.T) {
	svc, repo, _ := newTestService(seedItems())
	sess, err := svc.StartSession(context.Background(), 1, 0)
	require.NoError(t, err)
	po, err := svc.CreateOrder(context.Background(), sess.ID(), HeaderInput{Number: "PO-EMPTY"})
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), po.ID, ActionSubmit, "")
	require.ErrorIs(t, err, ErrValidation)
	require.Equal(t, StatusDraft, repo.orders[po.ID].Status)
}

func TestCancelRequiresReasonAndReopenRestoresDraft(t *testing.T) {
	svc, repo, _ := newTestService(seedItems())
	po, _ := createDraft(t, svc)
	linesBefore := append([]Candidate(nil), repo.lines[po.ID]...)
	require.Len(t, linesBefore, 2)

	_, err := svc.Transition(context.Background(), po.ID, ActionCancel, "")
	require.ErrorIs(t, err, ErrValidation)

	got, err := svc.Transition(context.Background(), po.ID, ActionCancel, "supplier out of business")
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, got.Status)

	got, err = svc.Transition(context.Background(), po.ID, ActionReopen, "")
	require.NoError(t, err)
	require.Equal(t, StatusDraft, got.Status)
	// lines survive the cancel/reopen round trip untouched
	require.Equal(t, linesBefore, repo.lines[po.ID])
}

func TestUpdateOrderRequiresMatchingSession(t *testing.T) {
	svc, repo, _ := newTestService(seedItems())
	poA, sessA := createDraft(t, svc)

	sessB, err := svc.StartSession(context.Background(), 1, 0)
	require.NoError(t, err)
	sessB.SetIncluded("item:1", true)
	poB, err := svc.CreateOrder(context.Background(), sessB.ID(), HeaderInput{Number: "PO-OTHER"})
	require.NoError(t, err)

	// a session bound to order A cannot be aimed at order B
	_, err = svc.UpdateOrder(context.Background(), poB.ID, sessA.ID(), HeaderInput{Number: "PO-TAKEOVER"})
	require.ErrorIs(t, err, ErrValidation)
	require.Equal(t, "PO-OTHER", repo.orders[poB.ID].Number)
	require.Len(t, repo.lines[poB.ID], 1)
	require.Equal(t, poA.ID, sessA.Order().ID)

	// nor can a session that was never bound to any order
	fresh, err := svc.StartSession(context.Background(), 1, 0)
	require.NoError(t, err)
	_, err = svc.UpdateOrder(context.Background(), poB.ID, fresh.ID(), HeaderInput{Number: "PO-OTHER"})
	require.ErrorIs(t, err, ErrValidation)
	require.Equal(t, "PO-OTHER", repo.orders[poB.ID].Number)
}

func TestUpdateOrderRejectedOnceSubmitted(t *testing.T) {
	svc, _, _ := newTestService(seedItems())
	po, sess := createDraft(t, svc)

	_, err := svc.Transition(context.Background(), po.ID, ActionSubmit, "")
	require.NoError(t, err)

	_, err = svc.UpdateOrder(context.Background(), po.ID, sess.ID(), HeaderInput{Number: "PO-TEST-1", Notes: "late edit"})
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateOrderRewritesDraft(t *testing.T) {
	svc, repo, _ := newTestService(seedItems())
	po, sess := createDraft(t, svc)

	sess.SetIncluded("item:2", false)
	sess.SetQuantity("item:1", 50)
	updated, err := svc.UpdateOrder(context.Background(), po.ID, sess.ID(), HeaderInput{Number: "PO-TEST-1", Notes: "trimmed"})
	require.NoError(t, err)
	require.Equal(t, 1, updated.TotalItems)
	require.True(t, updated.TotalCost.Equal(decimal.NewFromInt(100)))
	require.Len(t, repo.lines[po.ID], 1)
	require.Equal(t, 50, repo.lines[po.ID][0].Qty)
}

func TestDeleteReceivedOrderRejected(t *testing.T) {
	svc, repo, notifier := newTestService(seedItems())
	po, _ := createDraft(t, svc)
	for _, action := range []Action{ActionSubmit, ActionApprove, ActionReceive} {
		_, err := svc.Transition(context.Background(), po.ID, action, "")
		require.NoError(t, err)
	}

	err := svc.DeleteOrder(context.Background(), po.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.Contains(t, repo.orders, po.ID)

	po2, _ := createDraft(t, svc)
	require.NoError(t, svc.DeleteOrder(context.Background(), po2.ID))
	require.NotContains(t, repo.orders, po2.ID)
	require.Len(t, notifier.deleteEvents, 1)
}

func TestStartSessionReconcilesSnapshotOnlyLines(t *testing.T) {
	svc, repo, _ := newTestService(seedItems())
	po, _ := createDraft(t, svc)

	// the second catalog item disappears after the order was saved
	svc.catalog = &stubCatalog{items: seedItems()[:1]}

	sess, err := svc.StartSession(context.Background(), 0, po.ID)
	require.NoError(t, err)
	require.Equal(t, po.ID, sess.Order().ID)
	require.Equal(t, int64(1), sess.LocationID())

	pool := sess.Candidates(Filter{})
	require.Len(t, pool, 2)
	require.Equal(t, SourceSnapshot, pool[1].Source)
	require.Equal(t, "SSD 1TB", pool[1].Name)
	require.True(t, pool[1].Included)
	require.Len(t, repo.lines[po.ID], 2)
}

func TestSessionExpiry(t *testing.T) {
	repo := newMemoryOrderRepo()
	svc := NewService(repo, &stubCatalog{items: seedItems()}, NewSessionManager(time.Millisecond), nil, nil, nil)
	sess, err := svc.StartSession(context.Background(), 1, 0)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, err = svc.Session(sess.ID())
	require.ErrorIs(t, err, ErrNotFound)
}
