package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type memoryItemRepo struct {
	items     map[int64]Item
	nextID    int64
	listCalls int
}

func newMemoryItemRepo() *memoryItemRepo {
	return &memoryItemRepo{items: make(map[int64]Item)}
}

func (r *memoryItemRepo) ListItems(ctx context.Context, locationID int64, scope Scope) ([]Item, error) {
	r.listCalls++
	out := make([]Item, 0, len(r.items))
	for _, it := range r.items {
		if it.LocationID != locationID {
			continue
		}
		if scope == ScopeLowStock && !it.LowStock() {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func (r *memoryItemRepo) GetItem(ctx context.Context, id int64) (Item, error) {
	it, ok := r.items[id]
	if !ok {
		return Item{}, ErrNotFound
	}
	return it, nil
}

func (r *memoryItemRepo) CreateItem(ctx context.Context, it Item) (int64, error) {
	r.nextID++
	it.ID = r.nextID
	r.items[it.ID] = it
	return it.ID, nil
}

func (r *memoryItemRepo) UpdateItem(ctx context.Context, it Item) error {
	if _, ok := r.items[it.ID]; !ok {
		return ErrNotFound
	}
	r.items[it.ID] = it
	return nil
}

func (r *memoryItemRepo) DeleteItem(ctx context.Context, id int64) error {
	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func testItem(sku string) Item {
	return Item{
		SKU:           sku,
		Name:          "Item " + sku,
		Category:      "parts",
		LocationID:    1,
		Quantity:      2,
		MinStock:      5,
		ReorderQty:    10,
		PurchasePrice: decimal.NewFromInt(4),
	}
}

func newTestService(t *testing.T) (*Service, *memoryItemRepo) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	repo := newMemoryItemRepo()
	return NewService(repo, NewCache(client, time.Minute), nil, nil), repo
}

func TestListItemsReadsThroughCache(t *testing.T) {
	svc, repo := newTestService(t)
	_, err := svc.CreateItem(context.Background(), testItem("A"))
	require.NoError(t, err)

	first, err := svc.ListItems(context.Background(), 1, ScopeAll)
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Equal(t, 1, repo.listCalls)

	// second read is served from the snapshot cache
	second, err := svc.ListItems(context.Background(), 1, ScopeAll)
	require.NoError(t, err)
	require.Len(t, second, 1)
	require.Equal(t, "A", second[0].SKU)
	require.Equal(t, 1, repo.listCalls)
}

func TestWritesInvalidateSnapshots(t *testing.T) {
	svc, repo := newTestService(t)
	created, err := svc.CreateItem(context.Background(), testItem("A"))
	require.NoError(t, err)

	_, err = svc.ListItems(context.Background(), 1, ScopeAll)
	require.NoError(t, err)
	require.Equal(t, 1, repo.listCalls)

	created.Name = "Renamed"
	_, err = svc.UpdateItem(context.Background(), created)
	require.NoError(t, err)

	items, err := svc.ListItems(context.Background(), 1, ScopeAll)
	require.NoError(t, err)
	require.Equal(t, "Renamed", items[0].Name)
	require.Equal(t, 2, repo.listCalls)
}

func TestListItemsRequiresLocation(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.ListItems(context.Background(), 0, ScopeAll)
	require.ErrorIs(t, err, ErrValidation)
}

func TestListItemsLowStockScope(t *testing.T) {
	svc, _ := newTestService(t)
	low := testItem("LOW")
	_, err := svc.CreateItem(context.Background(), low)
	require.NoError(t, err)
	ok := testItem("OK")
	ok.Quantity = 50
	_, err = svc.CreateItem(context.Background(), ok)
	require.NoError(t, err)

	items, err := svc.ListItems(context.Background(), 1, ScopeLowStock)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "LOW", items[0].SKU)
}

func TestValidationErrors(t *testing.T) {
	svc, _ := newTestService(t)
	cases := map[string]func(Item) Item{
		"missing sku":      func(it Item) Item { it.SKU = ""; return it },
		"missing name":     func(it Item) Item { it.Name = ""; return it },
		"missing location": func(it Item) Item { it.LocationID = 0; return it },
		"negative qty":     func(it Item) Item { it.Quantity = -1; return it },
		"zero reorder":     func(it Item) Item { it.ReorderQty = 0; return it },
		"negative price":   func(it Item) Item { it.PurchasePrice = decimal.NewFromInt(-1); return it },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateItem(context.Background(), mutate(testItem("V")))
			require.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestDeleteItemInvalidates(t *testing.T) {
	svc, repo := newTestService(t)
	created, err := svc.CreateItem(context.Background(), testItem("A"))
	require.NoError(t, err)

	_, err = svc.ListItems(context.Background(), 1, ScopeAll)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteItem(context.Background(), created.ID))
	require.ErrorIs(t, svc.DeleteItem(context.Background(), created.ID), ErrNotFound)

	items, err := svc.ListItems(context.Background(), 1, ScopeAll)
	require.NoError(t, err)
	require.Empty(t, items)
	require.Equal(t, 2, repo.listCalls)
}
