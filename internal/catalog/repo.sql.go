package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for catalog items.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const itemColumns = `id, sku, name, category, location_id, quantity, min_stock_level, reorder_quantity, purchase_price, created_at, updated_at`

func scanItem(row pgx.Row) (Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.SKU, &it.Name, &it.Category, &it.LocationID, &it.Quantity,
		&it.MinStock, &it.ReorderQty, &it.PurchasePrice, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}

// ListItems returns items for a location in catalog scan order. Scope
// low-stock narrows to items at or below their minimum level.
func (r *Repository) ListItems(ctx context.Context, locationID int64, scope Scope) ([]Item, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE location_id = $1 ORDER BY id`
	if scope == ScopeLowStock {
		query = `SELECT ` + itemColumns + ` FROM inventory_items WHERE location_id = $1 AND quantity <= min_stock_level ORDER BY id`
	}
	rows, err := r.pool.Query(ctx, query, locationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// GetItem returns one item by id.
func (r *Repository) GetItem(ctx context.Context, id int64) (Item, error) {
	it, err := scanItem(r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM inventory_items WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	return it, err
}

// CreateItem inserts an item and returns its id.
func (r *Repository) CreateItem(ctx context.Context, it Item) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO inventory_items (sku, name, category, location_id, quantity, min_stock_level, reorder_quantity, purchase_price, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9) RETURNING id`,
		it.SKU, it.Name, it.Category, it.LocationID, it.Quantity, it.MinStock, it.ReorderQty, it.PurchasePrice, time.Now()).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrDuplicateSKU
		}
		return 0, err
	}
	return id, nil
}

// UpdateItem overwrites the mutable fields of an item.
func (r *Repository) UpdateItem(ctx context.Context, it Item) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE inventory_items SET sku=$2, name=$3, category=$4, quantity=$5, min_stock_level=$6, reorder_quantity=$7, purchase_price=$8, updated_at=$9 WHERE id=$1`,
		it.ID, it.SKU, it.Name, it.Category, it.Quantity, it.MinStock, it.ReorderQty, it.PurchasePrice, time.Now())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateSKU
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteItem removes an item. Orders keep their persisted snapshot of
// deleted items, so no FK cascade touches purchase order lines.
func (r *Repository) DeleteItem(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
