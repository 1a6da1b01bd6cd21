package purchasing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixbench-erp/fixbench/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence for orders.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations.
type TxRepository interface {
	CreateOrder(ctx context.Context, po PurchaseOrder) (int64, error)
	UpdateOrderHeader(ctx context.Context, po PurchaseOrder) error
	ReplaceOrderLines(ctx context.Context, orderID int64, lines []Candidate) error
	SetStatus(ctx context.Context, id int64, status OrderStatus) error
	DeleteOrder(ctx context.Context, id int64) error
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps the callback in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

const orderColumns = `id, number, status, location_id, COALESCE(supplier_id, 0), priority, COALESCE(expected_date, 'epoch'::timestamptz), notes, total_items, total_cost, created_at, updated_at`

func scanOrder(row pgx.Row) (PurchaseOrder, error) {
	var po PurchaseOrder
	err := row.Scan(&po.ID, &po.Number, &po.Status, &po.LocationID, &po.SupplierID, &po.Priority,
		&po.ExpectedDate, &po.Notes, &po.TotalItems, &po.TotalCost, &po.CreatedAt, &po.UpdatedAt)
	if po.ExpectedDate.Unix() == 0 {
		po.ExpectedDate = time.Time{}
	}
	return po, err
}

// GetOrder returns the order header.
func (r *Repository) GetOrder(ctx context.Context, id int64) (PurchaseOrder, error) {
	po, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM purchase_orders WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return PurchaseOrder{}, ErrNotFound
	}
	return po, err
}

// GetOrderLines returns persisted line items in stored order. Every
// persisted line was included when saved.
func (r *Repository) GetOrderLines(ctx context.Context, orderID int64) ([]Candidate, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT key, COALESCE(item_id, 0), source, name, sku, category, stock_snapshot, min_stock_level, suggested_qty, qty, unit_price, priority
		 FROM purchase_order_lines WHERE order_id = $1 ORDER BY position`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.Key, &c.ItemID, &c.Source, &c.Name, &c.SKU, &c.Category,
			&c.StockSnapshot, &c.MinStockLevel, &c.SuggestedQty, &c.Qty, &c.UnitPrice, &c.Priority); err != nil {
			return nil, err
		}
		c.Included = true
		lines = append(lines, c)
	}
	return lines, rows.Err()
}

// ListFilters narrows order listings.
type ListFilters struct {
	Status     string
	SupplierID int64
	LocationID int64
	Search     string
}

// ListOrders returns a page of order headers plus the unpaged total.
func (r *Repository) ListOrders(ctx context.Context, limit, offset int, f ListFilters) ([]PurchaseOrder, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.Status != "" {
		where = append(where, "status = "+arg(f.Status))
	}
	if f.SupplierID != 0 {
		where = append(where, "supplier_id = "+arg(f.SupplierID))
	}
	if f.LocationID != 0 {
		where = append(where, "location_id = "+arg(f.LocationID))
	}
	if f.Search != "" {
		where = append(where, "(number ILIKE "+arg("%"+f.Search+"%")+" OR notes ILIKE "+arg("%"+f.Search+"%")+")")
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM purchase_orders WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `SELECT ` + orderColumns + ` FROM purchase_orders WHERE ` + cond +
		` ORDER BY updated_at DESC, id DESC LIMIT ` + arg(limit) + ` OFFSET ` + arg(offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var orders []PurchaseOrder
	for rows.Next() {
		po, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, po)
	}
	return orders, total, rows.Err()
}

func (t *txRepo) CreateOrder(ctx context.Context, po PurchaseOrder) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO purchase_orders (number, status, location_id, supplier_id, priority, expected_date, notes, total_items, total_cost, created_at, updated_at)
		 VALUES ($1, $2, $3, NULLIF($4, 0), $5, $6, $7, $8, $9, $10, $10) RETURNING id`,
		po.Number, po.Status, po.LocationID, po.SupplierID, po.Priority,
		nullableTime(po.ExpectedDate), po.Notes, po.TotalItems, po.TotalCost, time.Now()).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("%w: order number already in use", ErrValidation)
		}
		return 0, err
	}
	return id, nil
}

func (t *txRepo) UpdateOrderHeader(ctx context.Context, po PurchaseOrder) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE purchase_orders SET number=$2, supplier_id=NULLIF($3, 0), priority=$4, expected_date=$5, notes=$6, total_items=$7, total_cost=$8, updated_at=$9 WHERE id=$1`,
		po.ID, po.Number, po.SupplierID, po.Priority, nullableTime(po.ExpectedDate), po.Notes, po.TotalItems, po.TotalCost, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepo) ReplaceOrderLines(ctx context.Context, orderID int64, lines []Candidate) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM purchase_order_lines WHERE order_id = $1`, orderID); err != nil {
		return err
	}
	for pos, c := range lines {
		if _, err := t.tx.Exec(ctx,
			`INSERT INTO purchase_order_lines (order_id, position, key, item_id, source, name, sku, category, stock_snapshot, min_stock_level, suggested_qty, qty, unit_price, priority)
			 VALUES ($1, $2, $3, NULLIF($4, 0), $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			orderID, pos, c.Key, c.ItemID, c.Source, c.Name, c.SKU, c.Category,
			c.StockSnapshot, c.MinStockLevel, c.SuggestedQty, c.Qty, c.UnitPrice, c.Priority); err != nil {
			return err
		}
	}
	return nil
}

func (t *txRepo) SetStatus(ctx context.Context, id int64, status OrderStatus) error {
	tag, err := t.tx.Exec(ctx, `UPDATE purchase_orders SET status=$2, updated_at=$3 WHERE id=$1`, id, status, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepo) DeleteOrder(ctx context.Context, id int64) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM purchase_order_lines WHERE order_id = $1`, id); err != nil {
		return err
	}
	tag, err := t.tx.Exec(ctx, `DELETE FROM purchase_orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
