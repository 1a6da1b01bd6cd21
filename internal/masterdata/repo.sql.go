package masterdata

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListSuppliers returns all suppliers ordered by name.
func (r *Repository) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, email, phone, notes, created_at, updated_at FROM suppliers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Supplier
	for rows.Next() {
		var s Supplier
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.Phone, &s.Notes, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CreateSupplier inserts a supplier.
func (r *Repository) CreateSupplier(ctx context.Context, s Supplier) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO suppliers (name, email, phone, notes, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $5) RETURNING id`,
		s.Name, s.Email, s.Phone, s.Notes, time.Now()).Scan(&id)
	return id, err
}

// UpdateSupplier overwrites a supplier.
func (r *Repository) UpdateSupplier(ctx context.Context, s Supplier) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE suppliers SET name=$2, email=$3, phone=$4, notes=$5, updated_at=$6 WHERE id=$1`,
		s.ID, s.Name, s.Email, s.Phone, s.Notes, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSupplier removes a supplier.
func (r *Repository) DeleteSupplier(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM suppliers WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetLocation returns one location by id.
func (r *Repository) GetLocation(ctx context.Context, id int64) (Location, error) {
	var l Location
	err := r.pool.QueryRow(ctx, `SELECT id, name, address, created_at, updated_at FROM locations WHERE id=$1`, id).
		Scan(&l.ID, &l.Name, &l.Address, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Location{}, ErrNotFound
	}
	return l, err
}

// ListLocations returns all locations ordered by name.
func (r *Repository) ListLocations(ctx context.Context) ([]Location, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, address, created_at, updated_at FROM locations ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Location
	for rows.Next() {
		var l Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Address, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// CreateLocation inserts a location.
func (r *Repository) CreateLocation(ctx context.Context, l Location) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO locations (name, address, created_at, updated_at) VALUES ($1, $2, $3, $3) RETURNING id`,
		l.Name, l.Address, time.Now()).Scan(&id)
	return id, err
}

// UpdateLocation overwrites a location.
func (r *Repository) UpdateLocation(ctx context.Context, l Location) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE locations SET name=$2, address=$3, updated_at=$4 WHERE id=$1`,
		l.ID, l.Name, l.Address, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
