package masterdata

import (
	"errors"
	"fmt"
	"time"

	"github.com/fixbench-erp/fixbench/internal/shared"
)

// Supplier is a vendor purchase orders can be placed with.
type Supplier struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Location is a shop branch holding its own inventory.
type Location struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	// ErrNotFound indicates record missing.
	ErrNotFound = fmt.Errorf("masterdata: %w", shared.ErrNotFound)
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("masterdata: invalid input")
)
