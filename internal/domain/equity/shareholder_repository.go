package equity

import (
	"context"

	"github.com/google/uuid"
	"github.com/lending/equity/internal/domain/shared"
)

// ShareholderReader is the read side the ledger and validation engine need
type ShareholderReader interface {
	// List returns every live shareholder of a pool
	List(ctx context.Context, poolCode string) ([]Shareholder, error)

	// FindByNationalID finds a live shareholder by national ID, ignoring excludeID.
	// Returns shared.ErrNotFound when no other shareholder uses the value.
	FindByNationalID(ctx context.Context, poolCode, nationalID string, excludeID *uuid.UUID) (*Shareholder, error)

	// FindByContact finds a live shareholder by contact number, ignoring excludeID.
	// Returns shared.ErrNotFound when no other shareholder uses the value.
	FindByContact(ctx context.Context, poolCode, contact string, excludeID *uuid.UUID) (*Shareholder, error)
}

// ShareholderRepository defines the persistence contract for shareholders
type ShareholderRepository interface {
	ShareholderReader

	// FindByID finds a shareholder by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Shareholder, error)

	// FindAll returns a page of shareholders of a pool
	FindAll(ctx context.Context, poolCode string, filter shared.Filter) ([]Shareholder, error)

	// Count returns the number of shareholders of a pool matching the filter
	Count(ctx context.Context, poolCode string, filter shared.Filter) (int64, error)

	// Insert persists a new shareholder.
	// Unique index violations surface as a DuplicateConstraint MutationError.
	Insert(ctx context.Context, shareholder *Shareholder) error

	// Update replaces the stored fields of an existing shareholder.
	// Returns shared.ErrNotFound if the shareholder does not exist.
	Update(ctx context.Context, shareholder *Shareholder) error

	// Delete removes a shareholder.
	// Returns shared.ErrNotFound if the shareholder does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// UpdateShareCounts stores apportioned share counts by shareholder ID
	UpdateShareCounts(ctx context.Context, counts map[uuid.UUID]int64) error
}

// PoolRepository persists the capacity pool row that anchors pool locking
type PoolRepository interface {
	// EnsurePool creates or refreshes the pool row from configuration
	EnsurePool(ctx context.Context, pool CapacityPool) error

	// LockPool takes an exclusive row lock on the pool for the current transaction.
	// Returns shared.ErrNotFound if the pool row is missing.
	LockPool(ctx context.Context, code string) error
}
