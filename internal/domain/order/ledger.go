package order

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows the ledger's order listing. Zero fields match everything.
type ListFilter struct {
	Status        *Status
	PaymentStatus *PaymentStatus
	AttendeeID    *uuid.UUID
	CustomerName  string // case-insensitive substring match
}

// Ledger holds the authoritative local collection of orders. The remote
// backend remains the source of truth; the ledger is a read-through cache
// that is only written after the backend confirms a mutation. Apply calls
// are serialized per order ID; reads return independent snapshots.
type Ledger interface {
	// Put inserts or replaces an order snapshot (after remote creation or a
	// reconciling re-fetch).
	Put(ctx context.Context, o *Order) error

	// Apply merges a validated patch into the stored order and returns the
	// updated snapshot. Fails with a NOT_FOUND domain error for unknown IDs.
	// This is the single mutation choke-point.
	Apply(ctx context.Context, id uuid.UUID, patch Patch) (*Order, error)

	// Get returns a snapshot of the order with the given ID.
	Get(ctx context.Context, id uuid.UUID) (*Order, error)

	// List returns snapshots of all orders matching the filter, most recently
	// created first.
	List(ctx context.Context, filter ListFilter) ([]*Order, error)
}
