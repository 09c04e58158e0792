package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/retailops/core/internal/domain/order"
	"github.com/retailops/core/internal/domain/shared"
)

// MemoryLedger is the in-process implementation of the order ledger. The
// remote backend stays the source of truth; this cache is only written after
// the backend confirms a mutation, so a process restart simply re-fetches.
type MemoryLedger struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]*order.Order
}

// NewMemoryLedger creates an empty in-memory ledger
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		orders: make(map[uuid.UUID]*order.Order),
	}
}

// Put inserts or replaces an order snapshot
func (l *MemoryLedger) Put(ctx context.Context, o *order.Order) error {
	if o == nil {
		return shared.NewValidationError("Cannot store a nil order")
	}
	if o.ID == uuid.Nil {
		return shared.NewValidationError("Cannot store an order without an ID")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.orders[o.ID] = o.Clone()
	return nil
}

// Apply merges a validated patch into the stored order under the write lock,
// so concurrent patches for the same order serialize and each sees the
// previous one's result. Returns the updated snapshot.
func (l *MemoryLedger) Apply(ctx context.Context, id uuid.UUID, patch order.Patch) (*order.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	stored, ok := l.orders[id]
	if !ok {
		return nil, shared.NewNotFoundError(fmt.Sprintf("Order %s not found", id))
	}
	if err := stored.ApplyPatch(patch); err != nil {
		return nil, err
	}

	// Hand the raised events to the caller on the snapshot; the stored copy
	// must not accumulate them across patches
	events := stored.GetDomainEvents()
	stored.ClearDomainEvents()
	snapshot := stored.Clone()
	for _, event := range events {
		snapshot.AddDomainEvent(event)
	}
	return snapshot, nil
}

// Get returns a snapshot of the order with the given ID
func (l *MemoryLedger) Get(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stored, ok := l.orders[id]
	if !ok {
		return nil, shared.NewNotFoundError(fmt.Sprintf("Order %s not found", id))
	}
	return stored.Clone(), nil
}

// List returns snapshots of all orders matching the filter, most recently
// created first
func (l *MemoryLedger) List(ctx context.Context, filter order.ListFilter) ([]*order.Order, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	matches := make([]*order.Order, 0, len(l.orders))
	for _, o := range l.orders {
		if matchesFilter(o, filter) {
			matches = append(matches, o.Clone())
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

func matchesFilter(o *order.Order, f order.ListFilter) bool {
	if f.Status != nil && o.Status != *f.Status {
		return false
	}
	if f.PaymentStatus != nil && o.PaymentStatus != *f.PaymentStatus {
		return false
	}
	if f.AttendeeID != nil && o.Attendee.ID != *f.AttendeeID {
		return false
	}
	if f.CustomerName != "" &&
		!strings.Contains(strings.ToLower(o.Customer.Name), strings.ToLower(f.CustomerName)) {
		return false
	}
	return true
}
