package staff

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/retailops/core/internal/domain/shared"
)

// Role represents the operational role of a staff member
type Role string

const (
	RoleAttendee        Role = "attendee"
	RoleReceptionist    Role = "receptionist"
	RolePackager        Role = "packager"
	RoleStorekeeper     Role = "storekeeper"
	RoleWarehouseKeeper Role = "warehouse_keeper"
	RoleAdmin           Role = "admin"
)

// IsValid checks if the role is a known staff role
func (r Role) IsValid() bool {
	switch r {
	case RoleAttendee, RoleReceptionist, RolePackager, RoleStorekeeper, RoleWarehouseKeeper, RoleAdmin:
		return true
	}
	return false
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// Ref is a denormalized snapshot of a staff member taken at assignment time.
// Orders keep the copy plus the live ID for lookup; later profile edits in the
// backend do not rewrite history.
type Ref struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Phone string    `json:"phone,omitempty"`
	Role  Role      `json:"role"`
}

// IsZero returns true if the ref does not point at a staff member
func (r Ref) IsZero() bool {
	return r.ID == uuid.Nil
}

// Session carries the acting user through every operation that needs identity
// or role checks. It replaces ambient lookups (the previous client kept the
// current user in browser storage).
type Session struct {
	UserID    uuid.UUID
	Name      string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Actor returns the session's staff snapshot
func (s Session) Actor() Ref {
	return Ref{ID: s.UserID, Name: s.Name, Role: s.Role}
}

// HasRole checks if the session's role matches
func (s Session) HasRole(role Role) bool {
	return s.Role == role
}

// HasAnyRole checks if the session's role is one of the given roles
func (s Session) HasAnyRole(roles ...Role) bool {
	for _, role := range roles {
		if s.Role == role {
			return true
		}
	}
	return false
}

// Validate checks the session for use as an acting identity
func (s Session) Validate() error {
	if s.UserID == uuid.Nil {
		return shared.NewValidationError("Session user ID cannot be empty")
	}
	if !s.Role.IsValid() {
		return shared.NewValidationError("Session role is not a known staff role")
	}
	return nil
}

// Directory resolves staff IDs against the remote backend. Assignment guards
// use it to verify that an assignee exists and holds the required role.
type Directory interface {
	// Resolve returns the staff member for the given ID.
	// Returns a NOT_FOUND domain error when the ID is unknown.
	Resolve(ctx context.Context, id uuid.UUID) (Ref, error)
}
