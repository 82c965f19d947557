package booking

import "github.com/google/uuid"

// Role is the marketplace role of an actor.
type Role string

const (
	RoleClient   Role = "client"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
)

// Actor is the authenticated party attempting an operation.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// NewActor creates an Actor.
func NewActor(id uuid.UUID, role Role) Actor {
	return Actor{ID: id, Role: role}
}

// IsAdmin returns true for platform administrators.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }
