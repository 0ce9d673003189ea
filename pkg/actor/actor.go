package actor

import (
	"errors"
	"slices"
	"strings"
)

var (
	// ErrUnauthenticated is returned when a request carries no actor.
	ErrUnauthenticated = errors.New("actor.unauthenticated")

	// ErrForbidden is returned when the actor's role lacks a permission.
	ErrForbidden = errors.New("actor.forbidden")
)

// Role is the coarse authorization level assigned by the gateway.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleViewer Role = "VIEWER"
)

// ParseRole normalises a header value. Unknown roles map to "".
func ParseRole(s string) Role {
	switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleViewer:
		return r
	}
	return ""
}

// Permission names one guarded capability.
type Permission string

const (
	PermFlagsRead  Permission = "flags:read"
	PermFlagsWrite Permission = "flags:write"
	// PermFlagsAdmin allows listing archived flags.
	PermFlagsAdmin Permission = "flags:admin"
	PermKillSwitch Permission = "killswitch:manage"
	PermAuditRead  Permission = "audit:read"
)

var rolePermissions = map[Role][]Permission{
	RoleAdmin:  {PermFlagsRead, PermFlagsWrite, PermFlagsAdmin, PermKillSwitch, PermAuditRead},
	RoleViewer: {PermFlagsRead},
}

// Actor identifies who performs an operation.
type Actor struct {
	ID        string
	Role      Role
	IP        string
	RequestID string
}

// System returns an admin actor for internal jobs such as seeding.
func System(id string) Actor {
	return Actor{ID: id, Role: RoleAdmin}
}

// Validate reports ErrUnauthenticated when the actor has no identity.
func (a Actor) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return ErrUnauthenticated
	}
	return nil
}

// Can returns nil when the actor's role grants p.
func (a Actor) Can(p Permission) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if !slices.Contains(rolePermissions[a.Role], p) {
		return ErrForbidden
	}
	return nil
}
