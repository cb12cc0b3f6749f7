// Package identity models the authenticated caller. The auth provider issues an
// opaque stable user id and a role claim; everything downstream treats that pair
// as authoritative and receives it as an explicit argument, never from ambient
// state.
package identity

import "errors"

// Role distinguishes the two portal user types.
type Role string

const (
	RolePatient  Role = "patient"
	RoleProvider Role = "provider"
)

// ErrUnknownRole is returned when a token carries a role outside the enum.
var ErrUnknownRole = errors.New("identity: unknown role")

// ParseRole validates a role claim value.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RolePatient, RoleProvider:
		return Role(s), nil
	}
	return "", ErrUnknownRole
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   string
	Role Role
}

// IsProvider reports whether the actor holds the provider role.
func (a Actor) IsProvider() bool {
	return a.Role == RoleProvider
}
