package directory

import (
	"errors"
	"strings"

	"github.com/eclinicgh/telehealth-platform/internal/identity"
)

var (
	// ErrUserNotFound is returned when the requested user does not exist.
	ErrUserNotFound = errors.New("directory: user not found")

	// ErrNotProvider is returned when a provider-only lookup hits a patient.
	ErrNotProvider = errors.New("directory: user is not a provider")

	// ErrNotOwner is returned when someone other than the owning provider
	// tries to mutate an availability map.
	ErrNotOwner = errors.New("directory: availability may only be changed by its owner")
)

// User is a portal account. Provider-specific fields are empty for patients.
type User struct {
	UID            string       `dynamodbav:"uid" json:"uid"`
	Email          string       `dynamodbav:"email" json:"email"`
	FullName       string       `dynamodbav:"fullName" json:"fullName"`
	Role           identity.Role `dynamodbav:"role" json:"role"`
	AvatarURL      string       `dynamodbav:"avatarUrl,omitempty" json:"avatarUrl,omitempty"`
	Specialty      string       `dynamodbav:"specialty,omitempty" json:"specialty,omitempty"`
	Hospital       string       `dynamodbav:"hospital,omitempty" json:"hospital,omitempty"`
	Bio            string       `dynamodbav:"bio,omitempty" json:"bio,omitempty"`
	Qualifications []string     `dynamodbav:"qualifications,omitempty" json:"qualifications,omitempty"`
	Availability   Availability `dynamodbav:"availability,omitempty" json:"availability,omitempty"`
}

// Snapshot is the denormalized copy of a user's display fields embedded in
// appointments and prescriptions at write time. Snapshots are deliberately not
// refreshed when the profile changes later.
type Snapshot struct {
	UID       string `dynamodbav:"uid" json:"uid"`
	Name      string `dynamodbav:"name" json:"name"`
	AvatarURL string `dynamodbav:"avatarUrl,omitempty" json:"avatarUrl,omitempty"`
	Specialty string `dynamodbav:"specialty,omitempty" json:"specialty,omitempty"`
}

// Snapshot captures the user's current display fields.
func (u *User) Snapshot() Snapshot {
	s := Snapshot{
		UID:       u.UID,
		Name:      u.FullName,
		AvatarURL: u.AvatarURL,
	}
	if u.Role == identity.RoleProvider {
		s.Specialty = u.Specialty
	}
	return s
}

// Validate checks the minimal account invariants.
func (u *User) Validate() error {
	if strings.TrimSpace(u.UID) == "" {
		return errors.New("directory: uid is required")
	}
	if strings.TrimSpace(u.FullName) == "" {
		return errors.New("directory: full name is required")
	}
	if _, err := identity.ParseRole(string(u.Role)); err != nil {
		return err
	}
	if u.Role == identity.RoleProvider {
		if err := u.Availability.Validate(); err != nil {
			return err
		}
	}
	return nil
}
