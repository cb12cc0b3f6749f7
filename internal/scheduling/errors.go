package scheduling

import (
	"errors"
	"fmt"
)

var (
	// ErrSlotTaken is returned when the requested slot is already claimed by a
	// non-terminal appointment at write time.
	ErrSlotTaken = errors.New("scheduling: slot no longer available")

	// ErrUnauthorized is returned when the actor is not permitted to trigger a
	// lifecycle transition on the appointment.
	ErrUnauthorized = errors.New("scheduling: actor not permitted for this transition")

	// ErrInvalidTransition is returned when no such edge exists in the
	// appointment state machine.
	ErrInvalidTransition = errors.New("scheduling: invalid status transition")

	// ErrAppointmentNotFound is returned when the referenced appointment does
	// not exist.
	ErrAppointmentNotFound = errors.New("scheduling: appointment not found")

	// ErrProviderCannotBook is returned when a provider attempts to book a
	// slot as if they were a patient.
	ErrProviderCannotBook = errors.New("scheduling: providers cannot book appointments as patients")
)

// ValidationError reports malformed or missing booking input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("scheduling: invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
