package prescriptions

import (
	"errors"
	"strings"

	"github.com/eclinicgh/telehealth-platform/internal/directory"
)

// ErrPrescriptionNotFound is returned when no prescription exists for an id.
var ErrPrescriptionNotFound = errors.New("prescriptions: prescription not found")

// ErrNotProvider is returned when a non-provider tries to issue a prescription.
var ErrNotProvider = errors.New("prescriptions: only providers may issue prescriptions")

// Prescription is an issued medication order. Party snapshots are captured at
// issue time so lists render without directory lookups.
type Prescription struct {
	ID          string             `json:"id" dynamodbav:"id"`
	PatientUID  string             `json:"-" dynamodbav:"patientUid"`
	ProviderUID string             `json:"-" dynamodbav:"providerUid"`
	Patient     directory.Snapshot `json:"patient" dynamodbav:"patient"`
	Provider    directory.Snapshot `json:"provider" dynamodbav:"provider"`
	Medication  string             `json:"medication" dynamodbav:"medication"`
	Dosage      string             `json:"dosage" dynamodbav:"dosage"`
	Frequency   string             `json:"frequency" dynamodbav:"frequency"`
	Duration    string             `json:"duration" dynamodbav:"duration"`
	Notes       string             `json:"notes,omitempty" dynamodbav:"notes,omitempty"`
	IssuedAt    string             `json:"issuedAt" dynamodbav:"issuedAt"`
}

// ValidationError reports a rejected prescription field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "prescriptions: invalid " + e.Field + ": " + e.Reason
}

// IsValidation reports whether err is a field validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Validate checks the fields a prescription cannot be issued without.
func (p *Prescription) Validate() error {
	if strings.TrimSpace(p.PatientUID) == "" {
		return &ValidationError{Field: "patientUid", Reason: "required"}
	}
	if strings.TrimSpace(p.Medication) == "" {
		return &ValidationError{Field: "medication", Reason: "required"}
	}
	if strings.TrimSpace(p.Dosage) == "" {
		return &ValidationError{Field: "dosage", Reason: "required"}
	}
	if strings.TrimSpace(p.Frequency) == "" {
		return &ValidationError{Field: "frequency", Reason: "required"}
	}
	return nil
}
