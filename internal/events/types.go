// Package events carries appointment lifecycle notifications from the write
// path to the notification worker. Delivery is at-least-once; consumers must
// tolerate duplicates.
package events

import "time"

// Kind identifies the lifecycle change an event describes.
type Kind string

const (
	KindAppointmentRequested Kind = "appointment.requested.v1"
	KindAppointmentApproved  Kind = "appointment.approved.v1"
	KindAppointmentDeclined  Kind = "appointment.declined.v1"
	KindAppointmentCancelled Kind = "appointment.cancelled.v1"
)

// AppointmentEvent is the envelope published on every lifecycle change. It
// carries the denormalized display fields so the worker can compose an email
// without re-reading the appointment.
type AppointmentEvent struct {
	ID            string    `json:"id"`
	Kind          Kind      `json:"kind"`
	AppointmentID string    `json:"appointmentId"`
	PatientUID    string    `json:"patientUid"`
	PatientName   string    `json:"patientName"`
	ProviderUID   string    `json:"providerUid"`
	ProviderName  string    `json:"providerName"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	Reason        string    `json:"reason,omitempty"`
	ActorUID      string    `json:"actorUid,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}
