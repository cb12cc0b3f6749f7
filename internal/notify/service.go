package notify

import (
	"context"
	"fmt"

	"github.com/eclinicgh/telehealth-platform/internal/directory"
	"github.com/eclinicgh/telehealth-platform/internal/events"
	"github.com/eclinicgh/telehealth-platform/pkg/logging"
)

// Service turns appointment lifecycle events into emails for the party who
// needs to act on or know about them.
type Service struct {
	email     EmailSender
	directory directory.Store
	logger    *logging.Logger
}

// NewService creates a notification service.
func NewService(email EmailSender, dir directory.Store, logger *logging.Logger) *Service {
	if email == nil {
		email = NewStubEmailSender(logger)
	}
	if dir == nil {
		panic("notify: directory store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, directory: dir, logger: logger}
}

// HandleEvent routes one lifecycle event to the right recipient.
//
// requested  -> provider, who has a request to approve or decline
// approved   -> patient
// declined   -> patient
// cancelled  -> the party who did not cancel
func (s *Service) HandleEvent(ctx context.Context, evt events.AppointmentEvent) error {
	var recipientUID, recipientName string

	switch evt.Kind {
	case events.KindAppointmentRequested:
		recipientUID, recipientName = evt.ProviderUID, evt.ProviderName
	case events.KindAppointmentApproved, events.KindAppointmentDeclined:
		recipientUID, recipientName = evt.PatientUID, evt.PatientName
	case events.KindAppointmentCancelled:
		recipientUID, recipientName = evt.ProviderUID, evt.ProviderName
		if evt.ActorUID != evt.PatientUID {
			recipientUID, recipientName = evt.PatientUID, evt.PatientName
		}
	default:
		s.logger.Warn("ignoring unknown event kind", "kind", evt.Kind, "event_id", evt.ID)
		return nil
	}

	recipient, err := s.directory.GetUser(ctx, recipientUID)
	if err != nil {
		return fmt.Errorf("notify: failed to resolve recipient %s: %w", recipientUID, err)
	}

	subject, body := s.compose(evt)
	msg := EmailMessage{
		To:      recipient.Email,
		ToName:  recipientName,
		Subject: subject,
		Body:    body,
	}
	if err := s.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: failed to send %s email: %w", evt.Kind, err)
	}

	s.logger.Info("appointment notification sent",
		"kind", evt.Kind,
		"appointment_id", evt.AppointmentID,
		"to_uid", recipientUID,
	)
	return nil
}

func (s *Service) compose(evt events.AppointmentEvent) (subject, body string) {
	slot := fmt.Sprintf("%s at %s", evt.Date, evt.Time)

	switch evt.Kind {
	case events.KindAppointmentRequested:
		subject = fmt.Sprintf("New appointment request from %s", evt.PatientName)
		body = fmt.Sprintf(`%s has requested an appointment.

When: %s
Reason: %s

Please approve or decline the request from your dashboard.

— eClinic`, evt.PatientName, slot, evt.Reason)

	case events.KindAppointmentApproved:
		subject = fmt.Sprintf("Appointment confirmed with %s", evt.ProviderName)
		body = fmt.Sprintf(`Your appointment has been confirmed.

Provider: %s
When: %s

You can join the consultation from your appointments page.

— eClinic`, evt.ProviderName, slot)

	case events.KindAppointmentDeclined:
		subject = fmt.Sprintf("Appointment request declined by %s", evt.ProviderName)
		body = fmt.Sprintf(`Unfortunately %s could not accept your appointment request for %s.

The slot has been released. Please pick another time from their profile.

— eClinic`, evt.ProviderName, slot)

	case events.KindAppointmentCancelled:
		subject = "Appointment cancelled"
		body = fmt.Sprintf(`The appointment between %s and %s for %s has been cancelled.

The slot has been released.

— eClinic`, evt.PatientName, evt.ProviderName, slot)
	}
	return subject, body
}
