package scheduling

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/eclinicgh/telehealth-platform/internal/directory"
	"github.com/eclinicgh/telehealth-platform/internal/events"
	"github.com/eclinicgh/telehealth-platform/internal/identity"
	"github.com/eclinicgh/telehealth-platform/internal/observability/metrics"
	"github.com/eclinicgh/telehealth-platform/pkg/logging"
)

var schedulingTracer = otel.Tracer("eclinic.internal.scheduling")

// Publisher emits lifecycle events for the notification worker. Publishing is
// best-effort: a queue failure never fails the booking write.
type Publisher interface {
	Publish(ctx context.Context, evt events.AppointmentEvent) error
}

// Service coordinates the slot resolver, the lifecycle state machine and the
// appointment store.
type Service struct {
	store     Store
	directory directory.Store
	holder    SlotHolder
	publisher Publisher
	metrics   *metrics.BookingMetrics
	logger    *logging.Logger
	now       func() time.Time
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithSlotHolder installs a cross-instance slot hold.
func WithSlotHolder(h SlotHolder) Option {
	return func(s *Service) {
		if h != nil {
			s.holder = h
		}
	}
}

// WithPublisher installs the lifecycle event publisher.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithMetrics installs booking metrics.
func WithMetrics(m *metrics.BookingMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the time source. Tests use this to pin "now".
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService constructs a scheduling service.
func NewService(store Store, dir directory.Store, logger *logging.Logger, opts ...Option) *Service {
	if store == nil {
		panic("scheduling: store required")
	}
	if dir == nil {
		panic("scheduling: directory store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		store:     store,
		directory: dir,
		holder:    NoopSlotHolder{},
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenSlots returns the time labels still offerable for a provider on a date.
func (s *Service) OpenSlots(ctx context.Context, providerUID, date string) ([]string, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, &ValidationError{Field: "date", Reason: "must be an ISO calendar date"}
	}

	provider, err := s.directory.GetUser(ctx, providerUID)
	if err != nil {
		return nil, err
	}
	if provider.Role != identity.RoleProvider {
		return nil, directory.ErrUserNotFound
	}

	claimed, err := s.store.ClaimedTimes(ctx, providerUID, date)
	if err != nil {
		return nil, err
	}
	return ResolveOpenSlots(provider.Availability, date, claimed), nil
}

// BookRequest is a patient's request to claim a slot.
type BookRequest struct {
	ProviderUID string `json:"providerUid"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Reason      string `json:"reason"`
}

func (r *BookRequest) validate() error {
	if strings.TrimSpace(r.ProviderUID) == "" {
		return &ValidationError{Field: "providerUid", Reason: "required"}
	}
	if _, err := time.Parse(dateLayout, r.Date); err != nil {
		return &ValidationError{Field: "date", Reason: "must be an ISO calendar date"}
	}
	if _, err := time.Parse(timeLayout, r.Time); err != nil {
		return &ValidationError{Field: "time", Reason: "must be a HH:MM label"}
	}
	if strings.TrimSpace(r.Reason) == "" {
		return &ValidationError{Field: "reason", Reason: "required"}
	}
	return nil
}

// Book atomically turns a slot selection into a pending appointment. The
// requested label is re-validated against current availability and claims at
// write time; losing the race surfaces ErrSlotTaken, never a double booking.
func (s *Service) Book(ctx context.Context, actor identity.Actor, req BookRequest) (*Appointment, error) {
	ctx, span := schedulingTracer.Start(ctx, "scheduling.book")
	defer span.End()
	span.SetAttributes(
		attribute.String("eclinic.provider_uid", req.ProviderUID),
		attribute.String("eclinic.slot", req.Date+" "+req.Time),
	)

	if actor.IsProvider() {
		s.metrics.ObserveBooking("rejected")
		return nil, ErrProviderCannotBook
	}
	if err := req.validate(); err != nil {
		s.metrics.ObserveBooking("invalid")
		return nil, err
	}

	patient, err := s.directory.GetUser(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, directory.ErrUserNotFound) {
			return nil, &ValidationError{Field: "patient", Reason: "profile not found"}
		}
		return nil, err
	}
	provider, err := s.directory.GetUser(ctx, req.ProviderUID)
	if err != nil {
		if errors.Is(err, directory.ErrUserNotFound) {
			return nil, &ValidationError{Field: "provider", Reason: "not found"}
		}
		return nil, err
	}
	if provider.Role != identity.RoleProvider {
		return nil, &ValidationError{Field: "provider", Reason: "not found"}
	}

	declared := false
	for _, label := range provider.Availability.TimesOn(req.Date) {
		if label == req.Time {
			declared = true
			break
		}
	}
	if !declared {
		s.metrics.ObserveBooking("invalid")
		return nil, &ValidationError{Field: "time", Reason: "not offered on this date"}
	}

	appt := &Appointment{
		ID:          uuid.NewString(),
		PatientUID:  patient.UID,
		ProviderUID: provider.UID,
		Patient:     patient.Snapshot(),
		Provider:    provider.Snapshot(),
		Date:        req.Date,
		Time:        req.Time,
		Reason:      strings.TrimSpace(req.Reason),
		Status:      StatusPending,
	}

	err = s.holder.WithSlotHold(ctx, SlotKey(appt.ProviderUID, appt.Date, appt.Time), func(ctx context.Context) error {
		return s.store.Create(ctx, appt)
	})
	if err != nil {
		if errors.Is(err, ErrSlotTaken) {
			s.metrics.ObserveBooking("conflict")
			s.metrics.ObserveSlotConflict()
			return nil, ErrSlotTaken
		}
		span.RecordError(err)
		s.metrics.ObserveBooking("error")
		return nil, err
	}

	s.metrics.ObserveBooking("created")
	s.logger.Info("appointment requested",
		"appointment_id", appt.ID,
		"patient_uid", appt.PatientUID,
		"provider_uid", appt.ProviderUID,
		"date", appt.Date,
		"time", appt.Time,
	)
	s.publish(ctx, events.KindAppointmentRequested, appt, actor)
	return appt, nil
}

// Transition moves an appointment to the target status on behalf of the
// actor, enforcing the state machine and its authorization rules.
func (s *Service) Transition(ctx context.Context, actor identity.Actor, appointmentID string, to Status) (*Appointment, error) {
	ctx, span := schedulingTracer.Start(ctx, "scheduling.transition")
	defer span.End()
	span.SetAttributes(
		attribute.String("eclinic.appointment_id", appointmentID),
		attribute.String("eclinic.target_status", string(to)),
	)

	appt, err := s.store.Get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if err := AuthorizeTransition(appt, to, actor); err != nil {
		return nil, err
	}

	from := appt.Status
	if err := s.store.UpdateStatus(ctx, appt, to); err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.metrics.ObserveTransition(string(to))
	s.logger.Info("appointment transitioned",
		"appointment_id", appt.ID,
		"from", from,
		"to", to,
		"actor_uid", actor.ID,
	)

	switch {
	case from == StatusPending && to == StatusUpcoming:
		s.publish(ctx, events.KindAppointmentApproved, appt, actor)
	case from == StatusPending && to == StatusCancelled:
		s.publish(ctx, events.KindAppointmentDeclined, appt, actor)
	case from == StatusUpcoming && to == StatusCancelled:
		s.publish(ctx, events.KindAppointmentCancelled, appt, actor)
	}
	return appt, nil
}

// List returns the actor's appointments with the read-time status applied:
// upcoming appointments whose start has elapsed read as past.
func (s *Service) List(ctx context.Context, actor identity.Actor) ([]*Appointment, error) {
	appts, err := s.store.ListForActor(ctx, actor)
	if err != nil {
		// List views may degrade to empty; write paths never do.
		s.logger.Warn("appointment listing degraded to empty", "error", err, "actor_uid", actor.ID)
		return []*Appointment{}, nil
	}
	now := s.now()
	for _, appt := range appts {
		appt.Status = appt.EffectiveStatus(now)
	}
	return appts, nil
}

func (s *Service) publish(ctx context.Context, kind events.Kind, appt *Appointment, actor identity.Actor) {
	if s.publisher == nil {
		return
	}
	evt := events.AppointmentEvent{
		Kind:          kind,
		AppointmentID: appt.ID,
		PatientUID:    appt.PatientUID,
		PatientName:   appt.Patient.Name,
		ProviderUID:   appt.ProviderUID,
		ProviderName:  appt.Provider.Name,
		Date:          appt.Date,
		Time:          appt.Time,
		Reason:        appt.Reason,
		ActorUID:      actor.ID,
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("failed to publish appointment event", "error", err, "kind", kind, "appointment_id", appt.ID)
	}
}
