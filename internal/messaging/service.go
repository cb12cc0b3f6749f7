package messaging

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/eclinicgh/telehealth-platform/internal/directory"
	"github.com/eclinicgh/telehealth-platform/internal/identity"
	"github.com/eclinicgh/telehealth-platform/internal/scheduling"
	"github.com/eclinicgh/telehealth-platform/pkg/logging"
)

var messagingTracer = otel.Tracer("eclinic.internal.messaging")

// AppointmentSource lists the appointments an actor is a party to. Chat
// contacts are derived from appointment history, so two users can message
// each other only once they share an appointment.
type AppointmentSource interface {
	ListForActor(ctx context.Context, actor identity.Actor) ([]*scheduling.Appointment, error)
}

// Deliverer pushes a stored message to the recipient's live connection, if
// any. Delivery is best-effort.
type Deliverer interface {
	Deliver(recipientUID string, msg *Message)
}

// Service coordinates chat threads between appointment parties.
type Service struct {
	store        Store
	directory    directory.Store
	appointments AppointmentSource
	deliverer    Deliverer
	logger       *logging.Logger
}

// NewService constructs a messaging service. The deliverer is optional.
func NewService(store Store, dir directory.Store, appts AppointmentSource, deliverer Deliverer, logger *logging.Logger) *Service {
	if store == nil {
		panic("messaging: store required")
	}
	if dir == nil {
		panic("messaging: directory store required")
	}
	if appts == nil {
		panic("messaging: appointment source required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: store, directory: dir, appointments: appts, deliverer: deliverer, logger: logger}
}

// Contacts returns the actor's chat peers, one per counterparty across all of
// their appointments.
func (s *Service) Contacts(ctx context.Context, actor identity.Actor) ([]Contact, error) {
	appts, err := s.appointments.ListForActor(ctx, actor)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	contacts := make([]Contact, 0)
	for _, appt := range appts {
		peer := appt.Provider
		peerUID := appt.ProviderUID
		if actor.IsProvider() {
			peer = appt.Patient
			peerUID = appt.PatientUID
		}
		if peerUID == "" {
			peerUID = peer.UID
		}
		if seen[peerUID] {
			continue
		}
		seen[peerUID] = true
		contacts = append(contacts, Contact{
			Snapshot:       peer,
			ConversationID: ConversationID(actor.ID, peerUID),
		})
	}
	return contacts, nil
}

// isContact reports whether the actor shares at least one appointment with
// the peer.
func (s *Service) isContact(ctx context.Context, actor identity.Actor, peerUID string) (bool, error) {
	appts, err := s.appointments.ListForActor(ctx, actor)
	if err != nil {
		return false, err
	}
	for _, appt := range appts {
		if appt.PatientUID == peerUID || appt.ProviderUID == peerUID {
			return true, nil
		}
		if appt.Patient.UID == peerUID || appt.Provider.UID == peerUID {
			return true, nil
		}
	}
	return false, nil
}

// Send appends a message from the actor to the peer and pushes it to the
// peer's live connection when one exists.
func (s *Service) Send(ctx context.Context, actor identity.Actor, peerUID, text string) (*Message, error) {
	ctx, span := messagingTracer.Start(ctx, "messaging.send")
	defer span.End()
	span.SetAttributes(attribute.String("eclinic.conversation_id", ConversationID(actor.ID, peerUID)))

	if err := validateText(text); err != nil {
		return nil, err
	}
	if _, err := s.directory.GetUser(ctx, peerUID); err != nil {
		if errors.Is(err, directory.ErrUserNotFound) {
			return nil, ErrNotParticipant
		}
		return nil, err
	}
	ok, err := s.isContact(ctx, actor, peerUID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotParticipant
	}

	msg := &Message{
		ID:             uuid.NewString(),
		ConversationID: ConversationID(actor.ID, peerUID),
		SenderUID:      actor.ID,
		RecipientUID:   peerUID,
		Text:           text,
		SentAt:         time.Now().UTC(),
	}
	if err := s.store.Append(ctx, msg); err != nil {
		span.RecordError(err)
		return nil, err
	}

	if s.deliverer != nil {
		s.deliverer.Deliver(peerUID, msg)
	}
	return msg, nil
}

// History returns the conversation between the actor and the peer, with
// messages the actor deleted for themselves filtered out.
func (s *Service) History(ctx context.Context, actor identity.Actor, peerUID string) ([]*Message, error) {
	ok, err := s.isContact(ctx, actor, peerUID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotParticipant
	}

	msgs, err := s.store.List(ctx, ConversationID(actor.ID, peerUID))
	if err != nil {
		return nil, err
	}
	visible := make([]*Message, 0, len(msgs))
	for _, msg := range msgs {
		if msg.DeletedFor(actor.ID) {
			continue
		}
		visible = append(visible, msg)
	}
	return visible, nil
}

// DeleteForMe removes a message from the actor's own view of the thread. The
// counterparty keeps seeing it.
func (s *Service) DeleteForMe(ctx context.Context, actor identity.Actor, peerUID, messageID string) error {
	ok, err := s.isContact(ctx, actor, peerUID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotParticipant
	}
	return s.store.MarkDeleted(ctx, ConversationID(actor.ID, peerUID), messageID, actor.ID)
}
