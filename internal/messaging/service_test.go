package messaging

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclinicgh/telehealth-platform/internal/directory"
	"github.com/eclinicgh/telehealth-platform/internal/identity"
	"github.com/eclinicgh/telehealth-platform/internal/scheduling"
	"github.com/eclinicgh/telehealth-platform/pkg/logging"
)

var (
	patientActor  = identity.Actor{ID: "user-001", Role: identity.RolePatient}
	providerActor = identity.Actor{ID: "doc-001", Role: identity.RoleProvider}
	strangerActor = identity.Actor{ID: "user-002", Role: identity.RolePatient}
)

type recordingDeliverer struct {
	mu        sync.Mutex
	delivered map[string][]*Message
}

func (d *recordingDeliverer) Deliver(recipientUID string, msg *Message) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.delivered == nil {
		d.delivered = make(map[string][]*Message)
	}
	d.delivered[recipientUID] = append(d.delivered[recipientUID], msg)
}

func newTestChat(t *testing.T) (*Service, *recordingDeliverer) {
	t.Helper()
	ctx := context.Background()

	dir := directory.NewInMemoryStore()
	require.NoError(t, dir.PutUser(ctx, &directory.User{
		UID: "user-001", Email: "k.mensah@email.com", FullName: "Kwame Mensah", Role: identity.RolePatient,
	}))
	require.NoError(t, dir.PutUser(ctx, &directory.User{
		UID: "user-002", Email: "a.osei@email.com", FullName: "Abena Osei", Role: identity.RolePatient,
	}))
	require.NoError(t, dir.PutUser(ctx, &directory.User{
		UID: "doc-001", Email: "dr.ama@eclinic.gh", FullName: "Dr. Ama Adom", Role: identity.RoleProvider, Specialty: "Cardiologist",
	}))

	appts := scheduling.NewInMemoryStore()
	require.NoError(t, appts.Create(ctx, &scheduling.Appointment{
		ID:          "appt-001",
		PatientUID:  "user-001",
		ProviderUID: "doc-001",
		Patient:     directory.Snapshot{UID: "user-001", Name: "Kwame Mensah"},
		Provider:    directory.Snapshot{UID: "doc-001", Name: "Dr. Ama Adom", Specialty: "Cardiologist"},
		Date:        "2024-08-15",
		Time:        "09:00",
		Reason:      "Checkup",
		Status:      scheduling.StatusUpcoming,
	}))

	deliverer := &recordingDeliverer{}
	svc := NewService(NewInMemoryStore(), dir, appts, deliverer, logging.Default())
	return svc, deliverer
}

func TestContactsDerivedFromAppointments(t *testing.T) {
	svc, _ := newTestChat(t)
	ctx := context.Background()

	contacts, err := svc.Contacts(ctx, patientActor)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Dr. Ama Adom", contacts[0].Name)
	assert.Equal(t, ConversationID("user-001", "doc-001"), contacts[0].ConversationID)

	contacts, err = svc.Contacts(ctx, providerActor)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Kwame Mensah", contacts[0].Name)

	contacts, err = svc.Contacts(ctx, strangerActor)
	require.NoError(t, err)
	assert.Empty(t, contacts)
}

func TestSendAndHistory(t *testing.T) {
	svc, deliverer := newTestChat(t)
	ctx := context.Background()

	sent, err := svc.Send(ctx, patientActor, "doc-001", "Hello doctor")
	require.NoError(t, err)
	assert.Equal(t, "user-001", sent.SenderUID)
	assert.Equal(t, "doc-001", sent.RecipientUID)
	assert.False(t, sent.SentAt.IsZero())

	_, err = svc.Send(ctx, providerActor, "user-001", "Hello Kwame")
	require.NoError(t, err)

	// Both parties read the same thread.
	for _, actor := range []identity.Actor{patientActor, providerActor} {
		msgs, err := svc.History(ctx, actor, peerOf(actor))
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, "Hello doctor", msgs[0].Text)
		assert.Equal(t, "Hello Kwame", msgs[1].Text)
	}

	assert.Len(t, deliverer.delivered["doc-001"], 1)
	assert.Len(t, deliverer.delivered["user-001"], 1)
}

func peerOf(actor identity.Actor) string {
	if actor.IsProvider() {
		return "user-001"
	}
	return "doc-001"
}

func TestSendRejections(t *testing.T) {
	svc, _ := newTestChat(t)
	ctx := context.Background()

	_, err := svc.Send(ctx, patientActor, "doc-001", "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	// No shared appointment.
	_, err = svc.Send(ctx, strangerActor, "doc-001", "Hello")
	assert.ErrorIs(t, err, ErrNotParticipant)

	// Unknown peer.
	_, err = svc.Send(ctx, patientActor, "doc-999", "Hello")
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestDeleteForMeIsPerViewer(t *testing.T) {
	svc, _ := newTestChat(t)
	ctx := context.Background()

	msg, err := svc.Send(ctx, patientActor, "doc-001", "Please disregard")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteForMe(ctx, patientActor, "doc-001", msg.ID))

	mine, err := svc.History(ctx, patientActor, "doc-001")
	require.NoError(t, err)
	assert.Empty(t, mine, "deleted message must leave the deleter's view")

	theirs, err := svc.History(ctx, providerActor, "user-001")
	require.NoError(t, err)
	require.Len(t, theirs, 1, "counterparty keeps seeing the message")
	assert.Equal(t, "Please disregard", theirs[0].Text)

	assert.ErrorIs(t, svc.DeleteForMe(ctx, patientActor, "doc-001", "missing"), ErrMessageNotFound)
	assert.ErrorIs(t, svc.DeleteForMe(ctx, strangerActor, "doc-001", msg.ID), ErrNotParticipant)
}

func TestConversationIDIsOrderIndependent(t *testing.T) {
	assert.Equal(t, ConversationID("a", "b"), ConversationID("b", "a"))
	assert.Equal(t, "doc-001#user-001", ConversationID("user-001", "doc-001"))
}
