package notifyworker

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclinicgh/telehealth-platform/internal/directory"
	"github.com/eclinicgh/telehealth-platform/internal/events"
	"github.com/eclinicgh/telehealth-platform/internal/identity"
	"github.com/eclinicgh/telehealth-platform/internal/notify"
	"github.com/eclinicgh/telehealth-platform/pkg/logging"
)

type capturingSender struct {
	mu   sync.Mutex
	sent []notify.EmailMessage
}

func (c *capturingSender) Send(ctx context.Context, msg notify.EmailMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return nil
}

func (c *capturingSender) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func TestWorkerDrainsQueue(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := directory.NewInMemoryStore()
	require.NoError(t, dir.PutUser(ctx, &directory.User{
		UID: "user-001", Email: "k.mensah@email.com", FullName: "Kwame Mensah", Role: identity.RolePatient,
	}))
	require.NoError(t, dir.PutUser(ctx, &directory.User{
		UID: "doc-001", Email: "dr.ama@eclinic.gh", FullName: "Dr. Ama Adom", Role: identity.RoleProvider,
	}))

	sender := &capturingSender{}
	service := notify.NewService(sender, dir, logging.Default())
	queue := events.NewMemoryQueue(8)
	worker := New(queue, service, 2, logging.Default())

	evt := events.AppointmentEvent{
		ID:            "evt-001",
		Kind:          events.KindAppointmentRequested,
		AppointmentID: "appt-001",
		PatientUID:    "user-001",
		PatientName:   "Kwame Mensah",
		ProviderUID:   "doc-001",
		ProviderName:  "Dr. Ama Adom",
		Date:          "2024-08-15",
		Time:          "09:00",
		Reason:        "Checkup",
		ActorUID:      "user-001",
	}
	body, err := json.Marshal(evt)
	require.NoError(t, err)
	require.NoError(t, queue.Send(ctx, string(body)))

	// A malformed payload must be dropped without stalling the worker.
	require.NoError(t, queue.Send(ctx, "not-json"))

	done := make(chan struct{})
	go func() {
		worker.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return sender.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}

	assert.Equal(t, "dr.ama@eclinic.gh", sender.sent[0].To)
}
