package notifyworker

import (
	"context"
	"sync"
	"time"

	"github.com/eclinicgh/telehealth-platform/internal/events"
	"github.com/eclinicgh/telehealth-platform/internal/notify"
	"github.com/eclinicgh/telehealth-platform/pkg/logging"
)

const (
	receiveBatchSize   = 10
	receiveWaitSeconds = 20
	retryBackoff       = 2 * time.Second
)

// Worker drains the appointment event queue and hands each event to the
// notification service. Failed events are left on the queue for redelivery.
type Worker struct {
	queue   events.Queue
	service *notify.Service
	logger  *logging.Logger
	count   int
}

// New creates a notification worker with the given concurrency.
func New(queue events.Queue, service *notify.Service, count int, logger *logging.Logger) *Worker {
	if queue == nil {
		panic("notifyworker: queue required")
	}
	if service == nil {
		panic("notifyworker: notify service required")
	}
	if count <= 0 {
		count = 1
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Worker{queue: queue, service: service, logger: logger, count: count}
}

// Run blocks until ctx is canceled.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("notification worker starting", "concurrency", w.count)

	var wg sync.WaitGroup
	for i := 0; i < w.count; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.loop(ctx, id)
		}(i)
	}
	wg.Wait()
	w.logger.Info("notification worker stopped")
}

func (w *Worker) loop(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msgs, err := w.queue.Receive(ctx, receiveBatchSize, receiveWaitSeconds)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("failed to receive events", "error", err, "worker", id)
			select {
			case <-time.After(retryBackoff):
			case <-ctx.Done():
				return
			}
			continue
		}

		for _, msg := range msgs {
			w.handle(ctx, msg, id)
		}
	}
}

func (w *Worker) handle(ctx context.Context, msg events.Message, id int) {
	evt, err := events.Decode(msg.Body)
	if err != nil {
		// An undecodable payload will never succeed; drop it.
		w.logger.Error("dropping malformed event", "error", err, "message_id", msg.ID)
		_ = w.queue.Delete(ctx, msg.ReceiptHandle)
		return
	}

	if err := w.service.HandleEvent(ctx, evt); err != nil {
		w.logger.Error("failed to handle event, leaving for redelivery",
			"error", err, "kind", evt.Kind, "event_id", evt.ID, "worker", id)
		return
	}

	if err := w.queue.Delete(ctx, msg.ReceiptHandle); err != nil {
		w.logger.Warn("failed to delete handled event", "error", err, "message_id", msg.ID)
	}
}
