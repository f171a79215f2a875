package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/vaccine-scheduler/internal/events"
)

// EventSink consumes events off the dispatcher.
type EventSink interface {
	Handle(ctx context.Context, event events.Event) error
}

// NotificationWorker moves event delivery off the command path: dispatcher
// handlers only enqueue, and a single goroutine feeds the sink in order.
type NotificationWorker struct {
	sink   EventSink
	logger *zap.Logger
	queue  chan events.Event
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewNotificationWorker creates a worker with the given queue capacity.
func NewNotificationWorker(sink EventSink, logger *zap.Logger, capacity int) *NotificationWorker {
	if capacity <= 0 {
		capacity = 64
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationWorker{
		sink:   sink,
		logger: logger,
		queue:  make(chan events.Event, capacity),
	}
}

// StartNotificationWorker subscribes the worker to every event type and
// starts draining. Stop must be called to flush pending events.
func StartNotificationWorker(dispatcher events.Dispatcher, sink EventSink, logger *zap.Logger) *NotificationWorker {
	w := NewNotificationWorker(sink, logger, 0)
	if dispatcher != nil {
		for _, t := range events.AllEventTypes {
			dispatcher.Subscribe(t, w.Enqueue)
		}
	}
	w.Start()
	return w
}

// Start launches the drain goroutine.
func (w *NotificationWorker) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for event := range w.queue {
			if err := w.sink.Handle(context.Background(), event); err != nil {
				w.logger.Warn("notification delivery failed",
					zap.String("event_id", event.ID),
					zap.String("event_type", string(event.Type)),
					zap.Error(err))
			}
		}
	}()
}

// Enqueue hands an event to the worker. A full queue, or a stopped worker,
// drops the event.
func (w *NotificationWorker) Enqueue(_ context.Context, event events.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		w.logger.Warn("notification worker stopped; dropping event",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)))
		return nil
	}
	select {
	case w.queue <- event:
	default:
		w.logger.Warn("notification queue full; dropping event",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)))
	}
	return nil
}

// Stop closes the queue and waits for pending events to be delivered.
// Events enqueued afterwards are dropped.
func (w *NotificationWorker) Stop() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()
	w.wg.Wait()
}
