// Package notify fans order status changes out to subscribers.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"catering/internal/domain/model"
)

const (
	EventOrderStatusUpdated = "order_status_updated"

	// TopicAdmin receives every status change.
	TopicAdmin = "admin"
)

// UserTopic is the per-customer topic ("user:42").
func UserTopic(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}

// Publisher delivers an encoded message to everyone subscribed to topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

type Envelope struct {
	Event string        `json:"event"`
	Data  StatusPayload `json:"data"`
}

type StatusPayload struct {
	OrderID     int64     `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	Status      string    `json:"status"`
	UpdatedBy   int64     `json:"updatedBy"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func NewEnvelope(ev model.StatusChangeEvent) Envelope {
	return Envelope{
		Event: EventOrderStatusUpdated,
		Data: StatusPayload{
			OrderID:     ev.OrderID,
			OrderNumber: ev.OrderNumber,
			Status:      string(ev.Status),
			UpdatedBy:   ev.UpdatedBy,
			UpdatedAt:   ev.UpdatedAt.UTC(),
		},
	}
}

// DefaultQueueSize is how many encoded events may wait for the worker.
const DefaultQueueSize = 256

// Dispatcher publishes status changes to the owner's topic and the admin topic.
// OrderStatusChanged only enqueues; a single worker goroutine does the I/O.
// When the queue is full the event is dropped and logged. Publish failures are
// logged and never returned.
type Dispatcher struct {
	publishers []Publisher
	timeout    time.Duration
	logger     *slog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan job
	done   chan struct{}
}

type job struct {
	ctx     context.Context
	payload []byte
	ev      model.StatusChangeEvent
}

// NewDispatcher starts the worker; call Close to drain and stop it.
func NewDispatcher(logger *slog.Logger, timeout time.Duration, publishers ...Publisher) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		publishers: publishers,
		timeout:    timeout,
		logger:     logger,
		queue:      make(chan job, DefaultQueueSize),
		done:       make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) OrderStatusChanged(ctx context.Context, ev model.StatusChangeEvent) {
	payload, err := json.Marshal(NewEnvelope(ev))
	if err != nil {
		d.logger.Error("encode status event", "order_id", ev.OrderID, "err", err)
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warn("status event dropped: dispatcher closed", "order_id", ev.OrderID, "status", ev.Status)
		return
	}

	select {
	case d.queue <- job{ctx: context.WithoutCancel(ctx), payload: payload, ev: ev}:
	default:
		d.logger.Warn("status event dropped: queue full", "order_id", ev.OrderID, "status", ev.Status, "queue_size", cap(d.queue))
	}
}

// Close stops accepting events and waits until the queued ones are published
// or ctx is done. Safe to call more than once.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)

	for j := range d.queue {
		topics := []string{UserTopic(j.ev.UserID), TopicAdmin}
		for _, p := range d.publishers {
			for _, topic := range topics {
				d.publish(j.ctx, p, topic, j.payload, j.ev)
			}
		}
	}
}

func (d *Dispatcher) publish(ctx context.Context, p Publisher, topic string, payload []byte, ev model.StatusChangeEvent) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	if err := p.Publish(ctx, topic, payload); err != nil {
		d.logger.Warn("publish status event failed",
			"topic", topic,
			"order_id", ev.OrderID,
			"order_number", ev.OrderNumber,
			"status", ev.Status,
			"err", err,
		)
		return
	}
	d.logger.Debug("status event published", "topic", topic, "order_id", ev.OrderID, "status", ev.Status)
}
