package services

import (
	"context"
	"time"

	"tiketku/internal/queue"
	"tiketku/internal/utils"
)

// Dispatcher hands finalized engine events to downstream channels
// (email/SMS, ticket encoding). Calls happen only after the owning
// transaction committed, never block the caller, and never surface errors
// into booking results.
type Dispatcher interface {
	BookingCreated(ev queue.BookingCreatedEvent)
	BookingCancelled(ev queue.BookingCancelledEvent)
	PaymentSettled(ev queue.PaymentSettledEvent)
}

// QueueDispatcher publishes events to RabbitMQ on a detached goroutine per
// event. Publish errors are logged by the publisher and dropped here.
type QueueDispatcher struct {
	Publisher queue.Publisher
	RequestID string
}

func (d QueueDispatcher) BookingCreated(ev queue.BookingCreatedEvent) {
	d.fire(queue.BookingCreatedQueue, ev)
}

func (d QueueDispatcher) BookingCancelled(ev queue.BookingCancelledEvent) {
	d.fire(queue.BookingCancelledQueue, ev)
}

func (d QueueDispatcher) PaymentSettled(ev queue.PaymentSettledEvent) {
	d.fire(queue.PaymentSettledQueue, ev)
}

func (d QueueDispatcher) fire(queueName string, payload any) {
	requestID := d.RequestID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.Publisher.Publish(ctx, queueName, payload); err != nil {
			utils.LogEvent(requestID, "notify", "publish", queueName+" gagal: "+err.Error())
		}
	}()
}
