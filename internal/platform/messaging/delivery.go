package messaging

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

const (
	// HeaderAttempt carries the 1-based delivery attempt across retries.
	HeaderAttempt = "x-attempt"
	// HeaderDeathReason is attached to dead-lettered messages where the transport allows it.
	HeaderDeathReason = "x-death-reason"
)

var (
	ErrAlreadySettled  = errors.New("delivery already settled")
	ErrUnknownExchange = errors.New("exchange not declared")
	ErrUnknownQueue    = errors.New("queue not declared")
	ErrPublishNacked   = errors.New("publish not confirmed by broker")
	ErrConsumerClosed  = errors.New("consumer channel closed by broker")
	ErrBrokerClosed    = errors.New("broker closed")
)

// Message is one persistent broker message.
type Message struct {
	Exchange    string
	RoutingKey  string
	MessageID   string
	Type        string
	ContentType string
	Body        []byte
	Headers     map[string]any
	Timestamp   time.Time
}

// Settler is the transport side of an acknowledgment handle.
type Settler interface {
	Ack(d *Delivery) error
	Retry(ctx context.Context, d *Delivery, delay time.Duration) error
	DeadLetter(d *Delivery, reason string) error
}

// Delivery is a received message plus its acknowledgment handle.
// Exactly one of Ack, Retry or DeadLetter may succeed per delivery.
type Delivery struct {
	Message
	Queue       string
	Tag         uint64
	Attempt     int
	Redelivered bool

	settler Settler
	settled atomic.Bool
}

func NewDelivery(msg Message, queue string, tag uint64, attempt int, settler Settler) *Delivery {
	if attempt < 1 {
		attempt = 1
	}
	return &Delivery{
		Message: msg,
		Queue:   queue,
		Tag:     tag,
		Attempt: attempt,
		settler: settler,
	}
}

// Ack confirms the message; the broker drops it.
func (d *Delivery) Ack() error {
	if !d.settled.CompareAndSwap(false, true) {
		return ErrAlreadySettled
	}
	return d.settler.Ack(d)
}

// Retry schedules redelivery to the same queue with Attempt+1 after delay.
func (d *Delivery) Retry(ctx context.Context, delay time.Duration) error {
	if !d.settled.CompareAndSwap(false, true) {
		return ErrAlreadySettled
	}
	return d.settler.Retry(ctx, d, delay)
}

// DeadLetter rejects the message without requeue so it lands in the queue's DLQ.
func (d *Delivery) DeadLetter(reason string) error {
	if !d.settled.CompareAndSwap(false, true) {
		return ErrAlreadySettled
	}
	return d.settler.DeadLetter(d, reason)
}

func (d *Delivery) Settled() bool {
	return d.settled.Load()
}

// Handler processes one delivery and is expected to settle it.
type Handler func(ctx context.Context, d *Delivery)

type ConsumeOptions struct {
	Workers  int
	Prefetch int
}

func (o ConsumeOptions) workers() int {
	if o.Workers <= 0 {
		return 1
	}
	return o.Workers
}

// Broker is satisfied by the RabbitMQ adapter and the in-memory broker.
type Broker interface {
	Declare(ctx context.Context, topology Topology) error
	Publish(ctx context.Context, msg Message) error
	// Consume blocks until ctx is done, then stops receiving and waits for
	// in-flight handlers to return.
	Consume(ctx context.Context, queue string, opts ConsumeOptions, handler Handler) error
	Close() error
}

func attemptFromHeaders(headers map[string]any) int {
	switch value := headers[HeaderAttempt].(type) {
	case int:
		return value
	case int32:
		return int(value)
	case int64:
		return int(value)
	default:
		return 1
	}
}

func copyHeaders(headers map[string]any) map[string]any {
	out := make(map[string]any, len(headers)+1)
	for key, value := range headers {
		out[key] = value
	}
	return out
}
