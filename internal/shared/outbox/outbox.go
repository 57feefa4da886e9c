// Package outbox stores events in the same transaction as the state change
// that produced them and moves them to the broker afterwards: once directly
// after commit, and again from the relay for any row the commit path missed.
package outbox

import (
	"context"
	"errors"
	"strings"
	"time"

	"eduweb/internal/shared/events"
)

const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

var (
	ErrNotFound    = errors.New("outbox message not found")
	ErrNotProducer = errors.New("service is not the registered producer of event type")
	ErrConflict    = errors.New("outbox message id reused with different payload")
)

// Message is one outbox row. Payload holds the encoded envelope; ID equals
// the envelope's event id.
type Message struct {
	ID            string
	EventType     string
	PartitionKey  string
	Payload       []byte
	Status        string
	Attempts      int
	NextAttemptAt time.Time
	LastError     string
	CreatedAt     time.Time
	SentAt        *time.Time
}

// NewMessage encodes env as a pending row. The relay will not pick it up
// before now+grace, leaving the commit path time to publish first.
func NewMessage(env events.Envelope, now time.Time, grace time.Duration) (Message, error) {
	payload, err := events.Encode(env)
	if err != nil {
		return Message{}, err
	}
	now = now.UTC()
	return Message{
		ID:            strings.TrimSpace(env.EventID),
		EventType:     strings.TrimSpace(env.EventType),
		PartitionKey:  strings.TrimSpace(env.PartitionKey),
		Payload:       payload,
		Status:        StatusPending,
		NextAttemptAt: now.Add(grace),
		CreatedAt:     now,
	}, nil
}

// Store is implemented per service on the service's own outbox table.
// AppendOutbox must join the transaction carried by ctx.
type Store interface {
	AppendOutbox(ctx context.Context, msg Message) error
	ListDueOutbox(ctx context.Context, now time.Time, limit int) ([]Message, error)
	MarkOutboxSent(ctx context.Context, id string, at time.Time) error
	MarkOutboxRetry(ctx context.Context, id string, attempts int, next time.Time, lastErr string) error
	MarkOutboxFailed(ctx context.Context, id string, attempts int, lastErr string) error
}

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

func resolveClock(clock Clock) Clock {
	if clock == nil {
		return systemClock{}
	}
	return clock
}
