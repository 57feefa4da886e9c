package ports

import (
	"context"
	"time"

	"eduweb/contexts/commerce/payment-service/domain/entities"
	"eduweb/internal/shared/events"
)

type Repository interface {
	CreatePayment(ctx context.Context, payment entities.Payment) error
	// GetPayment locks the row for the rest of the transaction when one is open.
	GetPayment(ctx context.Context, paymentID string) (entities.Payment, error)
	SavePayment(ctx context.Context, payment entities.Payment) error
}

type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type EventPublisher interface {
	Stage(ctx context.Context, envs ...events.Envelope) error
	PublishCommitted(ctx context.Context, envs ...events.Envelope)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
