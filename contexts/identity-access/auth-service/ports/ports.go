package ports

import (
	"context"
	"time"

	"eduweb/contexts/identity-access/auth-service/domain/entities"
	"eduweb/internal/shared/events"
)

type Repository interface {
	CreateAccount(ctx context.Context, account entities.Account) error
	GetAccount(ctx context.Context, accountID string) (entities.Account, error)
	SaveAccount(ctx context.Context, account entities.Account) error
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
