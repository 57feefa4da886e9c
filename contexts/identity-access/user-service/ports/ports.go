package ports

import (
	"context"
	"time"

	"eduweb/contexts/identity-access/user-service/domain/entities"
	"eduweb/internal/shared/events"
)

type Repository interface {
	// CreateProfile reports false when a profile for the user already exists.
	CreateProfile(ctx context.Context, profile entities.Profile) (bool, error)
	GetProfile(ctx context.Context, userID string) (entities.Profile, error)
	SaveProfile(ctx context.Context, profile entities.Profile) error
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
