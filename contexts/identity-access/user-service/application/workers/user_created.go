package workers

import (
	"context"
	"log/slog"

	contractsv1 "eduweb/contracts/events/v1"
	application "eduweb/contexts/identity-access/user-service/application"
	"eduweb/contexts/identity-access/user-service/domain/entities"
	"eduweb/contexts/identity-access/user-service/ports"
	"eduweb/internal/shared/events"
)

// UserCreatedHandler seeds an empty profile for every new account.
type UserCreatedHandler struct {
	Profiles ports.Repository
	Logger   *slog.Logger
}

func (h UserCreatedHandler) Handle(ctx context.Context, env events.Envelope) ([]events.Envelope, error) {
	var payload contractsv1.UserCreated
	if err := events.Decode(env, &payload); err != nil {
		return nil, err
	}

	created, err := h.Profiles.CreateProfile(ctx, entities.Profile{
		UserID:    payload.UserID,
		Email:     payload.Email,
		CreatedAt: env.OccurredAt.UTC(),
		UpdatedAt: env.OccurredAt.UTC(),
	})
	if err != nil {
		return nil, err
	}
	if created {
		application.ResolveLogger(h.Logger).Info("profile seeded",
			"event", "user_profile_seeded",
			"module", "identity-access/user-service",
			"layer", "worker",
			"user_id", payload.UserID,
			"event_id", env.EventID,
		)
	}
	return nil, nil
}
