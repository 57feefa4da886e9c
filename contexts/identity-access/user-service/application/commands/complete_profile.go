package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	contractsv1 "eduweb/contracts/events/v1"
	application "eduweb/contexts/identity-access/user-service/application"
	"eduweb/contexts/identity-access/user-service/domain/entities"
	domainerrors "eduweb/contexts/identity-access/user-service/domain/errors"
	"eduweb/contexts/identity-access/user-service/ports"
	"eduweb/internal/shared/events"
)

type CompleteProfileCommand struct {
	UserID   string
	FullName string
}

type ProfileUseCase struct {
	Profiles  ports.Repository
	Tx        ports.Transactor
	Publisher ports.EventPublisher
	Clock     ports.Clock
	Logger    *slog.Logger
}

// CompleteProfile fills in onboarding data once. A profile that has not been
// seeded yet reports ErrProfileNotFound; user.created may still be in flight.
func (uc ProfileUseCase) CompleteProfile(ctx context.Context, cmd CompleteProfileCommand) (entities.Profile, error) {
	userID := strings.TrimSpace(cmd.UserID)
	fullName := strings.TrimSpace(cmd.FullName)
	if userID == "" || fullName == "" {
		return entities.Profile{}, domainerrors.ErrInvalidProfileInput
	}

	var profile entities.Profile
	var env events.Envelope
	err := uc.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		profile, err = uc.Profiles.GetProfile(ctx, userID)
		if err != nil {
			return err
		}
		if profile.Completed() {
			return domainerrors.ErrProfileAlreadyCompleted
		}

		now := uc.Clock.Now().UTC()
		profile.FullName = fullName
		profile.CompletedAt = &now
		profile.UpdatedAt = now
		if err := uc.Profiles.SaveProfile(ctx, profile); err != nil {
			return err
		}

		env, err = events.New(contractsv1.TypeUserProfileCompleted, events.ServiceUser, userID, now,
			contractsv1.UserProfileCompleted{
				UserID:      userID,
				FullName:    fullName,
				CompletedAt: now,
			})
		if err != nil {
			return fmt.Errorf("build profile completed event: %w", err)
		}
		return uc.Publisher.Stage(ctx, env)
	})
	if err != nil {
		return entities.Profile{}, err
	}
	uc.Publisher.PublishCommitted(ctx, env)

	application.ResolveLogger(uc.Logger).Info("profile completed",
		"event", "user_profile_completed",
		"module", "identity-access/user-service",
		"layer", "application",
		"user_id", userID,
		"event_id", env.EventID,
	)
	return profile, nil
}
