package workers

import (
	"context"
	"errors"
	"log/slog"

	contractsv1 "eduweb/contracts/events/v1"
	application "eduweb/contexts/identity-access/auth-service/application"
	domainerrors "eduweb/contexts/identity-access/auth-service/domain/errors"
	"eduweb/contexts/identity-access/auth-service/ports"
	"eduweb/internal/shared/events"
	"eduweb/internal/shared/inbox"
)

// ProfileCompletedHandler flags the account onboarded when user-service
// reports the profile complete.
type ProfileCompletedHandler struct {
	Accounts ports.Repository
	Logger   *slog.Logger
}

func (h ProfileCompletedHandler) Handle(ctx context.Context, env events.Envelope) ([]events.Envelope, error) {
	var payload contractsv1.UserProfileCompleted
	if err := events.Decode(env, &payload); err != nil {
		return nil, err
	}

	account, err := h.Accounts.GetAccount(ctx, payload.UserID)
	if err != nil {
		// Accounts exist before any profile can reference them.
		if errors.Is(err, domainerrors.ErrAccountNotFound) {
			return nil, inbox.Poison(err)
		}
		return nil, err
	}
	if !account.MarkOnboarded(payload.CompletedAt) {
		return nil, nil
	}
	if err := h.Accounts.SaveAccount(ctx, account); err != nil {
		return nil, err
	}

	application.ResolveLogger(h.Logger).Info("account onboarded",
		"event", "auth_account_onboarded",
		"module", "identity-access/auth-service",
		"layer", "worker",
		"account_id", account.AccountID,
		"event_id", env.EventID,
	)
	return nil, nil
}
