package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	contractsv1 "eduweb/contracts/events/v1"
	application "eduweb/contexts/identity-access/auth-service/application"
	"eduweb/contexts/identity-access/auth-service/domain/entities"
	domainerrors "eduweb/contexts/identity-access/auth-service/domain/errors"
	"eduweb/contexts/identity-access/auth-service/ports"
	"eduweb/internal/shared/events"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type RegisterCommand struct {
	Email string
}

type RegisterUseCase struct {
	Accounts  ports.Repository
	Tx        ports.Transactor
	Publisher ports.EventPublisher
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

// Register creates the account and, in the same transaction, stages
// user.created for user-service and analytics.
func (uc RegisterUseCase) Register(ctx context.Context, cmd RegisterCommand) (entities.Account, error) {
	logger := application.ResolveLogger(uc.Logger)
	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	if err := validate.Var(email, "required,email"); err != nil {
		return entities.Account{}, domainerrors.ErrInvalidEmail
	}

	accountID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Account{}, err
	}
	now := uc.Clock.Now().UTC()
	account := entities.Account{
		AccountID: accountID,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}

	env, err := events.New(contractsv1.TypeUserCreated, events.ServiceAuth, account.AccountID, now, contractsv1.UserCreated{
		UserID: account.AccountID,
		Email:  account.Email,
	})
	if err != nil {
		return entities.Account{}, fmt.Errorf("build user created event: %w", err)
	}

	err = uc.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := uc.Accounts.CreateAccount(ctx, account); err != nil {
			return err
		}
		return uc.Publisher.Stage(ctx, env)
	})
	if err != nil {
		logger.Warn("account registration failed",
			"event", "auth_register_failed",
			"module", "identity-access/auth-service",
			"layer", "application",
			"error", err.Error(),
		)
		return entities.Account{}, err
	}
	uc.Publisher.PublishCommitted(ctx, env)

	logger.Info("account registered",
		"event", "auth_account_registered",
		"module", "identity-access/auth-service",
		"layer", "application",
		"account_id", account.AccountID,
		"event_id", env.EventID,
	)
	return account, nil
}
