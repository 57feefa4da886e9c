package queries

import (
	"context"
	"strings"

	"eduweb/contexts/identity-access/auth-service/domain/entities"
	domainerrors "eduweb/contexts/identity-access/auth-service/domain/errors"
	"eduweb/contexts/identity-access/auth-service/ports"
)

type AccountQueries struct {
	Accounts ports.Repository
}

func (q AccountQueries) GetAccount(ctx context.Context, accountID string) (entities.Account, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return entities.Account{}, domainerrors.ErrAccountNotFound
	}
	return q.Accounts.GetAccount(ctx, accountID)
}
