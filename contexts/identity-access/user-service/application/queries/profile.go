package queries

import (
	"context"
	"strings"

	"eduweb/contexts/identity-access/user-service/domain/entities"
	domainerrors "eduweb/contexts/identity-access/user-service/domain/errors"
	"eduweb/contexts/identity-access/user-service/ports"
)

type ProfileQueries struct {
	Profiles ports.Repository
}

func (q ProfileQueries) GetProfile(ctx context.Context, userID string) (entities.Profile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return entities.Profile{}, domainerrors.ErrInvalidProfileInput
	}
	return q.Profiles.GetProfile(ctx, userID)
}
