package httpadapter

import (
	"context"
	"log/slog"

	"eduweb/contexts/identity-access/user-service/application/commands"
	"eduweb/contexts/identity-access/user-service/application/queries"
	"eduweb/contexts/identity-access/user-service/domain/entities"
	httptransport "eduweb/contexts/identity-access/user-service/transport/http"
)

type Handler struct {
	Profiles commands.ProfileUseCase
	Queries  queries.ProfileQueries
	Logger   *slog.Logger
}

// CompleteProfileHandler godoc
// @Summary Complete a profile
// @Description Stores onboarding data and emits user.profile-completed.
// @Tags user-service
// @Accept json
// @Produce json
// @Param user_id path string true "User id"
// @Param request body httptransport.CompleteProfileRequest true "Profile"
// @Success 200 {object} httptransport.ProfileResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /api/users/{user_id}/profile [post]
func (h Handler) CompleteProfileHandler(ctx context.Context, userID string, req httptransport.CompleteProfileRequest) (httptransport.ProfileResponse, error) {
	profile, err := h.Profiles.CompleteProfile(ctx, commands.CompleteProfileCommand{
		UserID:   userID,
		FullName: req.FullName,
	})
	if err != nil {
		return httptransport.ProfileResponse{}, err
	}
	return toProfileResponse(profile), nil
}

// GetProfileHandler godoc
// @Summary Get a profile
// @Tags user-service
// @Produce json
// @Param user_id path string true "User id"
// @Success 200 {object} httptransport.ProfileResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /api/users/{user_id} [get]
func (h Handler) GetProfileHandler(ctx context.Context, userID string) (httptransport.ProfileResponse, error) {
	profile, err := h.Queries.GetProfile(ctx, userID)
	if err != nil {
		return httptransport.ProfileResponse{}, err
	}
	return toProfileResponse(profile), nil
}

func toProfileResponse(profile entities.Profile) httptransport.ProfileResponse {
	return httptransport.ProfileResponse{
		UserID:      profile.UserID,
		Email:       profile.Email,
		FullName:    profile.FullName,
		Completed:   profile.Completed(),
		CompletedAt: profile.CompletedAt,
		CreatedAt:   profile.CreatedAt,
	}
}
