package httpadapter

import (
	"context"
	"log/slog"

	"eduweb/contexts/identity-access/auth-service/application/commands"
	"eduweb/contexts/identity-access/auth-service/application/queries"
	"eduweb/contexts/identity-access/auth-service/domain/entities"
	httptransport "eduweb/contexts/identity-access/auth-service/transport/http"
)

type Handler struct {
	Register commands.RegisterUseCase
	Accounts queries.AccountQueries
	Logger   *slog.Logger
}

// RegisterHandler godoc
// @Summary Register an account
// @Description Creates the account and emits user.created.
// @Tags auth-service
// @Accept json
// @Produce json
// @Param request body httptransport.RegisterRequest true "Registration"
// @Success 201 {object} httptransport.AccountResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /api/auth/register [post]
func (h Handler) RegisterHandler(ctx context.Context, req httptransport.RegisterRequest) (httptransport.AccountResponse, error) {
	account, err := h.Register.Register(ctx, commands.RegisterCommand{Email: req.Email})
	if err != nil {
		return httptransport.AccountResponse{}, err
	}
	return toAccountResponse(account), nil
}

// GetAccountHandler godoc
// @Summary Get an account
// @Tags auth-service
// @Produce json
// @Param account_id path string true "Account id"
// @Success 200 {object} httptransport.AccountResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /api/auth/accounts/{account_id} [get]
func (h Handler) GetAccountHandler(ctx context.Context, accountID string) (httptransport.AccountResponse, error) {
	account, err := h.Accounts.GetAccount(ctx, accountID)
	if err != nil {
		return httptransport.AccountResponse{}, err
	}
	return toAccountResponse(account), nil
}

func toAccountResponse(account entities.Account) httptransport.AccountResponse {
	return httptransport.AccountResponse{
		AccountID:   account.AccountID,
		Email:       account.Email,
		Onboarded:   account.Onboarded,
		OnboardedAt: account.OnboardedAt,
		CreatedAt:   account.CreatedAt,
	}
}
