package httpserver

import (
	"errors"
	"net/http"

	autherrors "eduweb/contexts/identity-access/auth-service/domain/errors"
	authhttp "eduweb/contexts/identity-access/auth-service/transport/http"
)

func writeAuthError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, authhttp.ErrorResponse{Code: code, Message: message})
}

func (s *Server) writeAuthDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, autherrors.ErrInvalidEmail):
		writeAuthError(w, http.StatusBadRequest, "invalid_email", err.Error())
	case errors.Is(err, autherrors.ErrEmailTaken):
		writeAuthError(w, http.StatusConflict, "email_taken", err.Error())
	case errors.Is(err, autherrors.ErrAccountNotFound):
		writeAuthError(w, http.StatusNotFound, "account_not_found", err.Error())
	default:
		s.logInternal("auth-service", r, err)
		writeAuthError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func (s *Server) handleAuthRegister(w http.ResponseWriter, r *http.Request) {
	var req authhttp.RegisterRequest
	if !decodeJSON(w, r, &req, writeAuthError) {
		return
	}
	resp, err := s.modules.Auth.Handler.RegisterHandler(r.Context(), req)
	if err != nil {
		s.writeAuthDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleAuthGetAccount(w http.ResponseWriter, r *http.Request) {
	resp, err := s.modules.Auth.Handler.GetAccountHandler(r.Context(), r.PathValue("account_id"))
	if err != nil {
		s.writeAuthDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
