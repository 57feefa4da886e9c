package httpserver

import (
	"errors"
	"net/http"

	usererrors "eduweb/contexts/identity-access/user-service/domain/errors"
	userhttp "eduweb/contexts/identity-access/user-service/transport/http"
)

func writeUserError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, userhttp.ErrorResponse{Code: code, Message: message})
}

func (s *Server) writeUserDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, usererrors.ErrInvalidProfileInput):
		writeUserError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, usererrors.ErrProfileNotFound):
		writeUserError(w, http.StatusNotFound, "profile_not_found", err.Error())
	case errors.Is(err, usererrors.ErrProfileAlreadyCompleted):
		writeUserError(w, http.StatusConflict, "profile_already_completed", err.Error())
	default:
		s.logInternal("user-service", r, err)
		writeUserError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func (s *Server) handleUserCompleteProfile(w http.ResponseWriter, r *http.Request) {
	var req userhttp.CompleteProfileRequest
	if !decodeJSON(w, r, &req, writeUserError) {
		return
	}
	resp, err := s.modules.User.Handler.CompleteProfileHandler(r.Context(), r.PathValue("user_id"), req)
	if err != nil {
		s.writeUserDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUserGetProfile(w http.ResponseWriter, r *http.Request) {
	resp, err := s.modules.User.Handler.GetProfileHandler(r.Context(), r.PathValue("user_id"))
	if err != nil {
		s.writeUserDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
