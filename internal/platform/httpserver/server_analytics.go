package httpserver

import (
	"errors"
	"net/http"

	analyticserrors "eduweb/contexts/insights/analytics-service/domain/errors"
	analyticshttp "eduweb/contexts/insights/analytics-service/transport/http"
)

func writeAnalyticsError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, analyticshttp.ErrorResponse{Code: code, Message: message})
}

func (s *Server) writeAnalyticsDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, analyticserrors.ErrInvalidQuery):
		writeAnalyticsError(w, http.StatusBadRequest, "invalid_query", err.Error())
	case errors.Is(err, analyticserrors.ErrInstructorNotFound),
		errors.Is(err, analyticserrors.ErrProgressNotFound):
		writeAnalyticsError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		s.logInternal("analytics-service", r, err)
		writeAnalyticsError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func (s *Server) handleAnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	resp, err := s.modules.Analytics.Handler.SummaryHandler(r.Context(), query.Get("from"), query.Get("to"))
	if err != nil {
		s.writeAnalyticsDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAnalyticsInstructor(w http.ResponseWriter, r *http.Request) {
	resp, err := s.modules.Analytics.Handler.InstructorHandler(r.Context(), r.PathValue("instructor_id"))
	if err != nil {
		s.writeAnalyticsDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAnalyticsProgress(w http.ResponseWriter, r *http.Request) {
	resp, err := s.modules.Analytics.Handler.ProgressHandler(r.Context(), r.PathValue("enrollment_id"))
	if err != nil {
		s.writeAnalyticsDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
