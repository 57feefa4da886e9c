package httpserver

import (
	"errors"
	"net/http"

	enrollmenterrors "eduweb/contexts/learning/enrollment-service/domain/errors"
	enrollmenthttp "eduweb/contexts/learning/enrollment-service/transport/http"
)

func writeEnrollmentError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, enrollmenthttp.ErrorResponse{Code: code, Message: message})
}

func (s *Server) writeEnrollmentDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, enrollmenterrors.ErrInvalidEnrollmentInput):
		writeEnrollmentError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, enrollmenterrors.ErrEnrollmentNotFound):
		writeEnrollmentError(w, http.StatusNotFound, "enrollment_not_found", err.Error())
	default:
		s.logInternal("enrollment-service", r, err)
		writeEnrollmentError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func (s *Server) handleEnrollmentGet(w http.ResponseWriter, r *http.Request) {
	resp, err := s.modules.Enrollment.Handler.GetEnrollmentHandler(r.Context(), r.PathValue("enrollment_id"))
	if err != nil {
		s.writeEnrollmentDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEnrollmentCompleteLesson(w http.ResponseWriter, r *http.Request) {
	resp, err := s.modules.Enrollment.Handler.CompleteLessonHandler(r.Context(), r.PathValue("enrollment_id"), r.PathValue("lesson_id"))
	if err != nil {
		s.writeEnrollmentDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEnrollmentListStudent(w http.ResponseWriter, r *http.Request) {
	resp, err := s.modules.Enrollment.Handler.ListStudentEnrollmentsHandler(r.Context(), r.PathValue("student_id"))
	if err != nil {
		s.writeEnrollmentDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
