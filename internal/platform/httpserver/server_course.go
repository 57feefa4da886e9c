package httpserver

import (
	"errors"
	"net/http"

	courseerrors "eduweb/contexts/catalog/course-service/domain/errors"
	coursehttp "eduweb/contexts/catalog/course-service/transport/http"
)

func writeCourseError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, coursehttp.ErrorResponse{Code: code, Message: message})
}

func (s *Server) writeCourseDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, courseerrors.ErrInvalidCourseInput),
		errors.Is(err, courseerrors.ErrInvalidLessonInput):
		writeCourseError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, courseerrors.ErrCourseNotFound):
		writeCourseError(w, http.StatusNotFound, "course_not_found", err.Error())
	case errors.Is(err, courseerrors.ErrLessonNotFound):
		writeCourseError(w, http.StatusNotFound, "lesson_not_found", err.Error())
	case errors.Is(err, courseerrors.ErrSlugTaken):
		writeCourseError(w, http.StatusConflict, "slug_taken", err.Error())
	default:
		s.logInternal("course-service", r, err)
		writeCourseError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func (s *Server) handleCourseCreate(w http.ResponseWriter, r *http.Request) {
	var req coursehttp.CreateCourseRequest
	if !decodeJSON(w, r, &req, writeCourseError) {
		return
	}
	resp, err := s.modules.Course.Handler.CreateCourseHandler(r.Context(), req)
	if err != nil {
		s.writeCourseDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleCourseGet(w http.ResponseWriter, r *http.Request) {
	resp, err := s.modules.Course.Handler.GetCourseHandler(r.Context(), r.PathValue("course_id"))
	if err != nil {
		s.writeCourseDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCourseAddLesson(w http.ResponseWriter, r *http.Request) {
	var req coursehttp.AddLessonRequest
	if !decodeJSON(w, r, &req, writeCourseError) {
		return
	}
	resp, err := s.modules.Course.Handler.AddLessonHandler(r.Context(), r.PathValue("course_id"), req)
	if err != nil {
		s.writeCourseDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleCourseRemoveLesson(w http.ResponseWriter, r *http.Request) {
	resp, err := s.modules.Course.Handler.RemoveLessonHandler(r.Context(), r.PathValue("course_id"), r.PathValue("lesson_id"))
	if err != nil {
		s.writeCourseDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCourseTotalLessons backs the synchronous lookup used by
// enrollment-service when it has no replicated count.
func (s *Server) handleCourseTotalLessons(w http.ResponseWriter, r *http.Request) {
	resp, err := s.modules.Course.Handler.TotalLessonsHandler(r.Context(), r.PathValue("course_id"))
	if err != nil {
		s.writeCourseDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
