package httpadapter

import (
	"context"
	"log/slog"

	"eduweb/contexts/learning/enrollment-service/application/commands"
	"eduweb/contexts/learning/enrollment-service/application/queries"
	"eduweb/contexts/learning/enrollment-service/domain/entities"
	httptransport "eduweb/contexts/learning/enrollment-service/transport/http"
)

type Handler struct {
	Progress commands.ProgressUseCase
	Queries  queries.EnrollmentQueries
	Logger   *slog.Logger
}

// CompleteLessonHandler godoc
// @Summary Complete a lesson
// @Description Records lesson completion and emits progress events.
// @Tags enrollment-service
// @Produce json
// @Param enrollment_id path string true "Enrollment id"
// @Param lesson_id path string true "Lesson id"
// @Success 200 {object} httptransport.EnrollmentResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /api/enrollments/{enrollment_id}/lessons/{lesson_id}/complete [post]
func (h Handler) CompleteLessonHandler(ctx context.Context, enrollmentID string, lessonID string) (httptransport.EnrollmentResponse, error) {
	enrollment, err := h.Progress.CompleteLesson(ctx, commands.CompleteLessonCommand{
		EnrollmentID: enrollmentID,
		LessonID:     lessonID,
	})
	if err != nil {
		return httptransport.EnrollmentResponse{}, err
	}
	return toEnrollmentResponse(enrollment), nil
}

// GetEnrollmentHandler godoc
// @Summary Get an enrollment
// @Tags enrollment-service
// @Produce json
// @Param enrollment_id path string true "Enrollment id"
// @Success 200 {object} httptransport.EnrollmentResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /api/enrollments/{enrollment_id} [get]
func (h Handler) GetEnrollmentHandler(ctx context.Context, enrollmentID string) (httptransport.EnrollmentResponse, error) {
	enrollment, err := h.Queries.GetEnrollment(ctx, enrollmentID)
	if err != nil {
		return httptransport.EnrollmentResponse{}, err
	}
	return toEnrollmentResponse(enrollment), nil
}

// ListStudentEnrollmentsHandler godoc
// @Summary List a student's enrollments
// @Tags enrollment-service
// @Produce json
// @Param student_id path string true "Student id"
// @Success 200 {object} httptransport.EnrollmentListResponse
// @Router /api/students/{student_id}/enrollments [get]
func (h Handler) ListStudentEnrollmentsHandler(ctx context.Context, studentID string) (httptransport.EnrollmentListResponse, error) {
	items, err := h.Queries.ListStudentEnrollments(ctx, studentID)
	if err != nil {
		return httptransport.EnrollmentListResponse{}, err
	}
	out := httptransport.EnrollmentListResponse{Items: make([]httptransport.EnrollmentResponse, 0, len(items))}
	for _, item := range items {
		out.Items = append(out.Items, toEnrollmentResponse(item))
	}
	return out, nil
}

func toEnrollmentResponse(e entities.Enrollment) httptransport.EnrollmentResponse {
	completed := e.CompletedLessons
	if completed == nil {
		completed = []string{}
	}
	return httptransport.EnrollmentResponse{
		EnrollmentID:     e.EnrollmentID,
		StudentID:        e.StudentID,
		CourseID:         e.CourseID,
		InstructorID:     e.InstructorID,
		CourseSlug:       e.CourseSlug,
		Status:           e.Status,
		TotalLessons:     e.TotalLessons,
		CompletedLessons: completed,
		Progress:         e.Progress,
		EnrolledAt:       e.EnrolledAt,
		CompletedAt:      e.CompletedAt,
	}
}
