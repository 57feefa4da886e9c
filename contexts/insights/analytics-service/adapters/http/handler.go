package httpadapter

import (
	"context"
	"log/slog"

	"eduweb/contexts/insights/analytics-service/application/queries"
	"eduweb/contexts/insights/analytics-service/domain/entities"
	httptransport "eduweb/contexts/insights/analytics-service/transport/http"
)

type Handler struct {
	Queries queries.AnalyticsQueries
	Logger  *slog.Logger
}

// SummaryHandler godoc
// @Summary Platform summary
// @Description Totals over daily stats plus per-instructor figures.
// @Tags analytics-service
// @Produce json
// @Param from query string false "First day, YYYY-MM-DD"
// @Param to query string false "Last day, YYYY-MM-DD"
// @Success 200 {object} httptransport.SummaryResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Router /api/analytics/summary [get]
func (h Handler) SummaryHandler(ctx context.Context, fromDay string, toDay string) (httptransport.SummaryResponse, error) {
	summary, err := h.Queries.Summary(ctx, fromDay, toDay)
	if err != nil {
		return httptransport.SummaryResponse{}, err
	}
	out := httptransport.SummaryResponse{
		Revenue:       summary.Revenue.StringFixed(2),
		Payments:      summary.Payments,
		Registrations: summary.Registrations,
		Enrollments:   summary.Enrollments,
		Completions:   summary.Completions,
		Daily:         make([]httptransport.DailyStatsResponse, 0, len(summary.Daily)),
		Instructors:   make([]httptransport.InstructorStatsResponse, 0, len(summary.Instructors)),
	}
	for _, day := range summary.Daily {
		out.Daily = append(out.Daily, httptransport.DailyStatsResponse{
			Day:           day.Day,
			Revenue:       day.Revenue.StringFixed(2),
			Payments:      day.Payments,
			Registrations: day.Registrations,
			Enrollments:   day.Enrollments,
			Completions:   day.Completions,
		})
	}
	for _, instructor := range summary.Instructors {
		out.Instructors = append(out.Instructors, toInstructorResponse(instructor))
	}
	return out, nil
}

// InstructorHandler godoc
// @Summary Instructor stats
// @Tags analytics-service
// @Produce json
// @Param instructor_id path string true "Instructor id"
// @Success 200 {object} httptransport.InstructorStatsResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /api/analytics/instructors/{instructor_id} [get]
func (h Handler) InstructorHandler(ctx context.Context, instructorID string) (httptransport.InstructorStatsResponse, error) {
	stats, err := h.Queries.Instructor(ctx, instructorID)
	if err != nil {
		return httptransport.InstructorStatsResponse{}, err
	}
	return toInstructorResponse(stats), nil
}

// ProgressHandler godoc
// @Summary Latest enrollment progress
// @Tags analytics-service
// @Produce json
// @Param enrollment_id path string true "Enrollment id"
// @Success 200 {object} httptransport.ProgressResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /api/analytics/enrollments/{enrollment_id}/progress [get]
func (h Handler) ProgressHandler(ctx context.Context, enrollmentID string) (httptransport.ProgressResponse, error) {
	snapshot, err := h.Queries.Progress(ctx, enrollmentID)
	if err != nil {
		return httptransport.ProgressResponse{}, err
	}
	return httptransport.ProgressResponse{
		EnrollmentID: snapshot.EnrollmentID,
		CourseID:     snapshot.CourseID,
		StudentID:    snapshot.StudentID,
		Progress:     snapshot.Progress,
		Sequence:     snapshot.Sequence,
		AsOf:         snapshot.AsOf,
	}, nil
}

func toInstructorResponse(stats entities.InstructorStats) httptransport.InstructorStatsResponse {
	return httptransport.InstructorStatsResponse{
		InstructorID: stats.InstructorID,
		Revenue:      stats.Revenue.StringFixed(2),
		Enrollments:  stats.Enrollments,
		Completions:  stats.Completions,
	}
}
