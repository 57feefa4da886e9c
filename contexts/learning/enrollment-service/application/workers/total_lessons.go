package workers

import (
	"context"
	"log/slog"

	contractsv1 "eduweb/contracts/events/v1"
	application "eduweb/contexts/learning/enrollment-service/application"
	"eduweb/contexts/learning/enrollment-service/domain/entities"
	"eduweb/contexts/learning/enrollment-service/ports"
	"eduweb/internal/shared/events"
)

// TotalLessonsHandler replicates course lesson counts and re-derives progress
// for every enrollment in the course.
type TotalLessonsHandler struct {
	Enrollments ports.Repository
	Clock       ports.Clock
	Logger      *slog.Logger
}

func (h TotalLessonsHandler) Handle(ctx context.Context, env events.Envelope) ([]events.Envelope, error) {
	var payload contractsv1.CourseTotalLessonsChanged
	if err := events.Decode(env, &payload); err != nil {
		return nil, err
	}
	logger := application.ResolveLogger(h.Logger)

	now := h.Clock.Now().UTC()
	count := entities.LessonCount{
		CourseID:     payload.CourseID,
		TotalLessons: payload.TotalLessons,
		Version:      payload.Version,
		AsOf:         now,
	}
	stored, err := h.Enrollments.SaveLessonCount(ctx, count)
	if err != nil {
		return nil, err
	}
	if !stored {
		logger.Info("stale lesson count ignored",
			"event", "enrollment_total_lessons_stale",
			"module", "learning/enrollment-service",
			"layer", "worker",
			"course_id", payload.CourseID,
			"version", payload.Version,
			"event_id", env.EventID,
		)
		return nil, nil
	}

	enrollments, err := h.Enrollments.ListCourseEnrollments(ctx, payload.CourseID)
	if err != nil {
		return nil, err
	}
	var out []events.Envelope
	for _, enrollment := range enrollments {
		if !enrollment.SetTotalLessons(payload.TotalLessons, now) {
			continue
		}
		if err := h.Enrollments.SaveEnrollment(ctx, enrollment); err != nil {
			return nil, err
		}
		progress, err := application.ProgressUpdated(enrollment, now)
		if err != nil {
			return nil, err
		}
		out = append(out, progress)
	}

	logger.Info("lesson count replicated",
		"event", "enrollment_total_lessons_set",
		"module", "learning/enrollment-service",
		"layer", "worker",
		"course_id", payload.CourseID,
		"total_lessons", payload.TotalLessons,
		"version", payload.Version,
		"enrollments_updated", len(out),
		"event_id", env.EventID,
	)
	return out, nil
}
