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

// PaymentCompletedHandler enrolls the buyer. The (student, course) pair is
// unique, so a second payment for the same course does not enroll twice.
type PaymentCompletedHandler struct {
	Enrollments ports.Repository
	Courses     ports.CourseLookup
	IDGen       ports.IDGenerator
	Clock       ports.Clock
	Logger      *slog.Logger
}

func (h PaymentCompletedHandler) Handle(ctx context.Context, env events.Envelope) ([]events.Envelope, error) {
	var payload contractsv1.PaymentCompleted
	if err := events.Decode(env, &payload); err != nil {
		return nil, err
	}
	logger := application.ResolveLogger(h.Logger)

	// Taken first so a concurrent course.total-lessons-changed for this
	// course either sees the new enrollment or is seen by it.
	cached, cachedFound, err := h.Enrollments.LockLessonCount(ctx, payload.CourseID)
	if err != nil {
		return nil, err
	}

	if _, found, err := h.Enrollments.FindEnrollment(ctx, payload.UserID, payload.CourseID); err != nil {
		return nil, err
	} else if found {
		logger.Info("student already enrolled",
			"event", "enrollment_exists",
			"module", "learning/enrollment-service",
			"layer", "worker",
			"student_id", payload.UserID,
			"course_id", payload.CourseID,
			"event_id", env.EventID,
		)
		return nil, nil
	}

	total := cached.TotalLessons
	if !cachedFound {
		total, err = h.lookupLessons(ctx, payload.CourseID)
		if err != nil {
			return nil, err
		}
	}
	enrollmentID, err := h.IDGen.NewID(ctx)
	if err != nil {
		return nil, err
	}
	now := h.Clock.Now().UTC()
	enrollment := entities.Enrollment{
		EnrollmentID: enrollmentID,
		StudentID:    payload.UserID,
		CourseID:     payload.CourseID,
		InstructorID: payload.InstructorID,
		CourseSlug:   payload.CourseSlug,
		Status:       entities.EnrollmentStatusActive,
		TotalLessons: total,
		EnrolledAt:   payload.CompletedAt.UTC(),
		UpdatedAt:    now,
	}
	if err := h.Enrollments.CreateEnrollment(ctx, enrollment); err != nil {
		return nil, err
	}
	created, err := application.EnrollmentCreated(enrollment, now)
	if err != nil {
		return nil, err
	}

	logger.Info("student enrolled",
		"event", "enrollment_created",
		"module", "learning/enrollment-service",
		"layer", "worker",
		"enrollment_id", enrollment.EnrollmentID,
		"student_id", enrollment.StudentID,
		"course_id", enrollment.CourseID,
		"total_lessons", total,
		"event_id", env.EventID,
	)
	return []events.Envelope{created}, nil
}

// lookupLessons asks course-service when no count has been replicated yet
// and caches the answer under the course's version. A failed lookup yields 0
// and the next course.total-lessons-changed corrects it.
func (h PaymentCompletedHandler) lookupLessons(ctx context.Context, courseID string) (int, error) {
	if h.Courses == nil {
		return 0, nil
	}

	count, err := h.Courses.LessonCount(ctx, courseID)
	if err != nil {
		application.ResolveLogger(h.Logger).Warn("course lookup failed, using fallback",
			"event", "enrollment_course_lookup_fallback",
			"module", "learning/enrollment-service",
			"layer", "worker",
			"course_id", courseID,
			"error", err.Error(),
		)
		return 0, nil
	}
	if count.Version > 0 {
		count.CourseID = courseID
		count.AsOf = h.Clock.Now().UTC()
		if _, err := h.Enrollments.SaveLessonCount(ctx, count); err != nil {
			return 0, err
		}
	}
	return count.TotalLessons, nil
}
