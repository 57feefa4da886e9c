package commands

import (
	"context"
	"log/slog"
	"strings"

	application "eduweb/contexts/learning/enrollment-service/application"
	"eduweb/contexts/learning/enrollment-service/domain/entities"
	domainerrors "eduweb/contexts/learning/enrollment-service/domain/errors"
	"eduweb/contexts/learning/enrollment-service/ports"
	"eduweb/internal/shared/events"
)

type CompleteLessonCommand struct {
	EnrollmentID string
	LessonID     string
}

type ProgressUseCase struct {
	Enrollments ports.Repository
	Tx          ports.Transactor
	Publisher   ports.EventPublisher
	Clock       ports.Clock
	Logger      *slog.Logger
}

// CompleteLesson records a finished lesson. Repeating a lesson changes
// nothing and emits nothing.
func (uc ProgressUseCase) CompleteLesson(ctx context.Context, cmd CompleteLessonCommand) (entities.Enrollment, error) {
	enrollmentID := strings.TrimSpace(cmd.EnrollmentID)
	lessonID := strings.TrimSpace(cmd.LessonID)
	if enrollmentID == "" || lessonID == "" {
		return entities.Enrollment{}, domainerrors.ErrInvalidEnrollmentInput
	}

	var enrollment entities.Enrollment
	var staged []events.Envelope
	err := uc.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		enrollment, err = uc.Enrollments.GetEnrollment(ctx, enrollmentID)
		if err != nil {
			return err
		}
		now := uc.Clock.Now().UTC()
		if !enrollment.CompleteLesson(lessonID, now) {
			return nil
		}
		completed := enrollment.MarkCompletedIfDone(now)
		if err := uc.Enrollments.SaveEnrollment(ctx, enrollment); err != nil {
			return err
		}

		progress, err := application.ProgressUpdated(enrollment, now)
		if err != nil {
			return err
		}
		staged = append(staged, progress)
		if completed {
			done, err := application.EnrollmentCompleted(enrollment, now)
			if err != nil {
				return err
			}
			staged = append(staged, done)
		}
		return uc.Publisher.Stage(ctx, staged...)
	})
	if err != nil {
		return entities.Enrollment{}, err
	}
	if len(staged) == 0 {
		return enrollment, nil
	}
	uc.Publisher.PublishCommitted(ctx, staged...)

	application.ResolveLogger(uc.Logger).Info("lesson completed",
		"event", "enrollment_lesson_completed",
		"module", "learning/enrollment-service",
		"layer", "application",
		"enrollment_id", enrollment.EnrollmentID,
		"lesson_id", lessonID,
		"progress", enrollment.Progress,
		"status", enrollment.Status,
	)
	return enrollment, nil
}
