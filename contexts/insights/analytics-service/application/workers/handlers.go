package workers

import (
	"context"
	"log/slog"

	contractsv1 "eduweb/contracts/events/v1"
	application "eduweb/contexts/insights/analytics-service/application"
	"eduweb/contexts/insights/analytics-service/domain/entities"
	"eduweb/contexts/insights/analytics-service/ports"
	"eduweb/internal/shared/events"
)

// Projector applies each consumed fact to the read models. Redelivery is
// filtered by the inbox, so increments run once per event.
type Projector struct {
	Stats  ports.Repository
	Logger *slog.Logger
}

func (p Projector) UserCreated(ctx context.Context, env events.Envelope) ([]events.Envelope, error) {
	var payload contractsv1.UserCreated
	if err := events.Decode(env, &payload); err != nil {
		return nil, err
	}
	return nil, p.Stats.AddDaily(ctx, entities.DailyStats{Day: entities.Day(env.OccurredAt), Registrations: 1})
}

func (p Projector) PaymentCompleted(ctx context.Context, env events.Envelope) ([]events.Envelope, error) {
	var payload contractsv1.PaymentCompleted
	if err := events.Decode(env, &payload); err != nil {
		return nil, err
	}
	if err := p.Stats.AddDaily(ctx, entities.DailyStats{
		Day:      entities.Day(payload.CompletedAt),
		Revenue:  payload.Amount,
		Payments: 1,
	}); err != nil {
		return nil, err
	}
	if err := p.Stats.AddInstructor(ctx, entities.InstructorStats{
		InstructorID: payload.InstructorID,
		Revenue:      payload.Amount,
	}); err != nil {
		return nil, err
	}

	application.ResolveLogger(p.Logger).Info("revenue recorded",
		"event", "analytics_revenue_recorded",
		"module", "insights/analytics-service",
		"layer", "worker",
		"payment_id", payload.PaymentID,
		"instructor_id", payload.InstructorID,
		"amount", payload.Amount.StringFixed(2),
		"event_id", env.EventID,
	)
	return nil, nil
}

func (p Projector) EnrollmentCreated(ctx context.Context, env events.Envelope) ([]events.Envelope, error) {
	var payload contractsv1.EnrollmentCreated
	if err := events.Decode(env, &payload); err != nil {
		return nil, err
	}
	if err := p.Stats.AddDaily(ctx, entities.DailyStats{Day: entities.Day(payload.EnrolledAt), Enrollments: 1}); err != nil {
		return nil, err
	}
	return nil, p.Stats.AddInstructor(ctx, entities.InstructorStats{InstructorID: payload.InstructorID, Enrollments: 1})
}

func (p Projector) EnrollmentCompleted(ctx context.Context, env events.Envelope) ([]events.Envelope, error) {
	var payload contractsv1.EnrollmentCompleted
	if err := events.Decode(env, &payload); err != nil {
		return nil, err
	}
	if err := p.Stats.AddDaily(ctx, entities.DailyStats{Day: entities.Day(payload.CompletedAt), Completions: 1}); err != nil {
		return nil, err
	}
	return nil, p.Stats.AddInstructor(ctx, entities.InstructorStats{InstructorID: payload.InstructorID, Completions: 1})
}

// ProgressUpdated keeps the snapshot with the highest sequence; progress
// events may arrive out of order across redeliveries.
func (p Projector) ProgressUpdated(ctx context.Context, env events.Envelope) ([]events.Envelope, error) {
	var payload contractsv1.EnrollmentProgressUpdated
	if err := events.Decode(env, &payload); err != nil {
		return nil, err
	}
	stored, err := p.Stats.SaveProgress(ctx, entities.ProgressSnapshot{
		EnrollmentID: payload.EnrollmentID,
		CourseID:     payload.CourseID,
		StudentID:    payload.StudentID,
		Progress:     payload.Progress,
		Sequence:     payload.Sequence,
		AsOf:         env.OccurredAt.UTC(),
	})
	if err != nil {
		return nil, err
	}
	if !stored {
		application.ResolveLogger(p.Logger).Info("stale progress ignored",
			"event", "analytics_progress_stale",
			"module", "insights/analytics-service",
			"layer", "worker",
			"enrollment_id", payload.EnrollmentID,
			"sequence", payload.Sequence,
			"event_id", env.EventID,
		)
	}
	return nil, nil
}
