package queries

import (
	"context"
	"strings"
	"time"

	"eduweb/contexts/insights/analytics-service/domain/entities"
	domainerrors "eduweb/contexts/insights/analytics-service/domain/errors"
	"eduweb/contexts/insights/analytics-service/ports"

	"github.com/shopspring/decimal"
)

type AnalyticsQueries struct {
	Stats ports.Repository
}

// Summary totals the daily rows between fromDay and toDay inclusive. Empty
// bounds leave that side open.
func (q AnalyticsQueries) Summary(ctx context.Context, fromDay string, toDay string) (entities.Summary, error) {
	fromDay = strings.TrimSpace(fromDay)
	toDay = strings.TrimSpace(toDay)
	for _, day := range []string{fromDay, toDay} {
		if day == "" {
			continue
		}
		if _, err := time.Parse(entities.DayLayout, day); err != nil {
			return entities.Summary{}, domainerrors.ErrInvalidQuery
		}
	}
	if fromDay != "" && toDay != "" && fromDay > toDay {
		return entities.Summary{}, domainerrors.ErrInvalidQuery
	}

	daily, err := q.Stats.ListDaily(ctx, fromDay, toDay)
	if err != nil {
		return entities.Summary{}, err
	}
	instructors, err := q.Stats.ListInstructors(ctx)
	if err != nil {
		return entities.Summary{}, err
	}

	summary := entities.Summary{Revenue: decimal.Zero, Daily: daily, Instructors: instructors}
	for _, day := range daily {
		summary.Revenue = summary.Revenue.Add(day.Revenue)
		summary.Payments += day.Payments
		summary.Registrations += day.Registrations
		summary.Enrollments += day.Enrollments
		summary.Completions += day.Completions
	}
	return summary, nil
}

func (q AnalyticsQueries) Instructor(ctx context.Context, instructorID string) (entities.InstructorStats, error) {
	instructorID = strings.TrimSpace(instructorID)
	if instructorID == "" {
		return entities.InstructorStats{}, domainerrors.ErrInvalidQuery
	}
	return q.Stats.GetInstructor(ctx, instructorID)
}

func (q AnalyticsQueries) Progress(ctx context.Context, enrollmentID string) (entities.ProgressSnapshot, error) {
	enrollmentID = strings.TrimSpace(enrollmentID)
	if enrollmentID == "" {
		return entities.ProgressSnapshot{}, domainerrors.ErrInvalidQuery
	}
	return q.Stats.GetProgress(ctx, enrollmentID)
}
