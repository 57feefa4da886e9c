package ports

import (
	"context"

	"eduweb/contexts/insights/analytics-service/domain/entities"
)

type Repository interface {
	// AddDaily and AddInstructor increment counters, creating the row first
	// when needed.
	AddDaily(ctx context.Context, delta entities.DailyStats) error
	AddInstructor(ctx context.Context, delta entities.InstructorStats) error
	// SaveProgress keeps snapshot only if its sequence is higher than the
	// stored one.
	SaveProgress(ctx context.Context, snapshot entities.ProgressSnapshot) (bool, error)

	ListDaily(ctx context.Context, fromDay string, toDay string) ([]entities.DailyStats, error)
	ListInstructors(ctx context.Context) ([]entities.InstructorStats, error)
	GetInstructor(ctx context.Context, instructorID string) (entities.InstructorStats, error)
	GetProgress(ctx context.Context, enrollmentID string) (entities.ProgressSnapshot, error)
}

type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
