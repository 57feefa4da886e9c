package ports

import (
	"context"
	"time"

	"eduweb/contexts/catalog/course-service/domain/entities"
	"eduweb/internal/shared/events"
)

type Repository interface {
	CreateCourse(ctx context.Context, course entities.Course) error
	GetCourse(ctx context.Context, courseID string) (entities.Course, error)
	ListLessons(ctx context.Context, courseID string) ([]entities.Lesson, error)
	// AddLesson appends the lesson after the last position and returns the
	// course with its new total.
	AddLesson(ctx context.Context, lesson entities.Lesson, now time.Time) (entities.Course, entities.Lesson, error)
	RemoveLesson(ctx context.Context, courseID string, lessonID string, now time.Time) (entities.Course, error)
}

type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher stages events inside the command transaction and publishes
// them once it committed.
type EventPublisher interface {
	Stage(ctx context.Context, envs ...events.Envelope) error
	PublishCommitted(ctx context.Context, envs ...events.Envelope)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
