package ports

import (
	"context"
	"time"

	"eduweb/contexts/learning/enrollment-service/domain/entities"
	"eduweb/internal/shared/events"
)

type Repository interface {
	// CreateEnrollment fails with ErrEnrollmentExists when the student is
	// already enrolled in the course.
	CreateEnrollment(ctx context.Context, enrollment entities.Enrollment) error
	GetEnrollment(ctx context.Context, enrollmentID string) (entities.Enrollment, error)
	FindEnrollment(ctx context.Context, studentID string, courseID string) (entities.Enrollment, bool, error)
	ListCourseEnrollments(ctx context.Context, courseID string) ([]entities.Enrollment, error)
	ListStudentEnrollments(ctx context.Context, studentID string) ([]entities.Enrollment, error)
	SaveEnrollment(ctx context.Context, enrollment entities.Enrollment) error

	// LockLessonCount returns the replicated count of a course. Inside a
	// transaction it also holds the course's count row until commit, so
	// enrolling and replicating a new total for the same course serialize.
	LockLessonCount(ctx context.Context, courseID string) (entities.LessonCount, bool, error)
	// SaveLessonCount stores count unless one with an equal or higher
	// version is already present and reports whether it was stored.
	SaveLessonCount(ctx context.Context, count entities.LessonCount) (bool, error)
}

// CourseLookup asks course-service for a lesson total and its version when
// no replicated count exists yet.
type CourseLookup interface {
	LessonCount(ctx context.Context, courseID string) (entities.LessonCount, error)
}

type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

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
