package v1

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TypeUserCreated               = "user.created"
	TypeUserProfileCompleted      = "user.profile-completed"
	TypeCourseTotalLessonsChanged = "course.total-lessons-changed"
	TypePaymentCompleted          = "payment.completed"
	TypeEnrollmentCreated         = "enrollment.created"
	TypeEnrollmentCompleted       = "enrollment.completed"
	TypeEnrollmentProgressUpdated = "enrollment.progress-updated"
)

// UserCreated is emitted by auth once an account is registered.
type UserCreated struct {
	UserID string `json:"user_id" validate:"required"`
	Email  string `json:"email" validate:"required,email"`
}

// UserProfileCompleted is emitted by user when onboarding data is filled in.
type UserProfileCompleted struct {
	UserID      string    `json:"user_id" validate:"required"`
	FullName    string    `json:"full_name" validate:"required"`
	CompletedAt time.Time `json:"completed_at" validate:"required"`
}

// CourseTotalLessonsChanged carries the authoritative lesson count of a course.
// Consumers replicate TotalLessons locally and keep the highest Version.
type CourseTotalLessonsChanged struct {
	CourseID     string `json:"course_id" validate:"required"`
	TotalLessons int    `json:"total_lessons" validate:"gte=0"`
	Version      int64  `json:"version" validate:"gte=1"`
}

type PaymentCompleted struct {
	PaymentID    string          `json:"payment_id" validate:"required"`
	UserID       string          `json:"user_id" validate:"required"`
	CourseID     string          `json:"course_id" validate:"required"`
	InstructorID string          `json:"instructor_id" validate:"required"`
	CourseSlug   string          `json:"course_slug"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency" validate:"required,len=3"`
	TxnRef       string          `json:"txn_ref"`
	CompletedAt  time.Time       `json:"completed_at" validate:"required"`
}

func (p PaymentCompleted) Validate() error {
	if !p.Amount.IsPositive() {
		return errors.New("amount must be positive")
	}
	return nil
}

type EnrollmentCreated struct {
	EnrollmentID string    `json:"enrollment_id" validate:"required"`
	CourseID     string    `json:"course_id" validate:"required"`
	StudentID    string    `json:"student_id" validate:"required"`
	InstructorID string    `json:"instructor_id" validate:"required"`
	TotalLessons int       `json:"total_lessons" validate:"gte=0"`
	EnrolledAt   time.Time `json:"enrolled_at" validate:"required"`
}

type EnrollmentCompleted struct {
	EnrollmentID string    `json:"enrollment_id" validate:"required"`
	CourseID     string    `json:"course_id" validate:"required"`
	StudentID    string    `json:"student_id" validate:"required"`
	InstructorID string    `json:"instructor_id" validate:"required"`
	CompletedAt  time.Time `json:"completed_at" validate:"required"`
}

// EnrollmentProgressUpdated reports overall progress as a 0..100 percentage.
// Sequence grows with every progress change of the enrollment.
type EnrollmentProgressUpdated struct {
	EnrollmentID     string `json:"enrollment_id" validate:"required"`
	CourseID         string `json:"course_id" validate:"required"`
	StudentID        string `json:"student_id" validate:"required"`
	InstructorID     string `json:"instructor_id" validate:"required"`
	CompletedLessons int    `json:"completed_lessons" validate:"gte=0"`
	TotalLessons     int    `json:"total_lessons" validate:"gte=0"`
	Progress         int    `json:"progress" validate:"gte=0,lte=100"`
	Sequence         int64  `json:"sequence" validate:"gte=1"`
}
