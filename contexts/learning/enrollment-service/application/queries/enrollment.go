package queries

import (
	"context"
	"strings"

	"eduweb/contexts/learning/enrollment-service/domain/entities"
	domainerrors "eduweb/contexts/learning/enrollment-service/domain/errors"
	"eduweb/contexts/learning/enrollment-service/ports"
)

type EnrollmentQueries struct {
	Enrollments ports.Repository
}

func (q EnrollmentQueries) GetEnrollment(ctx context.Context, enrollmentID string) (entities.Enrollment, error) {
	enrollmentID = strings.TrimSpace(enrollmentID)
	if enrollmentID == "" {
		return entities.Enrollment{}, domainerrors.ErrInvalidEnrollmentInput
	}
	return q.Enrollments.GetEnrollment(ctx, enrollmentID)
}

func (q EnrollmentQueries) ListStudentEnrollments(ctx context.Context, studentID string) ([]entities.Enrollment, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, domainerrors.ErrInvalidEnrollmentInput
	}
	return q.Enrollments.ListStudentEnrollments(ctx, studentID)
}
