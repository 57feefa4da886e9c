package application

import (
	"fmt"
	"time"

	contractsv1 "eduweb/contracts/events/v1"
	"eduweb/contexts/learning/enrollment-service/domain/entities"
	"eduweb/internal/shared/events"
)

// Enrollment facts are keyed by enrollment id so one enrollment's events
// stay on one partition.

func EnrollmentCreated(e entities.Enrollment, at time.Time) (events.Envelope, error) {
	env, err := events.New(contractsv1.TypeEnrollmentCreated, events.ServiceEnrollment, e.EnrollmentID, at,
		contractsv1.EnrollmentCreated{
			EnrollmentID: e.EnrollmentID,
			CourseID:     e.CourseID,
			StudentID:    e.StudentID,
			InstructorID: e.InstructorID,
			TotalLessons: e.TotalLessons,
			EnrolledAt:   e.EnrolledAt,
		})
	if err != nil {
		return events.Envelope{}, fmt.Errorf("build enrollment created event: %w", err)
	}
	return env, nil
}

func ProgressUpdated(e entities.Enrollment, at time.Time) (events.Envelope, error) {
	env, err := events.New(contractsv1.TypeEnrollmentProgressUpdated, events.ServiceEnrollment, e.EnrollmentID, at,
		contractsv1.EnrollmentProgressUpdated{
			EnrollmentID:     e.EnrollmentID,
			CourseID:         e.CourseID,
			StudentID:        e.StudentID,
			InstructorID:     e.InstructorID,
			CompletedLessons: len(e.CompletedLessons),
			TotalLessons:     e.TotalLessons,
			Progress:         e.Progress,
			Sequence:         e.ProgressSeq,
		})
	if err != nil {
		return events.Envelope{}, fmt.Errorf("build progress updated event: %w", err)
	}
	return env, nil
}

func EnrollmentCompleted(e entities.Enrollment, at time.Time) (events.Envelope, error) {
	env, err := events.New(contractsv1.TypeEnrollmentCompleted, events.ServiceEnrollment, e.EnrollmentID, at,
		contractsv1.EnrollmentCompleted{
			EnrollmentID: e.EnrollmentID,
			CourseID:     e.CourseID,
			StudentID:    e.StudentID,
			InstructorID: e.InstructorID,
			CompletedAt:  at,
		})
	if err != nil {
		return events.Envelope{}, fmt.Errorf("build enrollment completed event: %w", err)
	}
	return env, nil
}
