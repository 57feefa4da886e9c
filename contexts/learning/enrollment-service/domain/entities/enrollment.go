package entities

import "time"

const (
	EnrollmentStatusActive    = "active"
	EnrollmentStatusCompleted = "completed"
)

// Enrollment is one student's seat in a course. ProgressSeq counts progress
// changes and orders progress facts for consumers.
type Enrollment struct {
	EnrollmentID     string
	StudentID        string
	CourseID         string
	InstructorID     string
	CourseSlug       string
	Status           string
	TotalLessons     int
	CompletedLessons []string
	Progress         int
	ProgressSeq      int64
	EnrolledAt       time.Time
	CompletedAt      *time.Time
	UpdatedAt        time.Time
}

// Progress is the completion percentage, capped at 100. A course without
// lessons reports 0.
func Progress(completed int, total int) int {
	if total <= 0 {
		return 0
	}
	pct := completed * 100 / total
	if pct > 100 {
		return 100
	}
	return pct
}

// SetTotalLessons applies a new lesson count and reports whether the
// enrollment changed.
func (e *Enrollment) SetTotalLessons(total int, at time.Time) bool {
	if total < 0 {
		total = 0
	}
	if e.TotalLessons == total {
		return false
	}
	e.TotalLessons = total
	e.Progress = Progress(len(e.CompletedLessons), total)
	e.ProgressSeq++
	e.UpdatedAt = at
	return true
}

// CompleteLesson records lessonID as done. It returns false when the lesson
// was already recorded.
func (e *Enrollment) CompleteLesson(lessonID string, at time.Time) bool {
	for _, done := range e.CompletedLessons {
		if done == lessonID {
			return false
		}
	}
	e.CompletedLessons = append(e.CompletedLessons, lessonID)
	e.Progress = Progress(len(e.CompletedLessons), e.TotalLessons)
	e.ProgressSeq++
	e.UpdatedAt = at
	return true
}

// MarkCompletedIfDone flips an active enrollment to completed once every
// lesson is done.
func (e *Enrollment) MarkCompletedIfDone(at time.Time) bool {
	if e.Status == EnrollmentStatusCompleted || e.TotalLessons == 0 || e.Progress < 100 {
		return false
	}
	e.Status = EnrollmentStatusCompleted
	e.CompletedAt = &at
	e.UpdatedAt = at
	return true
}

func (e Enrollment) Clone() Enrollment {
	e.CompletedLessons = append([]string(nil), e.CompletedLessons...)
	if e.CompletedAt != nil {
		at := *e.CompletedAt
		e.CompletedAt = &at
	}
	return e
}
