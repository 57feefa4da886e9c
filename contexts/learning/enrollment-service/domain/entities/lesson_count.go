package entities

import "time"

// LessonCount is the local replica of a course's lesson total. Version is
// the course's lessons version the total belongs to; AsOf records when it
// was replicated.
type LessonCount struct {
	CourseID     string
	TotalLessons int
	Version      int64
	AsOf         time.Time
}

// Supersedes reports whether c is newer than current and should replace it.
// Versions are assigned by course-service under its row lock, so they order
// totals regardless of clocks.
func (c LessonCount) Supersedes(current LessonCount) bool {
	return c.Version > current.Version
}
