package entities

import "time"

// Course is a catalog entry. LessonsVersion increases by one with every
// lesson change and orders announced totals for replicas.
type Course struct {
	CourseID       string
	InstructorID   string
	Title          string
	Slug           string
	TotalLessons   int
	LessonsVersion int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Lesson struct {
	LessonID  string
	CourseID  string
	Title     string
	Position  int
	CreatedAt time.Time
}
