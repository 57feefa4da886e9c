package httptransport

import "time"

type CreateCourseRequest struct {
	InstructorID string `json:"instructor_id"`
	Title        string `json:"title"`
	Slug         string `json:"slug"`
}

type AddLessonRequest struct {
	Title string `json:"title"`
}

type LessonDTO struct {
	LessonID string `json:"lesson_id"`
	Title    string `json:"title"`
	Position int    `json:"position"`
}

type CourseResponse struct {
	CourseID     string      `json:"course_id"`
	InstructorID string      `json:"instructor_id"`
	Title        string      `json:"title"`
	Slug         string      `json:"slug"`
	TotalLessons int         `json:"total_lessons"`
	Lessons      []LessonDTO `json:"lessons,omitempty"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

type AddLessonResponse struct {
	Lesson       LessonDTO `json:"lesson"`
	CourseID     string    `json:"course_id"`
	TotalLessons int       `json:"total_lessons"`
}

type TotalLessonsResponse struct {
	CourseID     string `json:"course_id"`
	TotalLessons int    `json:"total_lessons"`
	Version      int64  `json:"version"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
