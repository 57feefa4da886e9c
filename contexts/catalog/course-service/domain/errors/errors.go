package errors

import "errors"

var (
	ErrInvalidCourseInput = errors.New("invalid course input")
	ErrInvalidLessonInput = errors.New("invalid lesson input")
	ErrCourseNotFound     = errors.New("course not found")
	ErrLessonNotFound     = errors.New("lesson not found")
	ErrSlugTaken          = errors.New("course slug already taken")
)
