package queries

import (
	"context"
	"strings"

	"eduweb/contexts/catalog/course-service/domain/entities"
	domainerrors "eduweb/contexts/catalog/course-service/domain/errors"
	"eduweb/contexts/catalog/course-service/ports"
)

type CourseDetail struct {
	Course  entities.Course
	Lessons []entities.Lesson
}

type CourseQueries struct {
	Repository ports.Repository
}

func (q CourseQueries) GetCourse(ctx context.Context, courseID string) (CourseDetail, error) {
	courseID = strings.TrimSpace(courseID)
	if courseID == "" {
		return CourseDetail{}, domainerrors.ErrInvalidCourseInput
	}
	course, err := q.Repository.GetCourse(ctx, courseID)
	if err != nil {
		return CourseDetail{}, err
	}
	lessons, err := q.Repository.ListLessons(ctx, courseID)
	if err != nil {
		return CourseDetail{}, err
	}
	return CourseDetail{Course: course, Lessons: lessons}, nil
}

// TotalLessons serves the synchronous lookup used by enrollment when its
// replicated count is missing. The course carries the lesson count and the
// version it belongs to.
func (q CourseQueries) TotalLessons(ctx context.Context, courseID string) (entities.Course, error) {
	courseID = strings.TrimSpace(courseID)
	if courseID == "" {
		return entities.Course{}, domainerrors.ErrInvalidCourseInput
	}
	return q.Repository.GetCourse(ctx, courseID)
}
