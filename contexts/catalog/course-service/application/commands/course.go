package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	contractsv1 "eduweb/contracts/events/v1"
	application "eduweb/contexts/catalog/course-service/application"
	"eduweb/contexts/catalog/course-service/domain/entities"
	domainerrors "eduweb/contexts/catalog/course-service/domain/errors"
	"eduweb/contexts/catalog/course-service/ports"
	"eduweb/internal/shared/events"
)

type CreateCourseCommand struct {
	InstructorID string
	Title        string
	Slug         string
}

type AddLessonCommand struct {
	CourseID string
	Title    string
}

type RemoveLessonCommand struct {
	CourseID string
	LessonID string
}

// LessonResult is the course after a lesson change plus the lesson touched.
type LessonResult struct {
	Course entities.Course
	Lesson entities.Lesson
}

type CourseUseCase struct {
	Repository ports.Repository
	Tx         ports.Transactor
	Publisher  ports.EventPublisher
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func (uc CourseUseCase) CreateCourse(ctx context.Context, cmd CreateCourseCommand) (entities.Course, error) {
	logger := application.ResolveLogger(uc.Logger)
	instructorID := strings.TrimSpace(cmd.InstructorID)
	title := strings.TrimSpace(cmd.Title)
	slug := strings.ToLower(strings.TrimSpace(cmd.Slug))
	if instructorID == "" || title == "" || slug == "" || strings.ContainsAny(slug, " /") {
		return entities.Course{}, domainerrors.ErrInvalidCourseInput
	}

	courseID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Course{}, err
	}
	now := uc.Clock.Now().UTC()
	course := entities.Course{
		CourseID:     courseID,
		InstructorID: instructorID,
		Title:        title,
		Slug:         slug,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.Repository.CreateCourse(ctx, course); err != nil {
		return entities.Course{}, err
	}

	logger.Info("course created",
		"event", "course_created",
		"module", "catalog/course-service",
		"layer", "application",
		"course_id", course.CourseID,
		"instructor_id", course.InstructorID,
	)
	return course, nil
}

// AddLesson appends a lesson at the end of the course and announces the new
// lesson count.
func (uc CourseUseCase) AddLesson(ctx context.Context, cmd AddLessonCommand) (LessonResult, error) {
	courseID := strings.TrimSpace(cmd.CourseID)
	title := strings.TrimSpace(cmd.Title)
	if courseID == "" || title == "" {
		return LessonResult{}, domainerrors.ErrInvalidLessonInput
	}
	lessonID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return LessonResult{}, err
	}

	var result LessonResult
	var env events.Envelope
	err = uc.Tx.WithinTx(ctx, func(ctx context.Context) error {
		now := uc.Clock.Now().UTC()
		course, lesson, err := uc.Repository.AddLesson(ctx, entities.Lesson{
			LessonID:  lessonID,
			CourseID:  courseID,
			Title:     title,
			CreatedAt: now,
		}, now)
		if err != nil {
			return err
		}
		result = LessonResult{Course: course, Lesson: lesson}

		env, err = totalLessonsChanged(course, uc.Clock.Now().UTC())
		if err != nil {
			return err
		}
		return uc.Publisher.Stage(ctx, env)
	})
	if err != nil {
		return LessonResult{}, err
	}
	uc.Publisher.PublishCommitted(ctx, env)

	application.ResolveLogger(uc.Logger).Info("lesson added",
		"event", "course_lesson_added",
		"module", "catalog/course-service",
		"layer", "application",
		"course_id", courseID,
		"lesson_id", lessonID,
		"total_lessons", result.Course.TotalLessons,
	)
	return result, nil
}

func (uc CourseUseCase) RemoveLesson(ctx context.Context, cmd RemoveLessonCommand) (entities.Course, error) {
	courseID := strings.TrimSpace(cmd.CourseID)
	lessonID := strings.TrimSpace(cmd.LessonID)
	if courseID == "" || lessonID == "" {
		return entities.Course{}, domainerrors.ErrInvalidLessonInput
	}

	var course entities.Course
	var env events.Envelope
	err := uc.Tx.WithinTx(ctx, func(ctx context.Context) error {
		now := uc.Clock.Now().UTC()
		var err error
		course, err = uc.Repository.RemoveLesson(ctx, courseID, lessonID, now)
		if err != nil {
			return err
		}
		env, err = totalLessonsChanged(course, uc.Clock.Now().UTC())
		if err != nil {
			return err
		}
		return uc.Publisher.Stage(ctx, env)
	})
	if err != nil {
		return entities.Course{}, err
	}
	uc.Publisher.PublishCommitted(ctx, env)

	application.ResolveLogger(uc.Logger).Info("lesson removed",
		"event", "course_lesson_removed",
		"module", "catalog/course-service",
		"layer", "application",
		"course_id", courseID,
		"lesson_id", lessonID,
		"total_lessons", course.TotalLessons,
	)
	return course, nil
}

// totalLessonsChanged is built while the course row is still locked; the
// version, not the timestamp, orders successive totals.
func totalLessonsChanged(course entities.Course, now time.Time) (events.Envelope, error) {
	env, err := events.New(contractsv1.TypeCourseTotalLessonsChanged, events.ServiceCourse, course.CourseID, now,
		contractsv1.CourseTotalLessonsChanged{
			CourseID:     course.CourseID,
			TotalLessons: course.TotalLessons,
			Version:      course.LessonsVersion,
		})
	if err != nil {
		return events.Envelope{}, fmt.Errorf("build total lessons event: %w", err)
	}
	return env, nil
}
