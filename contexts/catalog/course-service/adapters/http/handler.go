package httpadapter

import (
	"context"
	"log/slog"

	application "eduweb/contexts/catalog/course-service/application"
	"eduweb/contexts/catalog/course-service/application/commands"
	"eduweb/contexts/catalog/course-service/application/queries"
	"eduweb/contexts/catalog/course-service/domain/entities"
	httptransport "eduweb/contexts/catalog/course-service/transport/http"
)

type Handler struct {
	Courses commands.CourseUseCase
	Queries queries.CourseQueries
	Logger  *slog.Logger
}

// CreateCourseHandler godoc
// @Summary Create a course
// @Tags course-service
// @Accept json
// @Produce json
// @Param request body httptransport.CreateCourseRequest true "Course"
// @Success 201 {object} httptransport.CourseResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /api/courses [post]
func (h Handler) CreateCourseHandler(ctx context.Context, req httptransport.CreateCourseRequest) (httptransport.CourseResponse, error) {
	course, err := h.Courses.CreateCourse(ctx, commands.CreateCourseCommand{
		InstructorID: req.InstructorID,
		Title:        req.Title,
		Slug:         req.Slug,
	})
	if err != nil {
		return httptransport.CourseResponse{}, err
	}
	return toCourseResponse(course, nil), nil
}

// GetCourseHandler godoc
// @Summary Get a course with its lessons
// @Tags course-service
// @Produce json
// @Param course_id path string true "Course id"
// @Success 200 {object} httptransport.CourseResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /api/courses/{course_id} [get]
func (h Handler) GetCourseHandler(ctx context.Context, courseID string) (httptransport.CourseResponse, error) {
	detail, err := h.Queries.GetCourse(ctx, courseID)
	if err != nil {
		return httptransport.CourseResponse{}, err
	}
	return toCourseResponse(detail.Course, detail.Lessons), nil
}

// AddLessonHandler godoc
// @Summary Append a lesson to a course
// @Description Emits course.total-lessons-changed with the new count.
// @Tags course-service
// @Accept json
// @Produce json
// @Param course_id path string true "Course id"
// @Param request body httptransport.AddLessonRequest true "Lesson"
// @Success 201 {object} httptransport.AddLessonResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /api/courses/{course_id}/lessons [post]
func (h Handler) AddLessonHandler(ctx context.Context, courseID string, req httptransport.AddLessonRequest) (httptransport.AddLessonResponse, error) {
	result, err := h.Courses.AddLesson(ctx, commands.AddLessonCommand{
		CourseID: courseID,
		Title:    req.Title,
	})
	if err != nil {
		application.ResolveLogger(h.Logger).Warn("add lesson request failed",
			"event", "http_course_add_lesson_failed",
			"module", "catalog/course-service",
			"layer", "transport",
			"course_id", courseID,
			"error", err.Error(),
		)
		return httptransport.AddLessonResponse{}, err
	}
	return httptransport.AddLessonResponse{
		Lesson:       toLessonDTO(result.Lesson),
		CourseID:     result.Course.CourseID,
		TotalLessons: result.Course.TotalLessons,
	}, nil
}

// RemoveLessonHandler godoc
// @Summary Remove a lesson from a course
// @Tags course-service
// @Produce json
// @Param course_id path string true "Course id"
// @Param lesson_id path string true "Lesson id"
// @Success 200 {object} httptransport.TotalLessonsResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /api/courses/{course_id}/lessons/{lesson_id} [delete]
func (h Handler) RemoveLessonHandler(ctx context.Context, courseID string, lessonID string) (httptransport.TotalLessonsResponse, error) {
	course, err := h.Courses.RemoveLesson(ctx, commands.RemoveLessonCommand{
		CourseID: courseID,
		LessonID: lessonID,
	})
	if err != nil {
		return httptransport.TotalLessonsResponse{}, err
	}
	return httptransport.TotalLessonsResponse{
		CourseID:     course.CourseID,
		TotalLessons: course.TotalLessons,
		Version:      course.LessonsVersion,
	}, nil
}

// TotalLessonsHandler godoc
// @Summary Authoritative lesson count of a course
// @Tags course-service
// @Produce json
// @Param course_id path string true "Course id"
// @Success 200 {object} httptransport.TotalLessonsResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /api/courses/{course_id}/total-lessons [get]
func (h Handler) TotalLessonsHandler(ctx context.Context, courseID string) (httptransport.TotalLessonsResponse, error) {
	course, err := h.Queries.TotalLessons(ctx, courseID)
	if err != nil {
		return httptransport.TotalLessonsResponse{}, err
	}
	return httptransport.TotalLessonsResponse{
		CourseID:     course.CourseID,
		TotalLessons: course.TotalLessons,
		Version:      course.LessonsVersion,
	}, nil
}

func toCourseResponse(course entities.Course, lessons []entities.Lesson) httptransport.CourseResponse {
	resp := httptransport.CourseResponse{
		CourseID:     course.CourseID,
		InstructorID: course.InstructorID,
		Title:        course.Title,
		Slug:         course.Slug,
		TotalLessons: course.TotalLessons,
		UpdatedAt:    course.UpdatedAt,
	}
	for _, lesson := range lessons {
		resp.Lessons = append(resp.Lessons, toLessonDTO(lesson))
	}
	return resp
}

func toLessonDTO(lesson entities.Lesson) httptransport.LessonDTO {
	return httptransport.LessonDTO{
		LessonID: lesson.LessonID,
		Title:    lesson.Title,
		Position: lesson.Position,
	}
}
