package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"eduweb/contexts/catalog/course-service/domain/entities"
	domainerrors "eduweb/contexts/catalog/course-service/domain/errors"
	"eduweb/contexts/catalog/course-service/ports"
	"eduweb/internal/platform/db"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const OutboxTable = "course_outbox"

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(gdb *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: gdb, logger: logger}
}

func (r *Repository) CreateCourse(ctx context.Context, course entities.Course) error {
	row := fromCourse(course)
	if err := db.Conn(ctx, r.db).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrSlugTaken
		}
		return r.logError("course_repo_create_failed", err, "course_id", course.CourseID)
	}
	return nil
}

func (r *Repository) GetCourse(ctx context.Context, courseID string) (entities.Course, error) {
	var row courseModel
	if err := db.Conn(ctx, r.db).Where("course_id = ?", courseID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Course{}, domainerrors.ErrCourseNotFound
		}
		return entities.Course{}, r.logError("course_repo_get_failed", err, "course_id", courseID)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListLessons(ctx context.Context, courseID string) ([]entities.Lesson, error) {
	var rows []lessonModel
	if err := db.Conn(ctx, r.db).
		Where("course_id = ?", courseID).
		Order("position ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("course_repo_list_lessons_failed", err, "course_id", courseID)
	}
	items := make([]entities.Lesson, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// AddLesson locks the course row so concurrent lesson changes serialize and
// every emitted total reflects a committed count. lessons_version is bumped
// under the same lock.
func (r *Repository) AddLesson(ctx context.Context, lesson entities.Lesson, now time.Time) (entities.Course, entities.Lesson, error) {
	conn := db.Conn(ctx, r.db)
	course, err := r.lockCourse(conn, lesson.CourseID)
	if err != nil {
		return entities.Course{}, entities.Lesson{}, err
	}

	var maxPosition int
	if err := conn.Model(&lessonModel{}).
		Where("course_id = ?", lesson.CourseID).
		Select("COALESCE(MAX(position), 0)").
		Scan(&maxPosition).Error; err != nil {
		return entities.Course{}, entities.Lesson{}, r.logError("course_repo_max_position_failed", err, "course_id", lesson.CourseID)
	}
	lesson.Position = maxPosition + 1

	row := fromLesson(lesson)
	if err := conn.Create(&row).Error; err != nil {
		return entities.Course{}, entities.Lesson{}, r.logError("course_repo_add_lesson_failed", err, "lesson_id", lesson.LessonID)
	}

	course.TotalLessons++
	course.LessonsVersion++
	course.UpdatedAt = laterOf(course.UpdatedAt, now.UTC())
	if err := r.saveTotal(conn, course); err != nil {
		return entities.Course{}, entities.Lesson{}, err
	}
	return course.toEntity(), lesson, nil
}

func (r *Repository) RemoveLesson(ctx context.Context, courseID string, lessonID string, now time.Time) (entities.Course, error) {
	conn := db.Conn(ctx, r.db)
	course, err := r.lockCourse(conn, courseID)
	if err != nil {
		return entities.Course{}, err
	}

	result := conn.Where("lesson_id = ? AND course_id = ?", lessonID, courseID).Delete(&lessonModel{})
	if result.Error != nil {
		return entities.Course{}, r.logError("course_repo_remove_lesson_failed", result.Error, "lesson_id", lessonID)
	}
	if result.RowsAffected == 0 {
		return entities.Course{}, domainerrors.ErrLessonNotFound
	}

	course.TotalLessons--
	course.LessonsVersion++
	course.UpdatedAt = laterOf(course.UpdatedAt, now.UTC())
	if err := r.saveTotal(conn, course); err != nil {
		return entities.Course{}, err
	}
	return course.toEntity(), nil
}

func (r *Repository) lockCourse(conn *gorm.DB, courseID string) (courseModel, error) {
	var row courseModel
	if err := conn.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("course_id = ?", courseID).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return courseModel{}, domainerrors.ErrCourseNotFound
		}
		return courseModel{}, r.logError("course_repo_lock_failed", err, "course_id", courseID)
	}
	return row, nil
}

// laterOf keeps updated_at from moving backwards when now was read before
// the row lock was granted.
func laterOf(current time.Time, now time.Time) time.Time {
	if now.Before(current) {
		return current
	}
	return now
}

func (r *Repository) saveTotal(conn *gorm.DB, course courseModel) error {
	if err := conn.Model(&courseModel{}).
		Where("course_id = ?", course.CourseID).
		Updates(map[string]any{
			"total_lessons":   course.TotalLessons,
			"lessons_version": course.LessonsVersion,
			"updated_at":      course.UpdatedAt,
		}).Error; err != nil {
		return r.logError("course_repo_save_total_failed", err, "course_id", course.CourseID)
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+7)
	fields = append(fields,
		"event", event,
		"module", "catalog/course-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("course repository operation failed", fields...)
	return err
}

type courseModel struct {
	CourseID       string    `gorm:"column:course_id;primaryKey"`
	InstructorID   string    `gorm:"column:instructor_id"`
	Title          string    `gorm:"column:title"`
	Slug           string    `gorm:"column:slug"`
	TotalLessons   int       `gorm:"column:total_lessons"`
	LessonsVersion int64     `gorm:"column:lessons_version"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (courseModel) TableName() string {
	return "courses"
}

func fromCourse(course entities.Course) courseModel {
	return courseModel{
		CourseID:       course.CourseID,
		InstructorID:   course.InstructorID,
		Title:          course.Title,
		Slug:           course.Slug,
		TotalLessons:   course.TotalLessons,
		LessonsVersion: course.LessonsVersion,
		CreatedAt:      course.CreatedAt.UTC(),
		UpdatedAt:      course.UpdatedAt.UTC(),
	}
}

func (m courseModel) toEntity() entities.Course {
	return entities.Course{
		CourseID:       m.CourseID,
		InstructorID:   m.InstructorID,
		Title:          m.Title,
		Slug:           m.Slug,
		TotalLessons:   m.TotalLessons,
		LessonsVersion: m.LessonsVersion,
		CreatedAt:      m.CreatedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
	}
}

type lessonModel struct {
	LessonID  string    `gorm:"column:lesson_id;primaryKey"`
	CourseID  string    `gorm:"column:course_id"`
	Title     string    `gorm:"column:title"`
	Position  int       `gorm:"column:position"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (lessonModel) TableName() string {
	return "course_lessons"
}

func fromLesson(lesson entities.Lesson) lessonModel {
	return lessonModel{
		LessonID:  lesson.LessonID,
		CourseID:  lesson.CourseID,
		Title:     lesson.Title,
		Position:  lesson.Position,
		CreatedAt: lesson.CreatedAt.UTC(),
	}
}

func (m lessonModel) toEntity() entities.Lesson {
	return entities.Lesson{
		LessonID:  m.LessonID,
		CourseID:  m.CourseID,
		Title:     m.Title,
		Position:  m.Position,
		CreatedAt: m.CreatedAt.UTC(),
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.Repository = (*Repository)(nil)
