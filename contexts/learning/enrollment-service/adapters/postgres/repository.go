package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"eduweb/contexts/learning/enrollment-service/domain/entities"
	domainerrors "eduweb/contexts/learning/enrollment-service/domain/errors"
	"eduweb/contexts/learning/enrollment-service/ports"
	"eduweb/internal/platform/db"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	OutboxTable          = "enrollment_outbox"
	ProcessedEventsTable = "enrollment_processed_events"
)

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

func (r *Repository) CreateEnrollment(ctx context.Context, enrollment entities.Enrollment) error {
	row := fromEnrollment(enrollment)
	if err := db.Conn(ctx, r.db).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrEnrollmentExists
		}
		return r.logError("enrollment_repo_create_failed", err, "enrollment_id", enrollment.EnrollmentID)
	}
	return nil
}

func (r *Repository) GetEnrollment(ctx context.Context, enrollmentID string) (entities.Enrollment, error) {
	var row enrollmentModel
	if err := r.query(ctx).Where("enrollment_id = ?", enrollmentID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Enrollment{}, domainerrors.ErrEnrollmentNotFound
		}
		return entities.Enrollment{}, r.logError("enrollment_repo_get_failed", err, "enrollment_id", enrollmentID)
	}
	return row.toEntity(), nil
}

func (r *Repository) FindEnrollment(ctx context.Context, studentID string, courseID string) (entities.Enrollment, bool, error) {
	var rows []enrollmentModel
	if err := r.query(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		Limit(1).
		Find(&rows).Error; err != nil {
		return entities.Enrollment{}, false, r.logError("enrollment_repo_find_failed", err, "student_id", studentID, "course_id", courseID)
	}
	if len(rows) == 0 {
		return entities.Enrollment{}, false, nil
	}
	return rows[0].toEntity(), true, nil
}

func (r *Repository) ListCourseEnrollments(ctx context.Context, courseID string) ([]entities.Enrollment, error) {
	var rows []enrollmentModel
	if err := r.query(ctx).
		Where("course_id = ?", courseID).
		Order("enrolled_at ASC, enrollment_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("enrollment_repo_list_course_failed", err, "course_id", courseID)
	}
	return toEntities(rows), nil
}

func (r *Repository) ListStudentEnrollments(ctx context.Context, studentID string) ([]entities.Enrollment, error) {
	var rows []enrollmentModel
	if err := db.Conn(ctx, r.db).
		Where("student_id = ?", studentID).
		Order("enrolled_at ASC, enrollment_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("enrollment_repo_list_student_failed", err, "student_id", studentID)
	}
	return toEntities(rows), nil
}

func (r *Repository) SaveEnrollment(ctx context.Context, enrollment entities.Enrollment) error {
	row := fromEnrollment(enrollment)
	result := db.Conn(ctx, r.db).
		Model(&enrollmentModel{}).
		Where("enrollment_id = ?", enrollment.EnrollmentID).
		Select("status", "total_lessons", "completed_lessons", "progress", "progress_seq", "completed_at", "updated_at").
		Updates(&row)
	if result.Error != nil {
		return r.logError("enrollment_repo_save_failed", result.Error, "enrollment_id", enrollment.EnrollmentID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrEnrollmentNotFound
	}
	return nil
}

// LockLessonCount makes sure the course's count row exists and, inside a
// transaction, locks it with FOR UPDATE. A placeholder row has version 0 and
// reads as not found.
func (r *Repository) LockLessonCount(ctx context.Context, courseID string) (entities.LessonCount, bool, error) {
	conn := db.Conn(ctx, r.db)
	if db.InTx(ctx) {
		placeholder := lessonCountModel{CourseID: courseID, AsOf: time.Now().UTC()}
		if err := conn.Clauses(clause.OnConflict{DoNothing: true}).Create(&placeholder).Error; err != nil {
			return entities.LessonCount{}, false, r.logError("enrollment_repo_seed_lesson_count_failed", err, "course_id", courseID)
		}
	}

	var rows []lessonCountModel
	if err := r.query(ctx).Where("course_id = ?", courseID).Limit(1).Find(&rows).Error; err != nil {
		return entities.LessonCount{}, false, r.logError("enrollment_repo_lock_lesson_count_failed", err, "course_id", courseID)
	}
	if len(rows) == 0 || rows[0].Version == 0 {
		return entities.LessonCount{}, false, nil
	}
	return rows[0].toEntity(), true, nil
}

// SaveLessonCount upserts the count; the conflict branch only fires for a
// higher version, so RowsAffected tells whether it was stored. The upsert
// locks the row like LockLessonCount does.
func (r *Repository) SaveLessonCount(ctx context.Context, count entities.LessonCount) (bool, error) {
	row := lessonCountModel{
		CourseID:     count.CourseID,
		TotalLessons: count.TotalLessons,
		Version:      count.Version,
		AsOf:         count.AsOf.UTC(),
	}
	result := db.Conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "course_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"total_lessons", "version", "as_of"}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "enrollment_course_lessons.version < excluded.version"},
			}},
		}).
		Create(&row)
	if result.Error != nil {
		return false, r.logError("enrollment_repo_save_lesson_count_failed", result.Error, "course_id", count.CourseID)
	}
	return result.RowsAffected > 0, nil
}

// query locks selected rows when a transaction is open.
func (r *Repository) query(ctx context.Context) *gorm.DB {
	conn := db.Conn(ctx, r.db)
	if db.InTx(ctx) {
		return conn.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return conn
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "learning/enrollment-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("enrollment repository operation failed", fields...)
	return err
}

type enrollmentModel struct {
	EnrollmentID     string     `gorm:"column:enrollment_id;primaryKey"`
	StudentID        string     `gorm:"column:student_id"`
	CourseID         string     `gorm:"column:course_id"`
	InstructorID     string     `gorm:"column:instructor_id"`
	CourseSlug       string     `gorm:"column:course_slug"`
	Status           string     `gorm:"column:status"`
	TotalLessons     int        `gorm:"column:total_lessons"`
	CompletedLessons []string   `gorm:"column:completed_lessons;type:jsonb;serializer:json"`
	Progress         int        `gorm:"column:progress"`
	ProgressSeq      int64      `gorm:"column:progress_seq"`
	EnrolledAt       time.Time  `gorm:"column:enrolled_at"`
	CompletedAt      *time.Time `gorm:"column:completed_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at"`
}

func (enrollmentModel) TableName() string {
	return "enrollments"
}

type lessonCountModel struct {
	CourseID     string    `gorm:"column:course_id;primaryKey"`
	TotalLessons int       `gorm:"column:total_lessons"`
	Version      int64     `gorm:"column:version"`
	AsOf         time.Time `gorm:"column:as_of"`
}

func (lessonCountModel) TableName() string {
	return "enrollment_course_lessons"
}

func (m lessonCountModel) toEntity() entities.LessonCount {
	return entities.LessonCount{
		CourseID:     m.CourseID,
		TotalLessons: m.TotalLessons,
		Version:      m.Version,
		AsOf:         m.AsOf.UTC(),
	}
}

func fromEnrollment(e entities.Enrollment) enrollmentModel {
	completed := e.CompletedLessons
	if completed == nil {
		completed = []string{}
	}
	return enrollmentModel{
		EnrollmentID:     e.EnrollmentID,
		StudentID:        e.StudentID,
		CourseID:         e.CourseID,
		InstructorID:     e.InstructorID,
		CourseSlug:       e.CourseSlug,
		Status:           e.Status,
		TotalLessons:     e.TotalLessons,
		CompletedLessons: completed,
		Progress:         e.Progress,
		ProgressSeq:      e.ProgressSeq,
		EnrolledAt:       e.EnrolledAt.UTC(),
		CompletedAt:      e.CompletedAt,
		UpdatedAt:        e.UpdatedAt.UTC(),
	}
}

func (m enrollmentModel) toEntity() entities.Enrollment {
	return entities.Enrollment{
		EnrollmentID:     m.EnrollmentID,
		StudentID:        m.StudentID,
		CourseID:         m.CourseID,
		InstructorID:     m.InstructorID,
		CourseSlug:       m.CourseSlug,
		Status:           m.Status,
		TotalLessons:     m.TotalLessons,
		CompletedLessons: m.CompletedLessons,
		Progress:         m.Progress,
		ProgressSeq:      m.ProgressSeq,
		EnrolledAt:       m.EnrolledAt.UTC(),
		CompletedAt:      m.CompletedAt,
		UpdatedAt:        m.UpdatedAt.UTC(),
	}
}

func toEntities(rows []enrollmentModel) []entities.Enrollment {
	items := make([]entities.Enrollment, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.Repository = (*Repository)(nil)
