package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"eduweb/contexts/insights/analytics-service/domain/entities"
	domainerrors "eduweb/contexts/insights/analytics-service/domain/errors"
	"eduweb/contexts/insights/analytics-service/ports"
	"eduweb/internal/platform/db"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const ProcessedEventsTable = "analytics_processed_events"

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

func (r *Repository) AddDaily(ctx context.Context, delta entities.DailyStats) error {
	row := dailyModel{
		Day:           delta.Day,
		Revenue:       delta.Revenue,
		Payments:      delta.Payments,
		Registrations: delta.Registrations,
		Enrollments:   delta.Enrollments,
		Completions:   delta.Completions,
	}
	err := db.Conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "day"}},
			DoUpdates: clause.Assignments(map[string]any{
				"revenue":       gorm.Expr("analytics_daily_stats.revenue + excluded.revenue"),
				"payments":      gorm.Expr("analytics_daily_stats.payments + excluded.payments"),
				"registrations": gorm.Expr("analytics_daily_stats.registrations + excluded.registrations"),
				"enrollments":   gorm.Expr("analytics_daily_stats.enrollments + excluded.enrollments"),
				"completions":   gorm.Expr("analytics_daily_stats.completions + excluded.completions"),
			}),
		}).
		Create(&row).Error
	if err != nil {
		return r.logError("analytics_repo_add_daily_failed", err, "day", delta.Day)
	}
	return nil
}

func (r *Repository) AddInstructor(ctx context.Context, delta entities.InstructorStats) error {
	row := instructorModel{
		InstructorID: delta.InstructorID,
		Revenue:      delta.Revenue,
		Enrollments:  delta.Enrollments,
		Completions:  delta.Completions,
	}
	err := db.Conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "instructor_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"revenue":     gorm.Expr("analytics_instructor_stats.revenue + excluded.revenue"),
				"enrollments": gorm.Expr("analytics_instructor_stats.enrollments + excluded.enrollments"),
				"completions": gorm.Expr("analytics_instructor_stats.completions + excluded.completions"),
			}),
		}).
		Create(&row).Error
	if err != nil {
		return r.logError("analytics_repo_add_instructor_failed", err, "instructor_id", delta.InstructorID)
	}
	return nil
}

func (r *Repository) SaveProgress(ctx context.Context, snapshot entities.ProgressSnapshot) (bool, error) {
	row := progressModel{
		EnrollmentID: snapshot.EnrollmentID,
		CourseID:     snapshot.CourseID,
		StudentID:    snapshot.StudentID,
		Progress:     snapshot.Progress,
		Sequence:     snapshot.Sequence,
		AsOf:         snapshot.AsOf.UTC(),
	}
	result := db.Conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "enrollment_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"progress", "sequence", "as_of"}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "analytics_progress.sequence < excluded.sequence"},
			}},
		}).
		Create(&row)
	if result.Error != nil {
		return false, r.logError("analytics_repo_save_progress_failed", result.Error, "enrollment_id", snapshot.EnrollmentID)
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) ListDaily(ctx context.Context, fromDay string, toDay string) ([]entities.DailyStats, error) {
	query := db.Conn(ctx, r.db).Order("day ASC")
	if fromDay != "" {
		query = query.Where("day >= ?", fromDay)
	}
	if toDay != "" {
		query = query.Where("day <= ?", toDay)
	}
	var rows []dailyModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, r.logError("analytics_repo_list_daily_failed", err)
	}
	items := make([]entities.DailyStats, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.DailyStats(row))
	}
	return items, nil
}

func (r *Repository) ListInstructors(ctx context.Context) ([]entities.InstructorStats, error) {
	var rows []instructorModel
	if err := db.Conn(ctx, r.db).Order("instructor_id ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("analytics_repo_list_instructors_failed", err)
	}
	items := make([]entities.InstructorStats, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.InstructorStats(row))
	}
	return items, nil
}

func (r *Repository) GetInstructor(ctx context.Context, instructorID string) (entities.InstructorStats, error) {
	var row instructorModel
	if err := db.Conn(ctx, r.db).Where("instructor_id = ?", instructorID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.InstructorStats{}, domainerrors.ErrInstructorNotFound
		}
		return entities.InstructorStats{}, r.logError("analytics_repo_get_instructor_failed", err, "instructor_id", instructorID)
	}
	return entities.InstructorStats(row), nil
}

func (r *Repository) GetProgress(ctx context.Context, enrollmentID string) (entities.ProgressSnapshot, error) {
	var row progressModel
	if err := db.Conn(ctx, r.db).Where("enrollment_id = ?", enrollmentID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ProgressSnapshot{}, domainerrors.ErrProgressNotFound
		}
		return entities.ProgressSnapshot{}, r.logError("analytics_repo_get_progress_failed", err, "enrollment_id", enrollmentID)
	}
	return entities.ProgressSnapshot{
		EnrollmentID: row.EnrollmentID,
		CourseID:     row.CourseID,
		StudentID:    row.StudentID,
		Progress:     row.Progress,
		Sequence:     row.Sequence,
		AsOf:         row.AsOf.UTC(),
	}, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "insights/analytics-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("analytics repository operation failed", fields...)
	return err
}

type dailyModel struct {
	Day           string          `gorm:"column:day;primaryKey"`
	Revenue       decimal.Decimal `gorm:"column:revenue;type:numeric(14,2)"`
	Payments      int             `gorm:"column:payments"`
	Registrations int             `gorm:"column:registrations"`
	Enrollments   int             `gorm:"column:enrollments"`
	Completions   int             `gorm:"column:completions"`
}

func (dailyModel) TableName() string {
	return "analytics_daily_stats"
}

type instructorModel struct {
	InstructorID string          `gorm:"column:instructor_id;primaryKey"`
	Revenue      decimal.Decimal `gorm:"column:revenue;type:numeric(14,2)"`
	Enrollments  int             `gorm:"column:enrollments"`
	Completions  int             `gorm:"column:completions"`
}

func (instructorModel) TableName() string {
	return "analytics_instructor_stats"
}

type progressModel struct {
	EnrollmentID string    `gorm:"column:enrollment_id;primaryKey"`
	CourseID     string    `gorm:"column:course_id"`
	StudentID    string    `gorm:"column:student_id"`
	Progress     int       `gorm:"column:progress"`
	Sequence     int64     `gorm:"column:sequence"`
	AsOf         time.Time `gorm:"column:as_of"`
}

func (progressModel) TableName() string {
	return "analytics_progress"
}

var _ ports.Repository = (*Repository)(nil)
