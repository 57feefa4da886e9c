package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"eduweb/contexts/identity-access/user-service/domain/entities"
	domainerrors "eduweb/contexts/identity-access/user-service/domain/errors"
	"eduweb/contexts/identity-access/user-service/ports"
	"eduweb/internal/platform/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	OutboxTable          = "user_outbox"
	ProcessedEventsTable = "user_processed_events"
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

func (r *Repository) CreateProfile(ctx context.Context, profile entities.Profile) (bool, error) {
	row := fromProfile(profile)
	result := db.Conn(ctx, r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&row)
	if result.Error != nil {
		return false, r.logError("user_repo_create_profile_failed", result.Error, "user_id", profile.UserID)
	}
	return result.RowsAffected == 1, nil
}

// GetProfile locks the row when called inside a transaction so concurrent
// completions serialize.
func (r *Repository) GetProfile(ctx context.Context, userID string) (entities.Profile, error) {
	var row profileModel
	query := db.Conn(ctx, r.db)
	if db.InTx(ctx) {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := query.Where("user_id = ?", userID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Profile{}, domainerrors.ErrProfileNotFound
		}
		return entities.Profile{}, r.logError("user_repo_get_profile_failed", err, "user_id", userID)
	}
	return row.toEntity(), nil
}

func (r *Repository) SaveProfile(ctx context.Context, profile entities.Profile) error {
	result := db.Conn(ctx, r.db).
		Model(&profileModel{}).
		Where("user_id = ?", profile.UserID).
		Updates(map[string]any{
			"full_name":    profile.FullName,
			"status":       profileStatus(profile),
			"completed_at": profile.CompletedAt,
			"updated_at":   profile.UpdatedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("user_repo_save_profile_failed", result.Error, "user_id", profile.UserID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrProfileNotFound
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "identity-access/user-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("user repository operation failed", fields...)
	return err
}

type profileModel struct {
	UserID      string     `gorm:"column:user_id;primaryKey"`
	Email       string     `gorm:"column:email"`
	FullName    string     `gorm:"column:full_name"`
	Status      string     `gorm:"column:status"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	CompletedAt *time.Time `gorm:"column:completed_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
}

func (profileModel) TableName() string {
	return "user_profiles"
}

func fromProfile(profile entities.Profile) profileModel {
	return profileModel{
		UserID:      profile.UserID,
		Email:       profile.Email,
		FullName:    profile.FullName,
		Status:      profileStatus(profile),
		CreatedAt:   profile.CreatedAt.UTC(),
		CompletedAt: profile.CompletedAt,
		UpdatedAt:   profile.UpdatedAt.UTC(),
	}
}

func profileStatus(profile entities.Profile) string {
	if profile.Completed() {
		return "completed"
	}
	return "pending"
}

func (m profileModel) toEntity() entities.Profile {
	return entities.Profile{
		UserID:      m.UserID,
		Email:       m.Email,
		FullName:    m.FullName,
		CreatedAt:   m.CreatedAt.UTC(),
		CompletedAt: m.CompletedAt,
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

var _ ports.Repository = (*Repository)(nil)
