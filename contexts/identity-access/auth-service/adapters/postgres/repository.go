package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"eduweb/contexts/identity-access/auth-service/domain/entities"
	domainerrors "eduweb/contexts/identity-access/auth-service/domain/errors"
	"eduweb/contexts/identity-access/auth-service/ports"
	"eduweb/internal/platform/db"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	OutboxTable          = "auth_outbox"
	ProcessedEventsTable = "auth_processed_events"
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

func (r *Repository) CreateAccount(ctx context.Context, account entities.Account) error {
	row := fromAccount(account)
	if err := db.Conn(ctx, r.db).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrEmailTaken
		}
		return r.logError("auth_repo_create_account_failed", err, "account_id", account.AccountID)
	}
	return nil
}

func (r *Repository) GetAccount(ctx context.Context, accountID string) (entities.Account, error) {
	var row accountModel
	if err := db.Conn(ctx, r.db).Where("account_id = ?", accountID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Account{}, domainerrors.ErrAccountNotFound
		}
		return entities.Account{}, r.logError("auth_repo_get_account_failed", err, "account_id", accountID)
	}
	return row.toEntity(), nil
}

func (r *Repository) SaveAccount(ctx context.Context, account entities.Account) error {
	result := db.Conn(ctx, r.db).
		Model(&accountModel{}).
		Where("account_id = ?", account.AccountID).
		Updates(map[string]any{
			"onboarded":    account.Onboarded,
			"onboarded_at": account.OnboardedAt,
			"updated_at":   account.UpdatedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("auth_repo_save_account_failed", result.Error, "account_id", account.AccountID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrAccountNotFound
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+7)
	fields = append(fields,
		"event", event,
		"module", "identity-access/auth-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("auth repository operation failed", fields...)
	return err
}

type accountModel struct {
	AccountID   string     `gorm:"column:account_id;primaryKey"`
	Email       string     `gorm:"column:email"`
	Onboarded   bool       `gorm:"column:onboarded"`
	OnboardedAt *time.Time `gorm:"column:onboarded_at"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
}

func (accountModel) TableName() string {
	return "auth_accounts"
}

func fromAccount(account entities.Account) accountModel {
	return accountModel{
		AccountID:   account.AccountID,
		Email:       account.Email,
		Onboarded:   account.Onboarded,
		OnboardedAt: account.OnboardedAt,
		CreatedAt:   account.CreatedAt.UTC(),
		UpdatedAt:   account.UpdatedAt.UTC(),
	}
}

func (m accountModel) toEntity() entities.Account {
	return entities.Account{
		AccountID:   m.AccountID,
		Email:       m.Email,
		Onboarded:   m.Onboarded,
		OnboardedAt: m.OnboardedAt,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.Repository = (*Repository)(nil)
