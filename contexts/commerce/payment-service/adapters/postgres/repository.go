package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"eduweb/contexts/commerce/payment-service/domain/entities"
	domainerrors "eduweb/contexts/commerce/payment-service/domain/errors"
	"eduweb/contexts/commerce/payment-service/ports"
	"eduweb/internal/platform/db"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const OutboxTable = "payment_outbox"

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

func (r *Repository) CreatePayment(ctx context.Context, payment entities.Payment) error {
	row := fromPayment(payment)
	if err := db.Conn(ctx, r.db).Create(&row).Error; err != nil {
		return r.logError("payment_repo_create_failed", err, "payment_id", payment.PaymentID)
	}
	return nil
}

func (r *Repository) GetPayment(ctx context.Context, paymentID string) (entities.Payment, error) {
	var row paymentModel
	query := db.Conn(ctx, r.db)
	if db.InTx(ctx) {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := query.Where("payment_id = ?", paymentID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Payment{}, domainerrors.ErrPaymentNotFound
		}
		return entities.Payment{}, r.logError("payment_repo_get_failed", err, "payment_id", paymentID)
	}
	return row.toEntity(), nil
}

func (r *Repository) SavePayment(ctx context.Context, payment entities.Payment) error {
	result := db.Conn(ctx, r.db).
		Model(&paymentModel{}).
		Where("payment_id = ?", payment.PaymentID).
		Updates(map[string]any{
			"status":       payment.Status,
			"txn_ref":      payment.TxnRef,
			"completed_at": payment.CompletedAt,
			"updated_at":   payment.UpdatedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("payment_repo_save_failed", result.Error, "payment_id", payment.PaymentID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrPaymentNotFound
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "commerce/payment-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("payment repository operation failed", fields...)
	return err
}

type paymentModel struct {
	PaymentID    string          `gorm:"column:payment_id;primaryKey"`
	UserID       string          `gorm:"column:user_id"`
	CourseID     string          `gorm:"column:course_id"`
	InstructorID string          `gorm:"column:instructor_id"`
	CourseSlug   string          `gorm:"column:course_slug"`
	Amount       decimal.Decimal `gorm:"column:amount;type:numeric(14,2)"`
	Currency     string          `gorm:"column:currency"`
	Status       string          `gorm:"column:status"`
	TxnRef       string          `gorm:"column:txn_ref"`
	CreatedAt    time.Time       `gorm:"column:created_at"`
	CompletedAt  *time.Time      `gorm:"column:completed_at"`
	UpdatedAt    time.Time       `gorm:"column:updated_at"`
}

func (paymentModel) TableName() string {
	return "payments"
}

func fromPayment(payment entities.Payment) paymentModel {
	return paymentModel{
		PaymentID:    payment.PaymentID,
		UserID:       payment.UserID,
		CourseID:     payment.CourseID,
		InstructorID: payment.InstructorID,
		CourseSlug:   payment.CourseSlug,
		Amount:       payment.Amount,
		Currency:     payment.Currency,
		Status:       payment.Status,
		TxnRef:       payment.TxnRef,
		CreatedAt:    payment.CreatedAt.UTC(),
		CompletedAt:  payment.CompletedAt,
		UpdatedAt:    payment.UpdatedAt.UTC(),
	}
}

func (m paymentModel) toEntity() entities.Payment {
	return entities.Payment{
		PaymentID:    m.PaymentID,
		UserID:       m.UserID,
		CourseID:     m.CourseID,
		InstructorID: m.InstructorID,
		CourseSlug:   m.CourseSlug,
		Amount:       m.Amount,
		Currency:     m.Currency,
		Status:       m.Status,
		TxnRef:       m.TxnRef,
		CreatedAt:    m.CreatedAt.UTC(),
		CompletedAt:  m.CompletedAt,
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

var _ ports.Repository = (*Repository)(nil)
