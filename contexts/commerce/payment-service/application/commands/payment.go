package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	contractsv1 "eduweb/contracts/events/v1"
	application "eduweb/contexts/commerce/payment-service/application"
	"eduweb/contexts/commerce/payment-service/domain/entities"
	domainerrors "eduweb/contexts/commerce/payment-service/domain/errors"
	"eduweb/contexts/commerce/payment-service/ports"
	"eduweb/internal/shared/events"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

type CreatePaymentCommand struct {
	UserID       string `validate:"required"`
	CourseID     string `validate:"required"`
	InstructorID string `validate:"required"`
	CourseSlug   string
	Amount       decimal.Decimal
	Currency     string `validate:"required,len=3,alpha"`
}

type CompletePaymentCommand struct {
	PaymentID string
	TxnRef    string
}

type PaymentUseCase struct {
	Payments  ports.Repository
	Tx        ports.Transactor
	Publisher ports.EventPublisher
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func (uc PaymentUseCase) CreatePayment(ctx context.Context, cmd CreatePaymentCommand) (entities.Payment, error) {
	cmd.UserID = strings.TrimSpace(cmd.UserID)
	cmd.CourseID = strings.TrimSpace(cmd.CourseID)
	cmd.InstructorID = strings.TrimSpace(cmd.InstructorID)
	cmd.Currency = strings.ToUpper(strings.TrimSpace(cmd.Currency))
	if err := validate.Struct(cmd); err != nil || !cmd.Amount.IsPositive() {
		return entities.Payment{}, domainerrors.ErrInvalidPaymentInput
	}

	paymentID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Payment{}, err
	}
	now := uc.Clock.Now().UTC()
	payment := entities.Payment{
		PaymentID:    paymentID,
		UserID:       cmd.UserID,
		CourseID:     cmd.CourseID,
		InstructorID: cmd.InstructorID,
		CourseSlug:   strings.TrimSpace(cmd.CourseSlug),
		Amount:       cmd.Amount.Round(2),
		Currency:     cmd.Currency,
		Status:       entities.PaymentStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.Payments.CreatePayment(ctx, payment); err != nil {
		return entities.Payment{}, err
	}

	application.ResolveLogger(uc.Logger).Info("payment created",
		"event", "payment_created",
		"module", "commerce/payment-service",
		"layer", "application",
		"payment_id", payment.PaymentID,
		"user_id", payment.UserID,
		"course_id", payment.CourseID,
	)
	return payment, nil
}

// CompletePayment settles a pending payment and stages payment.completed.
// Completing an already completed payment returns it unchanged and emits
// nothing, so gateway callbacks may be repeated safely.
func (uc PaymentUseCase) CompletePayment(ctx context.Context, cmd CompletePaymentCommand) (entities.Payment, error) {
	paymentID := strings.TrimSpace(cmd.PaymentID)
	txnRef := strings.TrimSpace(cmd.TxnRef)
	if paymentID == "" {
		return entities.Payment{}, domainerrors.ErrInvalidPaymentInput
	}

	var payment entities.Payment
	var env events.Envelope
	emitted := false
	err := uc.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		payment, err = uc.Payments.GetPayment(ctx, paymentID)
		if err != nil {
			return err
		}
		now := uc.Clock.Now().UTC()
		if !payment.Complete(txnRef, now) {
			return nil
		}
		if err := uc.Payments.SavePayment(ctx, payment); err != nil {
			return err
		}

		env, err = events.New(contractsv1.TypePaymentCompleted, events.ServicePayment, payment.UserID, now,
			contractsv1.PaymentCompleted{
				PaymentID:    payment.PaymentID,
				UserID:       payment.UserID,
				CourseID:     payment.CourseID,
				InstructorID: payment.InstructorID,
				CourseSlug:   payment.CourseSlug,
				Amount:       payment.Amount,
				Currency:     payment.Currency,
				TxnRef:       payment.TxnRef,
				CompletedAt:  now,
			})
		if err != nil {
			return fmt.Errorf("build payment completed event: %w", err)
		}
		emitted = true
		return uc.Publisher.Stage(ctx, env)
	})
	if err != nil {
		return entities.Payment{}, err
	}

	logger := application.ResolveLogger(uc.Logger)
	if !emitted {
		logger.Info("payment already completed",
			"event", "payment_complete_repeated",
			"module", "commerce/payment-service",
			"layer", "application",
			"payment_id", paymentID,
		)
		return payment, nil
	}
	uc.Publisher.PublishCommitted(ctx, env)

	logger.Info("payment completed",
		"event", "payment_completed",
		"module", "commerce/payment-service",
		"layer", "application",
		"payment_id", payment.PaymentID,
		"amount", payment.Amount.StringFixed(2),
		"currency", payment.Currency,
		"event_id", env.EventID,
	)
	return payment, nil
}
