package httpadapter

import (
	"context"
	"log/slog"

	"eduweb/contexts/commerce/payment-service/application/commands"
	"eduweb/contexts/commerce/payment-service/application/queries"
	"eduweb/contexts/commerce/payment-service/domain/entities"
	domainerrors "eduweb/contexts/commerce/payment-service/domain/errors"
	httptransport "eduweb/contexts/commerce/payment-service/transport/http"

	"github.com/shopspring/decimal"
)

type Handler struct {
	Payments commands.PaymentUseCase
	Queries  queries.PaymentQueries
	Logger   *slog.Logger
}

// CreatePaymentHandler godoc
// @Summary Create a payment
// @Description Opens a pending payment for a course purchase.
// @Tags payment-service
// @Accept json
// @Produce json
// @Param request body httptransport.CreatePaymentRequest true "Payment"
// @Success 201 {object} httptransport.PaymentResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Router /api/payments [post]
func (h Handler) CreatePaymentHandler(ctx context.Context, req httptransport.CreatePaymentRequest) (httptransport.PaymentResponse, error) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return httptransport.PaymentResponse{}, domainerrors.ErrInvalidPaymentInput
	}
	payment, err := h.Payments.CreatePayment(ctx, commands.CreatePaymentCommand{
		UserID:       req.UserID,
		CourseID:     req.CourseID,
		InstructorID: req.InstructorID,
		CourseSlug:   req.CourseSlug,
		Amount:       amount,
		Currency:     req.Currency,
	})
	if err != nil {
		return httptransport.PaymentResponse{}, err
	}
	return toPaymentResponse(payment), nil
}

// CompletePaymentHandler godoc
// @Summary Complete a payment
// @Description Settles the payment and emits payment.completed once.
// @Tags payment-service
// @Accept json
// @Produce json
// @Param payment_id path string true "Payment id"
// @Param request body httptransport.CompletePaymentRequest true "Gateway reference"
// @Success 200 {object} httptransport.PaymentResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /api/payments/{payment_id}/complete [post]
func (h Handler) CompletePaymentHandler(ctx context.Context, paymentID string, req httptransport.CompletePaymentRequest) (httptransport.PaymentResponse, error) {
	payment, err := h.Payments.CompletePayment(ctx, commands.CompletePaymentCommand{PaymentID: paymentID, TxnRef: req.TxnRef})
	if err != nil {
		return httptransport.PaymentResponse{}, err
	}
	return toPaymentResponse(payment), nil
}

// GetPaymentHandler godoc
// @Summary Get a payment
// @Tags payment-service
// @Produce json
// @Param payment_id path string true "Payment id"
// @Success 200 {object} httptransport.PaymentResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /api/payments/{payment_id} [get]
func (h Handler) GetPaymentHandler(ctx context.Context, paymentID string) (httptransport.PaymentResponse, error) {
	payment, err := h.Queries.GetPayment(ctx, paymentID)
	if err != nil {
		return httptransport.PaymentResponse{}, err
	}
	return toPaymentResponse(payment), nil
}

func toPaymentResponse(payment entities.Payment) httptransport.PaymentResponse {
	return httptransport.PaymentResponse{
		PaymentID:    payment.PaymentID,
		UserID:       payment.UserID,
		CourseID:     payment.CourseID,
		InstructorID: payment.InstructorID,
		CourseSlug:   payment.CourseSlug,
		Amount:       payment.Amount.StringFixed(2),
		Currency:     payment.Currency,
		Status:       payment.Status,
		TxnRef:       payment.TxnRef,
		CreatedAt:    payment.CreatedAt,
		CompletedAt:  payment.CompletedAt,
	}
}
