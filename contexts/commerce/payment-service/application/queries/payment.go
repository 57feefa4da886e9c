package queries

import (
	"context"
	"strings"

	"eduweb/contexts/commerce/payment-service/domain/entities"
	domainerrors "eduweb/contexts/commerce/payment-service/domain/errors"
	"eduweb/contexts/commerce/payment-service/ports"
)

type PaymentQueries struct {
	Payments ports.Repository
}

func (q PaymentQueries) GetPayment(ctx context.Context, paymentID string) (entities.Payment, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return entities.Payment{}, domainerrors.ErrInvalidPaymentInput
	}
	return q.Payments.GetPayment(ctx, paymentID)
}
