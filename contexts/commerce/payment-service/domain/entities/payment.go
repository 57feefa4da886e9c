package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
)

type Payment struct {
	PaymentID    string
	UserID       string
	CourseID     string
	InstructorID string
	CourseSlug   string
	Amount       decimal.Decimal
	Currency     string
	Status       string
	TxnRef       string
	CreatedAt    time.Time
	CompletedAt  *time.Time
	UpdatedAt    time.Time
}

// Complete moves a pending payment to completed. It reports false when the
// payment was already completed, leaving the first txn ref in place.
func (p *Payment) Complete(txnRef string, at time.Time) bool {
	if p.Status == PaymentStatusCompleted {
		return false
	}
	p.Status = PaymentStatusCompleted
	p.TxnRef = txnRef
	p.CompletedAt = &at
	p.UpdatedAt = at
	return true
}
