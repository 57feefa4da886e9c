package httptransport

import "time"

type CreatePaymentRequest struct {
	UserID       string `json:"user_id"`
	CourseID     string `json:"course_id"`
	InstructorID string `json:"instructor_id"`
	CourseSlug   string `json:"course_slug"`
	// Amount is a decimal string such as "49.90".
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type CompletePaymentRequest struct {
	TxnRef string `json:"txn_ref"`
}

type PaymentResponse struct {
	PaymentID    string     `json:"payment_id"`
	UserID       string     `json:"user_id"`
	CourseID     string     `json:"course_id"`
	InstructorID string     `json:"instructor_id"`
	CourseSlug   string     `json:"course_slug,omitempty"`
	Amount       string     `json:"amount"`
	Currency     string     `json:"currency"`
	Status       string     `json:"status"`
	TxnRef       string     `json:"txn_ref,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
