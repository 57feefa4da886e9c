package httptransport

import "time"

type RegisterRequest struct {
	Email string `json:"email"`
}

type AccountResponse struct {
	AccountID   string     `json:"account_id"`
	Email       string     `json:"email"`
	Onboarded   bool       `json:"onboarded"`
	OnboardedAt *time.Time `json:"onboarded_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
