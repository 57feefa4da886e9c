package httptransport

import "time"

type CompleteProfileRequest struct {
	FullName string `json:"full_name"`
}

type ProfileResponse struct {
	UserID      string     `json:"user_id"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name,omitempty"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
