package entities

import "time"

type Account struct {
	AccountID   string
	Email       string
	Onboarded   bool
	OnboardedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MarkOnboarded is idempotent; the first completion time wins.
func (a *Account) MarkOnboarded(at time.Time) bool {
	if a.Onboarded {
		return false
	}
	at = at.UTC()
	a.Onboarded = true
	a.OnboardedAt = &at
	a.UpdatedAt = at
	return true
}
