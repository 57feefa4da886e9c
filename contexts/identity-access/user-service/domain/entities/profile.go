package entities

import "time"

type Profile struct {
	UserID      string
	Email       string
	FullName    string
	CreatedAt   time.Time
	CompletedAt *time.Time
	UpdatedAt   time.Time
}

func (p Profile) Completed() bool {
	return p.CompletedAt != nil
}
