package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

const DayLayout = "2006-01-02"

// Day buckets t into its UTC calendar day.
func Day(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// DailyStats doubles as an increment when passed to the repository.
type DailyStats struct {
	Day           string
	Revenue       decimal.Decimal
	Payments      int
	Registrations int
	Enrollments   int
	Completions   int
}

func (d *DailyStats) Add(delta DailyStats) {
	d.Revenue = d.Revenue.Add(delta.Revenue)
	d.Payments += delta.Payments
	d.Registrations += delta.Registrations
	d.Enrollments += delta.Enrollments
	d.Completions += delta.Completions
}

type InstructorStats struct {
	InstructorID string
	Revenue      decimal.Decimal
	Enrollments  int
	Completions  int
}

func (s *InstructorStats) Add(delta InstructorStats) {
	s.Revenue = s.Revenue.Add(delta.Revenue)
	s.Enrollments += delta.Enrollments
	s.Completions += delta.Completions
}

// ProgressSnapshot is the latest known progress of one enrollment. Sequence
// is enrollment's per-enrollment progress counter; AsOf is informational.
type ProgressSnapshot struct {
	EnrollmentID string
	CourseID     string
	StudentID    string
	Progress     int
	Sequence     int64
	AsOf         time.Time
}

// Supersedes reports whether s is a later progress fact than current.
func (s ProgressSnapshot) Supersedes(current ProgressSnapshot) bool {
	return s.Sequence > current.Sequence
}

type Summary struct {
	Revenue       decimal.Decimal
	Payments      int
	Registrations int
	Enrollments   int
	Completions   int
	Daily         []DailyStats
	Instructors   []InstructorStats
}
