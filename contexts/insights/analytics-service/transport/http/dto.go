package httptransport

import "time"

// Money amounts are decimal strings with two fraction digits.

type DailyStatsResponse struct {
	Day           string `json:"day"`
	Revenue       string `json:"revenue"`
	Payments      int    `json:"payments"`
	Registrations int    `json:"registrations"`
	Enrollments   int    `json:"enrollments"`
	Completions   int    `json:"completions"`
}

type InstructorStatsResponse struct {
	InstructorID string `json:"instructor_id"`
	Revenue      string `json:"revenue"`
	Enrollments  int    `json:"enrollments"`
	Completions  int    `json:"completions"`
}

type SummaryResponse struct {
	Revenue       string                    `json:"revenue"`
	Payments      int                       `json:"payments"`
	Registrations int                       `json:"registrations"`
	Enrollments   int                       `json:"enrollments"`
	Completions   int                       `json:"completions"`
	Daily         []DailyStatsResponse      `json:"daily"`
	Instructors   []InstructorStatsResponse `json:"instructors"`
}

type ProgressResponse struct {
	EnrollmentID string    `json:"enrollment_id"`
	CourseID     string    `json:"course_id"`
	StudentID    string    `json:"student_id"`
	Progress     int       `json:"progress"`
	Sequence     int64     `json:"sequence"`
	AsOf         time.Time `json:"as_of"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
