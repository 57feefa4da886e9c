package httptransport

import "time"

type EnrollmentResponse struct {
	EnrollmentID     string     `json:"enrollment_id"`
	StudentID        string     `json:"student_id"`
	CourseID         string     `json:"course_id"`
	InstructorID     string     `json:"instructor_id"`
	CourseSlug       string     `json:"course_slug,omitempty"`
	Status           string     `json:"status"`
	TotalLessons     int        `json:"total_lessons"`
	CompletedLessons []string   `json:"completed_lessons"`
	Progress         int        `json:"progress"`
	EnrolledAt       time.Time  `json:"enrolled_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

type EnrollmentListResponse struct {
	Items []EnrollmentResponse `json:"items"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
