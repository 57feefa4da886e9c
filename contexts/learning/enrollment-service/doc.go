// Package enrollmentservice owns enrollments and lesson progress.
//
// It reacts to payment.completed by enrolling the buyer and to
// course.total-lessons-changed by refreshing its local copy of each
// course's lesson count. Both orders of arrival converge on the same
// enrollment state. Lesson completion is the only command; it emits
// enrollment.progress-updated and, at 100%, enrollment.completed.
package enrollmentservice
