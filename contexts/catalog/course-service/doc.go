// Package courseservice owns the course catalog inside the catalog context.
//
// It is the single source of truth for lesson counts. Every lesson added or
// removed commits the new total together with a course.total-lessons-changed
// outbox row, which enrollment replicates into its local cache.
package courseservice
