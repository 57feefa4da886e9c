package memory

import (
	"context"
	"sort"
	"time"

	"eduweb/contexts/learning/enrollment-service/domain/entities"
	domainerrors "eduweb/contexts/learning/enrollment-service/domain/errors"
	"eduweb/internal/platform/db"
	"eduweb/internal/shared/inbox"
	"eduweb/internal/shared/outbox"

	"github.com/google/uuid"
)

type state struct {
	enrollments map[string]entities.Enrollment
	// byStudentCourse enforces one enrollment per (student, course).
	byStudentCourse map[string]string
	lessonCounts    map[string]entities.LessonCount
	outbox          outbox.MemoryTable
	inbox           inbox.MemoryTable
}

func (s state) Clone() state {
	out := state{
		enrollments:     make(map[string]entities.Enrollment, len(s.enrollments)),
		byStudentCourse: make(map[string]string, len(s.byStudentCourse)),
		lessonCounts:    make(map[string]entities.LessonCount, len(s.lessonCounts)),
		outbox:          s.outbox.Clone(),
		inbox:           s.inbox.Clone(),
	}
	for id, enrollment := range s.enrollments {
		out.enrollments[id] = enrollment.Clone()
	}
	for key, id := range s.byStudentCourse {
		out.byStudentCourse[key] = id
	}
	for id, count := range s.lessonCounts {
		out.lessonCounts[id] = count
	}
	return out
}

type Store struct {
	mem *db.Memory[state]
}

func NewStore() *Store {
	return &Store{mem: db.NewMemory(state{
		enrollments:     make(map[string]entities.Enrollment),
		byStudentCourse: make(map[string]string),
		lessonCounts:    make(map[string]entities.LessonCount),
	})}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.mem.WithinTx(ctx, fn)
}

func (s *Store) Outbox() outbox.MemoryStore[state] {
	return outbox.NewMemoryStore(s.mem, func(st *state) *outbox.MemoryTable { return &st.outbox })
}

func (s *Store) Inbox() inbox.MemoryStore[state] {
	return inbox.NewMemoryStore(s.mem, func(st *state) *inbox.MemoryTable { return &st.inbox })
}

func studentCourseKey(studentID string, courseID string) string {
	return studentID + "|" + courseID
}

func (s *Store) CreateEnrollment(ctx context.Context, enrollment entities.Enrollment) error {
	return s.mem.Write(ctx, func(st *state) error {
		key := studentCourseKey(enrollment.StudentID, enrollment.CourseID)
		if _, exists := st.byStudentCourse[key]; exists {
			return domainerrors.ErrEnrollmentExists
		}
		st.enrollments[enrollment.EnrollmentID] = enrollment.Clone()
		st.byStudentCourse[key] = enrollment.EnrollmentID
		return nil
	})
}

func (s *Store) GetEnrollment(ctx context.Context, enrollmentID string) (entities.Enrollment, error) {
	var enrollment entities.Enrollment
	found := false
	s.mem.Read(ctx, func(st *state) {
		enrollment, found = st.enrollments[enrollmentID]
	})
	if !found {
		return entities.Enrollment{}, domainerrors.ErrEnrollmentNotFound
	}
	return enrollment.Clone(), nil
}

func (s *Store) FindEnrollment(ctx context.Context, studentID string, courseID string) (entities.Enrollment, bool, error) {
	var enrollment entities.Enrollment
	found := false
	s.mem.Read(ctx, func(st *state) {
		id, ok := st.byStudentCourse[studentCourseKey(studentID, courseID)]
		if ok {
			enrollment, found = st.enrollments[id]
		}
	})
	return enrollment.Clone(), found, nil
}

func (s *Store) ListCourseEnrollments(ctx context.Context, courseID string) ([]entities.Enrollment, error) {
	return s.list(ctx, func(e entities.Enrollment) bool { return e.CourseID == courseID }), nil
}

func (s *Store) ListStudentEnrollments(ctx context.Context, studentID string) ([]entities.Enrollment, error) {
	return s.list(ctx, func(e entities.Enrollment) bool { return e.StudentID == studentID }), nil
}

func (s *Store) list(ctx context.Context, match func(entities.Enrollment) bool) []entities.Enrollment {
	var items []entities.Enrollment
	s.mem.Read(ctx, func(st *state) {
		for _, enrollment := range st.enrollments {
			if match(enrollment) {
				items = append(items, enrollment.Clone())
			}
		}
	})
	sort.Slice(items, func(i, j int) bool {
		if items[i].EnrolledAt.Equal(items[j].EnrolledAt) {
			return items[i].EnrollmentID < items[j].EnrollmentID
		}
		return items[i].EnrolledAt.Before(items[j].EnrolledAt)
	})
	return items
}

func (s *Store) SaveEnrollment(ctx context.Context, enrollment entities.Enrollment) error {
	return s.mem.Write(ctx, func(st *state) error {
		if _, ok := st.enrollments[enrollment.EnrollmentID]; !ok {
			return domainerrors.ErrEnrollmentNotFound
		}
		st.enrollments[enrollment.EnrollmentID] = enrollment.Clone()
		return nil
	})
}

// LockLessonCount needs no row lock here: db.Memory runs one transaction at
// a time.
func (s *Store) LockLessonCount(ctx context.Context, courseID string) (entities.LessonCount, bool, error) {
	var count entities.LessonCount
	found := false
	s.mem.Read(ctx, func(st *state) {
		count, found = st.lessonCounts[courseID]
	})
	return count, found, nil
}

func (s *Store) SaveLessonCount(ctx context.Context, count entities.LessonCount) (bool, error) {
	stored := false
	err := s.mem.Write(ctx, func(st *state) error {
		if current, ok := st.lessonCounts[count.CourseID]; ok && !count.Supersedes(current) {
			return nil
		}
		st.lessonCounts[count.CourseID] = count
		stored = true
		return nil
	})
	return stored, err
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
