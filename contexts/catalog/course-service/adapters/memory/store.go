package memory

import (
	"context"
	"sort"
	"time"

	"eduweb/contexts/catalog/course-service/domain/entities"
	domainerrors "eduweb/contexts/catalog/course-service/domain/errors"
	"eduweb/internal/platform/db"
	"eduweb/internal/shared/outbox"

	"github.com/google/uuid"
)

type state struct {
	courses map[string]entities.Course
	slugs   map[string]string
	lessons map[string]entities.Lesson
	outbox  outbox.MemoryTable
}

func (s state) Clone() state {
	out := state{
		courses: make(map[string]entities.Course, len(s.courses)),
		slugs:   make(map[string]string, len(s.slugs)),
		lessons: make(map[string]entities.Lesson, len(s.lessons)),
		outbox:  s.outbox.Clone(),
	}
	for id, course := range s.courses {
		out.courses[id] = course
	}
	for slug, id := range s.slugs {
		out.slugs[slug] = id
	}
	for id, lesson := range s.lessons {
		out.lessons[id] = lesson
	}
	return out
}

type Store struct {
	mem *db.Memory[state]
}

func NewStore() *Store {
	return &Store{mem: db.NewMemory(state{
		courses: make(map[string]entities.Course),
		slugs:   make(map[string]string),
		lessons: make(map[string]entities.Lesson),
	})}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.mem.WithinTx(ctx, fn)
}

func (s *Store) Outbox() outbox.MemoryStore[state] {
	return outbox.NewMemoryStore(s.mem, func(st *state) *outbox.MemoryTable { return &st.outbox })
}

func (s *Store) CreateCourse(ctx context.Context, course entities.Course) error {
	return s.mem.Write(ctx, func(st *state) error {
		if _, taken := st.slugs[course.Slug]; taken {
			return domainerrors.ErrSlugTaken
		}
		st.courses[course.CourseID] = course
		st.slugs[course.Slug] = course.CourseID
		return nil
	})
}

func (s *Store) GetCourse(ctx context.Context, courseID string) (entities.Course, error) {
	var course entities.Course
	found := false
	s.mem.Read(ctx, func(st *state) {
		course, found = st.courses[courseID]
	})
	if !found {
		return entities.Course{}, domainerrors.ErrCourseNotFound
	}
	return course, nil
}

func (s *Store) ListLessons(ctx context.Context, courseID string) ([]entities.Lesson, error) {
	var items []entities.Lesson
	s.mem.Read(ctx, func(st *state) {
		for _, lesson := range st.lessons {
			if lesson.CourseID == courseID {
				items = append(items, lesson)
			}
		}
	})
	sort.Slice(items, func(i, j int) bool { return items[i].Position < items[j].Position })
	return items, nil
}

func (s *Store) AddLesson(ctx context.Context, lesson entities.Lesson, now time.Time) (entities.Course, entities.Lesson, error) {
	var course entities.Course
	err := s.mem.Write(ctx, func(st *state) error {
		existing, ok := st.courses[lesson.CourseID]
		if !ok {
			return domainerrors.ErrCourseNotFound
		}
		position := 0
		for _, item := range st.lessons {
			if item.CourseID == lesson.CourseID && item.Position > position {
				position = item.Position
			}
		}
		lesson.Position = position + 1
		st.lessons[lesson.LessonID] = lesson

		existing.TotalLessons++
		existing.LessonsVersion++
		existing.UpdatedAt = now
		st.courses[existing.CourseID] = existing
		course = existing
		return nil
	})
	if err != nil {
		return entities.Course{}, entities.Lesson{}, err
	}
	return course, lesson, nil
}

func (s *Store) RemoveLesson(ctx context.Context, courseID string, lessonID string, now time.Time) (entities.Course, error) {
	var course entities.Course
	err := s.mem.Write(ctx, func(st *state) error {
		existing, ok := st.courses[courseID]
		if !ok {
			return domainerrors.ErrCourseNotFound
		}
		lesson, ok := st.lessons[lessonID]
		if !ok || lesson.CourseID != courseID {
			return domainerrors.ErrLessonNotFound
		}
		delete(st.lessons, lessonID)

		existing.TotalLessons--
		existing.LessonsVersion++
		existing.UpdatedAt = now
		st.courses[courseID] = existing
		course = existing
		return nil
	})
	if err != nil {
		return entities.Course{}, err
	}
	return course, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
