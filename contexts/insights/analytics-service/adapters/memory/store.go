package memory

import (
	"context"
	"sort"

	"eduweb/contexts/insights/analytics-service/domain/entities"
	domainerrors "eduweb/contexts/insights/analytics-service/domain/errors"
	"eduweb/internal/platform/db"
	"eduweb/internal/shared/inbox"
)

type state struct {
	daily       map[string]entities.DailyStats
	instructors map[string]entities.InstructorStats
	progress    map[string]entities.ProgressSnapshot
	inbox       inbox.MemoryTable
}

func (s state) Clone() state {
	out := state{
		daily:       make(map[string]entities.DailyStats, len(s.daily)),
		instructors: make(map[string]entities.InstructorStats, len(s.instructors)),
		progress:    make(map[string]entities.ProgressSnapshot, len(s.progress)),
		inbox:       s.inbox.Clone(),
	}
	for day, stats := range s.daily {
		out.daily[day] = stats
	}
	for id, stats := range s.instructors {
		out.instructors[id] = stats
	}
	for id, snapshot := range s.progress {
		out.progress[id] = snapshot
	}
	return out
}

type Store struct {
	mem *db.Memory[state]
}

func NewStore() *Store {
	return &Store{mem: db.NewMemory(state{
		daily:       make(map[string]entities.DailyStats),
		instructors: make(map[string]entities.InstructorStats),
		progress:    make(map[string]entities.ProgressSnapshot),
	})}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.mem.WithinTx(ctx, fn)
}

func (s *Store) Inbox() inbox.MemoryStore[state] {
	return inbox.NewMemoryStore(s.mem, func(st *state) *inbox.MemoryTable { return &st.inbox })
}

func (s *Store) AddDaily(ctx context.Context, delta entities.DailyStats) error {
	return s.mem.Write(ctx, func(st *state) error {
		current := st.daily[delta.Day]
		current.Day = delta.Day
		current.Add(delta)
		st.daily[delta.Day] = current
		return nil
	})
}

func (s *Store) AddInstructor(ctx context.Context, delta entities.InstructorStats) error {
	return s.mem.Write(ctx, func(st *state) error {
		current := st.instructors[delta.InstructorID]
		current.InstructorID = delta.InstructorID
		current.Add(delta)
		st.instructors[delta.InstructorID] = current
		return nil
	})
}

func (s *Store) SaveProgress(ctx context.Context, snapshot entities.ProgressSnapshot) (bool, error) {
	stored := false
	err := s.mem.Write(ctx, func(st *state) error {
		if current, ok := st.progress[snapshot.EnrollmentID]; ok && !snapshot.Supersedes(current) {
			return nil
		}
		st.progress[snapshot.EnrollmentID] = snapshot
		stored = true
		return nil
	})
	return stored, err
}

func (s *Store) ListDaily(ctx context.Context, fromDay string, toDay string) ([]entities.DailyStats, error) {
	var items []entities.DailyStats
	s.mem.Read(ctx, func(st *state) {
		for day, stats := range st.daily {
			if fromDay != "" && day < fromDay {
				continue
			}
			if toDay != "" && day > toDay {
				continue
			}
			items = append(items, stats)
		}
	})
	sort.Slice(items, func(i, j int) bool { return items[i].Day < items[j].Day })
	return items, nil
}

func (s *Store) ListInstructors(ctx context.Context) ([]entities.InstructorStats, error) {
	var items []entities.InstructorStats
	s.mem.Read(ctx, func(st *state) {
		for _, stats := range st.instructors {
			items = append(items, stats)
		}
	})
	sort.Slice(items, func(i, j int) bool { return items[i].InstructorID < items[j].InstructorID })
	return items, nil
}

func (s *Store) GetInstructor(ctx context.Context, instructorID string) (entities.InstructorStats, error) {
	var stats entities.InstructorStats
	found := false
	s.mem.Read(ctx, func(st *state) {
		stats, found = st.instructors[instructorID]
	})
	if !found {
		return entities.InstructorStats{}, domainerrors.ErrInstructorNotFound
	}
	return stats, nil
}

func (s *Store) GetProgress(ctx context.Context, enrollmentID string) (entities.ProgressSnapshot, error) {
	var snapshot entities.ProgressSnapshot
	found := false
	s.mem.Read(ctx, func(st *state) {
		snapshot, found = st.progress[enrollmentID]
	})
	if !found {
		return entities.ProgressSnapshot{}, domainerrors.ErrProgressNotFound
	}
	return snapshot, nil
}
