package memory

import (
	"context"
	"time"

	"eduweb/contexts/identity-access/user-service/domain/entities"
	domainerrors "eduweb/contexts/identity-access/user-service/domain/errors"
	"eduweb/internal/platform/db"
	"eduweb/internal/shared/inbox"
	"eduweb/internal/shared/outbox"
)

type state struct {
	profiles map[string]entities.Profile
	outbox   outbox.MemoryTable
	inbox    inbox.MemoryTable
}

func (s state) Clone() state {
	out := state{
		profiles: make(map[string]entities.Profile, len(s.profiles)),
		outbox:   s.outbox.Clone(),
		inbox:    s.inbox.Clone(),
	}
	for id, profile := range s.profiles {
		if profile.CompletedAt != nil {
			at := *profile.CompletedAt
			profile.CompletedAt = &at
		}
		out.profiles[id] = profile
	}
	return out
}

type Store struct {
	mem *db.Memory[state]
}

func NewStore() *Store {
	return &Store{mem: db.NewMemory(state{profiles: make(map[string]entities.Profile)})}
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

func (s *Store) CreateProfile(ctx context.Context, profile entities.Profile) (bool, error) {
	created := false
	err := s.mem.Write(ctx, func(st *state) error {
		if _, exists := st.profiles[profile.UserID]; exists {
			return nil
		}
		st.profiles[profile.UserID] = profile
		created = true
		return nil
	})
	return created, err
}

func (s *Store) GetProfile(ctx context.Context, userID string) (entities.Profile, error) {
	var profile entities.Profile
	found := false
	s.mem.Read(ctx, func(st *state) {
		profile, found = st.profiles[userID]
	})
	if !found {
		return entities.Profile{}, domainerrors.ErrProfileNotFound
	}
	return profile, nil
}

func (s *Store) SaveProfile(ctx context.Context, profile entities.Profile) error {
	return s.mem.Write(ctx, func(st *state) error {
		if _, ok := st.profiles[profile.UserID]; !ok {
			return domainerrors.ErrProfileNotFound
		}
		st.profiles[profile.UserID] = profile
		return nil
	})
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}
