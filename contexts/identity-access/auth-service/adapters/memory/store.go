package memory

import (
	"context"
	"time"

	"eduweb/contexts/identity-access/auth-service/domain/entities"
	domainerrors "eduweb/contexts/identity-access/auth-service/domain/errors"
	"eduweb/internal/platform/db"
	"eduweb/internal/shared/inbox"
	"eduweb/internal/shared/outbox"

	"github.com/google/uuid"
)

type state struct {
	accounts map[string]entities.Account
	emails   map[string]string
	outbox   outbox.MemoryTable
	inbox    inbox.MemoryTable
}

func (s state) Clone() state {
	out := state{
		accounts: make(map[string]entities.Account, len(s.accounts)),
		emails:   make(map[string]string, len(s.emails)),
		outbox:   s.outbox.Clone(),
		inbox:    s.inbox.Clone(),
	}
	for id, account := range s.accounts {
		if account.OnboardedAt != nil {
			at := *account.OnboardedAt
			account.OnboardedAt = &at
		}
		out.accounts[id] = account
	}
	for email, id := range s.emails {
		out.emails[email] = id
	}
	return out
}

type Store struct {
	mem *db.Memory[state]
}

func NewStore() *Store {
	return &Store{mem: db.NewMemory(state{
		accounts: make(map[string]entities.Account),
		emails:   make(map[string]string),
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

func (s *Store) CreateAccount(ctx context.Context, account entities.Account) error {
	return s.mem.Write(ctx, func(st *state) error {
		if _, taken := st.emails[account.Email]; taken {
			return domainerrors.ErrEmailTaken
		}
		st.accounts[account.AccountID] = account
		st.emails[account.Email] = account.AccountID
		return nil
	})
}

func (s *Store) GetAccount(ctx context.Context, accountID string) (entities.Account, error) {
	var account entities.Account
	found := false
	s.mem.Read(ctx, func(st *state) {
		account, found = st.accounts[accountID]
	})
	if !found {
		return entities.Account{}, domainerrors.ErrAccountNotFound
	}
	return account, nil
}

func (s *Store) SaveAccount(ctx context.Context, account entities.Account) error {
	return s.mem.Write(ctx, func(st *state) error {
		if _, ok := st.accounts[account.AccountID]; !ok {
			return domainerrors.ErrAccountNotFound
		}
		st.accounts[account.AccountID] = account
		return nil
	})
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
