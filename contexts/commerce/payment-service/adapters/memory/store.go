package memory

import (
	"context"
	"time"

	"eduweb/contexts/commerce/payment-service/domain/entities"
	domainerrors "eduweb/contexts/commerce/payment-service/domain/errors"
	"eduweb/internal/platform/db"
	"eduweb/internal/shared/outbox"

	"github.com/google/uuid"
)

type state struct {
	payments map[string]entities.Payment
	outbox   outbox.MemoryTable
}

func (s state) Clone() state {
	out := state{
		payments: make(map[string]entities.Payment, len(s.payments)),
		outbox:   s.outbox.Clone(),
	}
	for id, payment := range s.payments {
		if payment.CompletedAt != nil {
			at := *payment.CompletedAt
			payment.CompletedAt = &at
		}
		out.payments[id] = payment
	}
	return out
}

type Store struct {
	mem *db.Memory[state]
}

func NewStore() *Store {
	return &Store{mem: db.NewMemory(state{payments: make(map[string]entities.Payment)})}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.mem.WithinTx(ctx, fn)
}

func (s *Store) Outbox() outbox.MemoryStore[state] {
	return outbox.NewMemoryStore(s.mem, func(st *state) *outbox.MemoryTable { return &st.outbox })
}

func (s *Store) CreatePayment(ctx context.Context, payment entities.Payment) error {
	return s.mem.Write(ctx, func(st *state) error {
		st.payments[payment.PaymentID] = payment
		return nil
	})
}

func (s *Store) GetPayment(ctx context.Context, paymentID string) (entities.Payment, error) {
	var payment entities.Payment
	found := false
	s.mem.Read(ctx, func(st *state) {
		payment, found = st.payments[paymentID]
	})
	if !found {
		return entities.Payment{}, domainerrors.ErrPaymentNotFound
	}
	return payment, nil
}

func (s *Store) SavePayment(ctx context.Context, payment entities.Payment) error {
	return s.mem.Write(ctx, func(st *state) error {
		if _, ok := st.payments[payment.PaymentID]; !ok {
			return domainerrors.ErrPaymentNotFound
		}
		st.payments[payment.PaymentID] = payment
		return nil
	})
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
