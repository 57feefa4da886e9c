package authservice

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	contractsv1 "eduweb/contracts/events/v1"
	"eduweb/contexts/identity-access/auth-service/application/commands"
	domainerrors "eduweb/contexts/identity-access/auth-service/domain/errors"
	"eduweb/internal/platform/config"
	"eduweb/internal/platform/messaging"
	"eduweb/internal/shared/events"
	"eduweb/internal/shared/inbox"
	"eduweb/internal/shared/outbox"
)

type sentRecorder struct {
	mu   sync.Mutex
	sent []messaging.Message
}

func (r *sentRecorder) Publish(_ context.Context, msg messaging.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

func newTestModule(t *testing.T) (Module, *sentRecorder) {
	t.Helper()
	registry, err := events.Choreography(config.DefaultTopology())
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	sender := &sentRecorder{}
	return NewInMemoryModule(outbox.Publisher{Registry: registry, Broker: sender}, nil), sender
}

func profileCompleted(t *testing.T, userID string, at time.Time) events.Envelope {
	t.Helper()
	env, err := events.New(contractsv1.TypeUserProfileCompleted, events.ServiceUser, userID, at, contractsv1.UserProfileCompleted{
		UserID:      userID,
		FullName:    "Ada Lovelace",
		CompletedAt: at,
	})
	if err != nil {
		t.Fatalf("build event: %v", err)
	}
	return env
}

func TestRegisterEmitsUserCreated(t *testing.T) {
	module, sender := newTestModule(t)
	ctx := context.Background()

	account, err := module.Handler.Register.Register(ctx, commands.RegisterCommand{Email: " Ada@Example.com "})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if account.Email != "ada@example.com" {
		t.Fatalf("expected normalized email, got %q", account.Email)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected one published event, got %d", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.Exchange != "auth_user" || msg.RoutingKey != "user-created" {
		t.Fatalf("unexpected route %s/%s", msg.Exchange, msg.RoutingKey)
	}
	env, err := events.Parse(msg.Body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var payload contractsv1.UserCreated
	if err := events.Decode(env, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.UserID != account.AccountID {
		t.Fatalf("expected user id %s, got %s", account.AccountID, payload.UserID)
	}

	_, err = module.Handler.Register.Register(ctx, commands.RegisterCommand{Email: "ada@example.com"})
	if !errors.Is(err, domainerrors.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("failed registration must not publish, got %d events", len(sender.sent))
	}
	if rows := module.Store.Outbox().Messages(ctx); len(rows) != 1 {
		t.Fatalf("expected one outbox row, got %d", len(rows))
	}
}

func TestRegisterRejectsInvalidEmail(t *testing.T) {
	module, _ := newTestModule(t)
	_, err := module.Handler.Register.Register(context.Background(), commands.RegisterCommand{Email: "not-an-email"})
	if !errors.Is(err, domainerrors.ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
}

func TestProfileCompletedMarksOnboardedOnce(t *testing.T) {
	module, _ := newTestModule(t)
	ctx := context.Background()
	account, err := module.Handler.Register.Register(ctx, commands.RegisterCommand{Email: "grace@example.com"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	handle := module.Handlers[contractsv1.TypeUserProfileCompleted]
	first := time.Date(2026, time.June, 1, 10, 0, 0, 0, time.UTC)
	if _, err := handle(ctx, profileCompleted(t, account.AccountID, first)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if _, err := handle(ctx, profileCompleted(t, account.AccountID, first.Add(time.Hour))); err != nil {
		t.Fatalf("handle again: %v", err)
	}

	stored, err := module.Handler.Accounts.GetAccount(ctx, account.AccountID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if !stored.Onboarded || stored.OnboardedAt == nil || !stored.OnboardedAt.Equal(first) {
		t.Fatalf("expected onboarded at %v, got %+v", first, stored)
	}
}

func TestProfileCompletedForUnknownAccountIsPoison(t *testing.T) {
	module, _ := newTestModule(t)
	handle := module.Handlers[contractsv1.TypeUserProfileCompleted]

	_, err := handle(context.Background(), profileCompleted(t, "ghost", time.Now()))
	if !inbox.IsPoison(err) {
		t.Fatalf("expected poison error, got %v", err)
	}
}
