package inbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	contractsv1 "eduweb/contracts/events/v1"
	"eduweb/internal/platform/backoff"
	"eduweb/internal/platform/config"
	"eduweb/internal/platform/db"
	"eduweb/internal/platform/messaging"
	"eduweb/internal/shared/events"
	"eduweb/internal/shared/outbox"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type consumerState struct {
	Applied map[string]int
	Inbox   MemoryTable
	Outbox  outbox.MemoryTable
}

func (s consumerState) Clone() consumerState {
	applied := make(map[string]int, len(s.Applied))
	for key, value := range s.Applied {
		applied[key] = value
	}
	return consumerState{Applied: applied, Inbox: s.Inbox.Clone(), Outbox: s.Outbox.Clone()}
}

type recordingSettler struct {
	mu      sync.Mutex
	acks    int
	retries []time.Duration
	dead    []string
	ackErr  error
}

func (s *recordingSettler) Ack(*messaging.Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acks++
	return s.ackErr
}

func (s *recordingSettler) Retry(_ context.Context, _ *messaging.Delivery, delay time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retries = append(s.retries, delay)
	return nil
}

func (s *recordingSettler) DeadLetter(_ *messaging.Delivery, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dead = append(s.dead, reason)
	return nil
}

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

type consumerFixture struct {
	mem      *db.Memory[consumerState]
	inbox    MemoryStore[consumerState]
	outbox   outbox.MemoryStore[consumerState]
	sender   *sentRecorder
	consumer *Consumer
}

func newConsumerFixture(t *testing.T, handler Handler) consumerFixture {
	t.Helper()
	registry, err := events.Choreography(config.DefaultTopology())
	require.NoError(t, err)

	mem := db.NewMemory(consumerState{Applied: map[string]int{}})
	inboxStore := NewMemoryStore(mem, func(s *consumerState) *MemoryTable { return &s.Inbox })
	outboxStore := outbox.NewMemoryStore(mem, func(s *consumerState) *outbox.MemoryTable { return &s.Outbox })
	sender := &sentRecorder{}

	consumer := &Consumer{
		Service:  events.ServiceEnrollment,
		Registry: registry,
		Tx:       mem,
		Inbox:    inboxStore,
		Publisher: &outbox.Publisher{
			Service:  events.ServiceEnrollment,
			Registry: registry,
			Broker:   sender,
			Outbox:   outboxStore,
		},
		MaxAttempts: 3,
		Retry:       backoff.Policy{Base: 100 * time.Millisecond, Max: time.Second},
	}
	consumer.On(contractsv1.TypeCourseTotalLessonsChanged, handler)

	return consumerFixture{mem: mem, inbox: inboxStore, outbox: outboxStore, sender: sender, consumer: consumer}
}

func lessonsEvent(t *testing.T, total int) (events.Envelope, []byte) {
	t.Helper()
	env, err := events.New(contractsv1.TypeCourseTotalLessonsChanged, events.ServiceCourse, "course-1", time.Now(),
		contractsv1.CourseTotalLessonsChanged{CourseID: "course-1", TotalLessons: total, Version: 1})
	require.NoError(t, err)
	body, err := events.Encode(env)
	require.NoError(t, err)
	return env, body
}

func delivery(body []byte, attempt int, settler messaging.Settler) *messaging.Delivery {
	return messaging.NewDelivery(messaging.Message{
		Type: contractsv1.TypeCourseTotalLessonsChanged,
		Body: body,
	}, "enrollment-service.set-total-lessons", 1, attempt, settler)
}

func (f consumerFixture) applyHandler(mem *db.Memory[consumerState]) Handler {
	return func(ctx context.Context, env events.Envelope) ([]events.Envelope, error) {
		return nil, mem.Write(ctx, func(s *consumerState) error {
			s.Applied[env.EventID]++
			return nil
		})
	}
}

func (f consumerFixture) applied(eventID string) int {
	count := 0
	f.mem.Read(context.Background(), func(s *consumerState) { count = s.Applied[eventID] })
	return count
}

func TestHandleAppliesOnceAndAcksDuplicates(t *testing.T) {
	var f consumerFixture
	f = newConsumerFixture(t, func(ctx context.Context, env events.Envelope) ([]events.Envelope, error) {
		return f.applyHandler(f.mem)(ctx, env)
	})
	env, body := lessonsEvent(t, 5)
	ctx := context.Background()

	first := &recordingSettler{}
	assert.Equal(t, OutcomeApplied, f.consumer.Handle(ctx, delivery(body, 1, first)))
	assert.Equal(t, 1, first.acks)

	second := &recordingSettler{}
	assert.Equal(t, OutcomeDuplicate, f.consumer.Handle(ctx, delivery(body, 1, second)))
	assert.Equal(t, 1, second.acks)

	assert.Equal(t, 1, f.applied(env.EventID))
	assert.True(t, f.inbox.Processed(ctx, events.ServiceEnrollment, env.EventID))
}

func TestHandleDeadLettersPoison(t *testing.T) {
	cases := map[string]struct {
		body    func(t *testing.T) []byte
		handler Handler
	}{
		"malformed json": {
			body: func(*testing.T) []byte { return []byte("{oops") },
		},
		"unsupported version": {
			body: func(t *testing.T) []byte {
				env, _ := lessonsEvent(t, 1)
				env.Version = 9
				body, err := events.Encode(env)
				require.NoError(t, err)
				return body
			},
		},
		"handler marks poison": {
			body: func(t *testing.T) []byte {
				_, body := lessonsEvent(t, 1)
				return body
			},
			handler: func(context.Context, events.Envelope) ([]events.Envelope, error) {
				return nil, Poison(errors.New("account missing"))
			},
		},
		"invalid payload": {
			body: func(t *testing.T) []byte {
				_, body := lessonsEvent(t, 1)
				return body
			},
			handler: func(ctx context.Context, env events.Envelope) ([]events.Envelope, error) {
				return nil, fmt.Errorf("decode: %w", events.ErrInvalidPayload)
			},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			handler := tc.handler
			if handler == nil {
				handler = func(context.Context, events.Envelope) ([]events.Envelope, error) { return nil, nil }
			}
			f := newConsumerFixture(t, handler)
			settler := &recordingSettler{}

			outcome := f.consumer.Handle(context.Background(), delivery(tc.body(t), 1, settler))
			assert.Equal(t, OutcomeDeadLettered, outcome)
			assert.Len(t, settler.dead, 1)
			assert.Empty(t, settler.retries)
			assert.Zero(t, settler.acks)
		})
	}
}

func TestHandleRetriesTransientErrorsThenDeadLetters(t *testing.T) {
	f := newConsumerFixture(t, func(context.Context, events.Envelope) ([]events.Envelope, error) {
		return nil, fmt.Errorf("lesson count: %w", ErrNotReady)
	})
	env, body := lessonsEvent(t, 2)
	ctx := context.Background()

	for attempt := 1; attempt <= 2; attempt++ {
		settler := &recordingSettler{}
		assert.Equal(t, OutcomeRetried, f.consumer.Handle(ctx, delivery(body, attempt, settler)))
		require.Len(t, settler.retries, 1)
		assert.Equal(t, f.consumer.Retry.Delay(attempt), settler.retries[0])
	}

	settler := &recordingSettler{}
	assert.Equal(t, OutcomeDeadLettered, f.consumer.Handle(ctx, delivery(body, 3, settler)))
	require.Len(t, settler.dead, 1)
	assert.Contains(t, settler.dead[0], "attempts exhausted")

	assert.False(t, f.inbox.Processed(ctx, events.ServiceEnrollment, env.EventID), "failed attempts leave no marker")
}

func TestHandlerFailureRollsBackStateAndMarker(t *testing.T) {
	var f consumerFixture
	f = newConsumerFixture(t, func(ctx context.Context, env events.Envelope) ([]events.Envelope, error) {
		if _, err := f.applyHandler(f.mem)(ctx, env); err != nil {
			return nil, err
		}
		return nil, errors.New("downstream write failed")
	})
	env, body := lessonsEvent(t, 2)

	settler := &recordingSettler{}
	assert.Equal(t, OutcomeRetried, f.consumer.Handle(context.Background(), delivery(body, 1, settler)))
	assert.Zero(t, f.applied(env.EventID))
	assert.False(t, f.inbox.Processed(context.Background(), events.ServiceEnrollment, env.EventID))
}

func TestAckFailureRedeliveryIsNoOp(t *testing.T) {
	var f consumerFixture
	f = newConsumerFixture(t, func(ctx context.Context, env events.Envelope) ([]events.Envelope, error) {
		return f.applyHandler(f.mem)(ctx, env)
	})
	env, body := lessonsEvent(t, 2)
	ctx := context.Background()

	lost := &recordingSettler{ackErr: errors.New("channel closed")}
	assert.Equal(t, OutcomeUnsettled, f.consumer.Handle(ctx, delivery(body, 1, lost)))

	redelivered := &recordingSettler{}
	assert.Equal(t, OutcomeDuplicate, f.consumer.Handle(ctx, delivery(body, 1, redelivered)))
	assert.Equal(t, 1, f.applied(env.EventID))
}

func TestEmittedEventsPublishAfterCommit(t *testing.T) {
	f := newConsumerFixture(t, func(ctx context.Context, env events.Envelope) ([]events.Envelope, error) {
		out, err := events.New(contractsv1.TypeEnrollmentProgressUpdated, events.ServiceEnrollment, "enr-1", time.Now(),
			contractsv1.EnrollmentProgressUpdated{
				EnrollmentID:     "enr-1",
				CourseID:         "course-1",
				StudentID:        "u-1",
				InstructorID:     "i-1",
				CompletedLessons: 1,
				TotalLessons:     2,
				Progress:         50,
				Sequence:         1,
			})
		if err != nil {
			return nil, err
		}
		return []events.Envelope{out}, nil
	})
	_, body := lessonsEvent(t, 2)
	ctx := context.Background()

	assert.Equal(t, OutcomeApplied, f.consumer.Handle(ctx, delivery(body, 1, &recordingSettler{})))
	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, "enrollment", f.sender.sent[0].Exchange)
	assert.Equal(t, "progress.updated", f.sender.sent[0].RoutingKey)

	rows := f.outbox.Messages(ctx)
	require.Len(t, rows, 1)
	assert.Equal(t, outbox.StatusSent, rows[0].Status)
}

func TestEventIDConflictIsPoison(t *testing.T) {
	f := newConsumerFixture(t, func(context.Context, events.Envelope) ([]events.Envelope, error) { return nil, nil })
	env, body := lessonsEvent(t, 2)
	ctx := context.Background()
	assert.Equal(t, OutcomeApplied, f.consumer.Handle(ctx, delivery(body, 1, &recordingSettler{})))

	env.Data = []byte(`{"course_id":"course-1","total_lessons":3}`)
	tampered, err := events.Encode(env)
	require.NoError(t, err)

	settler := &recordingSettler{}
	assert.Equal(t, OutcomeDeadLettered, f.consumer.Handle(ctx, delivery(tampered, 1, settler)))
	assert.Len(t, settler.dead, 1)
}

func TestPayloadHashIgnoresKeyOrder(t *testing.T) {
	a := events.Envelope{EventType: "x", Version: 1, Data: []byte(`{"a":1,"b":"two"}`)}
	b := events.Envelope{EventType: "x", Version: 1, Data: []byte(`{ "b": "two", "a": 1 }`)}
	assert.Equal(t, PayloadHash(a), PayloadHash(b))

	b.Version = 2
	assert.NotEqual(t, PayloadHash(a), PayloadHash(b))
}

func TestRunRequiresHandlerPerSubscription(t *testing.T) {
	f := newConsumerFixture(t, func(context.Context, events.Envelope) ([]events.Envelope, error) { return nil, nil })
	broker := messaging.NewInMemoryBroker(nil)
	defer broker.Close()

	err := f.consumer.Run(context.Background(), broker, messaging.ConsumeOptions{Workers: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), contractsv1.TypePaymentCompleted)
}
