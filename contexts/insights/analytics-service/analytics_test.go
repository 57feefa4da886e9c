package analyticsservice

import (
	"context"
	"errors"
	"testing"
	"time"

	contractsv1 "eduweb/contracts/events/v1"
	domainerrors "eduweb/contexts/insights/analytics-service/domain/errors"
	"eduweb/internal/platform/config"
	"eduweb/internal/platform/messaging"
	"eduweb/internal/shared/events"
	"eduweb/internal/shared/inbox"

	"github.com/shopspring/decimal"
)

type ackSettler struct{}

func (ackSettler) Ack(*messaging.Delivery) error { return nil }

func (ackSettler) Retry(context.Context, *messaging.Delivery, time.Duration) error { return nil }

func (ackSettler) DeadLetter(*messaging.Delivery, string) error { return nil }

func newConsumer(t *testing.T) (Module, *inbox.Consumer) {
	t.Helper()
	registry, err := events.Choreography(config.DefaultTopology())
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	module := NewInMemoryModule(nil)
	consumer := &inbox.Consumer{
		Service:  events.ServiceAnalytics,
		Registry: registry,
		Tx:       module.Tx,
		Inbox:    module.Inbox,
	}
	for eventType, handler := range module.Handlers {
		consumer.On(eventType, handler)
	}
	return module, consumer
}

func deliver(t *testing.T, consumer *inbox.Consumer, env events.Envelope) inbox.Outcome {
	t.Helper()
	body, err := events.Encode(env)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	d := messaging.NewDelivery(messaging.Message{Type: env.EventType, Body: body}, "test", 1, 1, ackSettler{})
	return consumer.Handle(context.Background(), d)
}

func mustEvent(t *testing.T, eventType string, source string, at time.Time, payload any) events.Envelope {
	t.Helper()
	env, err := events.New(eventType, source, "key", at, payload)
	if err != nil {
		t.Fatalf("build %s: %v", eventType, err)
	}
	return env
}

func payment(t *testing.T, instructorID string, amount string, at time.Time) events.Envelope {
	t.Helper()
	return mustEvent(t, contractsv1.TypePaymentCompleted, events.ServicePayment, at, contractsv1.PaymentCompleted{
		PaymentID:    "pay-" + amount,
		UserID:       "user-1",
		CourseID:     "course-1",
		InstructorID: instructorID,
		Amount:       decimal.RequireFromString(amount),
		Currency:     "USD",
		CompletedAt:  at,
	})
}

var (
	dayOne = time.Date(2026, time.February, 1, 9, 30, 0, 0, time.UTC)
	dayTwo = dayOne.Add(24 * time.Hour)
)

func TestSummaryAggregatesFacts(t *testing.T) {
	module, consumer := newConsumer(t)
	ctx := context.Background()

	deliver(t, consumer, mustEvent(t, contractsv1.TypeUserCreated, events.ServiceAuth, dayOne,
		contractsv1.UserCreated{UserID: "user-1", Email: "a@example.com"}))
	deliver(t, consumer, payment(t, "inst-1", "10.50", dayOne))
	deliver(t, consumer, payment(t, "inst-2", "20.25", dayTwo))
	deliver(t, consumer, mustEvent(t, contractsv1.TypeEnrollmentCreated, events.ServiceEnrollment, dayTwo,
		contractsv1.EnrollmentCreated{
			EnrollmentID: "enr-1",
			CourseID:     "course-1",
			StudentID:    "user-1",
			InstructorID: "inst-1",
			TotalLessons: 3,
			EnrolledAt:   dayTwo,
		}))
	deliver(t, consumer, mustEvent(t, contractsv1.TypeEnrollmentCompleted, events.ServiceEnrollment, dayTwo,
		contractsv1.EnrollmentCompleted{
			EnrollmentID: "enr-1",
			CourseID:     "course-1",
			StudentID:    "user-1",
			InstructorID: "inst-1",
			CompletedAt:  dayTwo,
		}))

	summary, err := module.Handler.SummaryHandler(ctx, "", "")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Revenue != "30.75" || summary.Payments != 2 || summary.Registrations != 1 {
		t.Fatalf("unexpected totals %+v", summary)
	}
	if summary.Enrollments != 1 || summary.Completions != 1 || len(summary.Daily) != 2 {
		t.Fatalf("unexpected enrollment figures %+v", summary)
	}

	firstDay, err := module.Handler.SummaryHandler(ctx, "2026-02-01", "2026-02-01")
	if err != nil {
		t.Fatalf("summary range: %v", err)
	}
	if firstDay.Revenue != "10.50" || len(firstDay.Daily) != 1 {
		t.Fatalf("unexpected single day summary %+v", firstDay)
	}

	inst, err := module.Handler.InstructorHandler(ctx, "inst-1")
	if err != nil {
		t.Fatalf("instructor: %v", err)
	}
	if inst.Revenue != "10.50" || inst.Enrollments != 1 || inst.Completions != 1 {
		t.Fatalf("unexpected instructor stats %+v", inst)
	}
}

func TestRedeliveredPaymentCountsOnce(t *testing.T) {
	module, consumer := newConsumer(t)
	env := payment(t, "inst-1", "5.00", dayOne)

	if outcome := deliver(t, consumer, env); outcome != inbox.OutcomeApplied {
		t.Fatalf("first delivery outcome %s", outcome)
	}
	if outcome := deliver(t, consumer, env); outcome != inbox.OutcomeDuplicate {
		t.Fatalf("redelivery outcome %s", outcome)
	}

	inst, err := module.Handler.InstructorHandler(context.Background(), "inst-1")
	if err != nil {
		t.Fatalf("instructor: %v", err)
	}
	if inst.Revenue != "5.00" {
		t.Fatalf("expected revenue counted once, got %s", inst.Revenue)
	}
}

func TestProgressKeepsNewestSnapshot(t *testing.T) {
	module, consumer := newConsumer(t)
	progress := func(pct int, seq int64, at time.Time) events.Envelope {
		return mustEvent(t, contractsv1.TypeEnrollmentProgressUpdated, events.ServiceEnrollment, at,
			contractsv1.EnrollmentProgressUpdated{
				EnrollmentID:     "enr-1",
				CourseID:         "course-1",
				StudentID:        "user-1",
				InstructorID:     "inst-1",
				CompletedLessons: pct / 25,
				TotalLessons:     4,
				Progress:         pct,
				Sequence:         seq,
			})
	}

	deliver(t, consumer, progress(50, 2, dayOne.Add(time.Hour)))
	deliver(t, consumer, progress(25, 1, dayOne))

	snapshot, err := module.Handler.ProgressHandler(context.Background(), "enr-1")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if snapshot.Progress != 50 || snapshot.Sequence != 2 {
		t.Fatalf("expected newest progress 50 at sequence 2, got %+v", snapshot)
	}

	// A later sequence wins even when its timestamp is older.
	deliver(t, consumer, progress(75, 3, dayOne.Add(-time.Hour)))
	snapshot, err = module.Handler.ProgressHandler(context.Background(), "enr-1")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if snapshot.Progress != 75 || snapshot.Sequence != 3 {
		t.Fatalf("expected sequence 3 progress 75, got %+v", snapshot)
	}
}

func TestSummaryRejectsBadRange(t *testing.T) {
	module, _ := newConsumer(t)
	ctx := context.Background()

	if _, err := module.Handler.SummaryHandler(ctx, "02/01/2026", ""); !errors.Is(err, domainerrors.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery for bad day, got %v", err)
	}
	if _, err := module.Handler.SummaryHandler(ctx, "2026-02-02", "2026-02-01"); !errors.Is(err, domainerrors.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery for inverted range, got %v", err)
	}
	if _, err := module.Handler.InstructorHandler(ctx, "nobody"); !errors.Is(err, domainerrors.ErrInstructorNotFound) {
		t.Fatalf("expected ErrInstructorNotFound, got %v", err)
	}
}
