package enrollmentservice

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	contractsv1 "eduweb/contracts/events/v1"
	"eduweb/contexts/learning/enrollment-service/application/commands"
	"eduweb/contexts/learning/enrollment-service/domain/entities"
	"eduweb/contexts/learning/enrollment-service/ports"
	"eduweb/internal/platform/config"
	"eduweb/internal/platform/messaging"
	"eduweb/internal/shared/events"
	"eduweb/internal/shared/inbox"
	"eduweb/internal/shared/outbox"

	"github.com/shopspring/decimal"
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

func (r *sentRecorder) withKey(key string) []messaging.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []messaging.Message
	for _, msg := range r.sent {
		if msg.RoutingKey == key {
			out = append(out, msg)
		}
	}
	return out
}

type ackSettler struct{}

func (ackSettler) Ack(*messaging.Delivery) error { return nil }

func (ackSettler) Retry(context.Context, *messaging.Delivery, time.Duration) error { return nil }

func (ackSettler) DeadLetter(*messaging.Delivery, string) error { return nil }

type stubLookup struct {
	total   int
	version int64
	err     error
	calls   int
}

func (s *stubLookup) LessonCount(_ context.Context, courseID string) (entities.LessonCount, error) {
	s.calls++
	if s.err != nil {
		return entities.LessonCount{}, s.err
	}
	return entities.LessonCount{CourseID: courseID, TotalLessons: s.total, Version: s.version}, nil
}

type harness struct {
	module   Module
	sender   *sentRecorder
	consumer *inbox.Consumer
}

func newHarness(t *testing.T, courses ports.CourseLookup) harness {
	t.Helper()
	return harnessFor(t, func(publisher outbox.Publisher) Module {
		return NewInMemoryModule(publisher, courses, nil)
	})
}

func harnessFor(t *testing.T, build func(outbox.Publisher) Module) harness {
	t.Helper()
	registry, err := events.Choreography(config.DefaultTopology())
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	sender := &sentRecorder{}
	module := build(outbox.Publisher{Registry: registry, Broker: sender})
	consumer := &inbox.Consumer{
		Service:   events.ServiceEnrollment,
		Registry:  registry,
		Tx:        module.Tx,
		Inbox:     module.Inbox,
		Publisher: &module.Publisher,
	}
	for eventType, handler := range module.Handlers {
		consumer.On(eventType, handler)
	}
	return harness{module: module, sender: sender, consumer: consumer}
}

func (h harness) deliver(t *testing.T, env events.Envelope) inbox.Outcome {
	t.Helper()
	return h.consumer.Handle(context.Background(), delivery(t, env))
}

func delivery(t *testing.T, env events.Envelope) *messaging.Delivery {
	t.Helper()
	body, err := events.Encode(env)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return messaging.NewDelivery(messaging.Message{Type: env.EventType, MessageID: env.EventID, Body: body}, "test", 1, 1, ackSettler{})
}

func (h harness) onlyEnrollment(t *testing.T, studentID string) entities.Enrollment {
	t.Helper()
	items, err := h.module.Handler.Queries.ListStudentEnrollments(context.Background(), studentID)
	if err != nil {
		t.Fatalf("list enrollments: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected exactly one enrollment for %s, got %d", studentID, len(items))
	}
	return items[0]
}

var base = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func paymentCompleted(t *testing.T, studentID string, courseID string) events.Envelope {
	t.Helper()
	env, err := events.New(contractsv1.TypePaymentCompleted, events.ServicePayment, studentID, base, contractsv1.PaymentCompleted{
		PaymentID:    "pay-" + studentID,
		UserID:       studentID,
		CourseID:     courseID,
		InstructorID: "inst-1",
		CourseSlug:   "go-concurrency",
		Amount:       decimal.RequireFromString("19.99"),
		Currency:     "EUR",
		CompletedAt:  base,
	})
	if err != nil {
		t.Fatalf("build payment event: %v", err)
	}
	return env
}

func totalLessons(t *testing.T, courseID string, total int, version int64, at time.Time) events.Envelope {
	t.Helper()
	env, err := events.New(contractsv1.TypeCourseTotalLessonsChanged, events.ServiceCourse, courseID, at,
		contractsv1.CourseTotalLessonsChanged{CourseID: courseID, TotalLessons: total, Version: version})
	if err != nil {
		t.Fatalf("build total event: %v", err)
	}
	return env
}

func TestPaymentThenTotalLessonsConverges(t *testing.T) {
	h := newHarness(t, nil)

	if outcome := h.deliver(t, paymentCompleted(t, "stu-1", "course-1")); outcome != inbox.OutcomeApplied {
		t.Fatalf("payment outcome %s", outcome)
	}
	if got := h.onlyEnrollment(t, "stu-1").TotalLessons; got != 0 {
		t.Fatalf("expected 0 lessons before the count arrives, got %d", got)
	}
	if outcome := h.deliver(t, totalLessons(t, "course-1", 12, 1, base.Add(time.Minute))); outcome != inbox.OutcomeApplied {
		t.Fatalf("total outcome %s", outcome)
	}

	enrollment := h.onlyEnrollment(t, "stu-1")
	if enrollment.TotalLessons != 12 || enrollment.Progress != 0 || enrollment.Status != entities.EnrollmentStatusActive {
		t.Fatalf("unexpected converged enrollment %+v", enrollment)
	}
	if got := len(h.sender.withKey("enrollment.created")); got != 1 {
		t.Fatalf("expected one enrollment.created, got %d", got)
	}
	if got := len(h.sender.withKey("progress.updated")); got != 1 {
		t.Fatalf("expected one progress.updated for the new total, got %d", got)
	}
}

func TestTotalLessonsThenPaymentConverges(t *testing.T) {
	lookup := &stubLookup{total: 99}
	h := newHarness(t, lookup)

	h.deliver(t, totalLessons(t, "course-1", 12, 1, base.Add(time.Minute)))
	h.deliver(t, paymentCompleted(t, "stu-1", "course-1"))

	enrollment := h.onlyEnrollment(t, "stu-1")
	if enrollment.TotalLessons != 12 || enrollment.Progress != 0 || enrollment.Status != entities.EnrollmentStatusActive {
		t.Fatalf("unexpected converged enrollment %+v", enrollment)
	}
	if lookup.calls != 0 {
		t.Fatalf("replicated count must be used before the lookup, got %d calls", lookup.calls)
	}
}

func TestDuplicatePaymentEnrollsOnce(t *testing.T) {
	h := newHarness(t, nil)
	env := paymentCompleted(t, "stu-1", "course-1")

	if outcome := h.deliver(t, env); outcome != inbox.OutcomeApplied {
		t.Fatalf("first delivery outcome %s", outcome)
	}
	if outcome := h.deliver(t, env); outcome != inbox.OutcomeDuplicate {
		t.Fatalf("redelivery outcome %s", outcome)
	}
	// A second payment for the same course is a new event but the same enrollment.
	if outcome := h.deliver(t, paymentCompleted(t, "stu-1", "course-1")); outcome != inbox.OutcomeApplied {
		t.Fatalf("second payment outcome %s", outcome)
	}

	h.onlyEnrollment(t, "stu-1")
	if got := len(h.sender.withKey("enrollment.created")); got != 1 {
		t.Fatalf("expected one enrollment.created, got %d", got)
	}
}

func TestStaleTotalLessonsIgnored(t *testing.T) {
	h := newHarness(t, nil)
	h.deliver(t, paymentCompleted(t, "stu-1", "course-1"))

	// Version 2 carries the earlier timestamp; versions decide, not clocks.
	h.deliver(t, totalLessons(t, "course-1", 10, 2, base))
	if outcome := h.deliver(t, totalLessons(t, "course-1", 5, 1, base.Add(time.Hour))); outcome != inbox.OutcomeApplied {
		t.Fatalf("stale event must still be acked as applied, got %s", outcome)
	}

	if got := h.onlyEnrollment(t, "stu-1").TotalLessons; got != 10 {
		t.Fatalf("expected version 2 total 10 to win, got %d", got)
	}
}

func TestCourseLookupFillsMissingCount(t *testing.T) {
	h := newHarness(t, &stubLookup{total: 7, version: 1})
	h.deliver(t, paymentCompleted(t, "stu-1", "course-1"))
	if got := h.onlyEnrollment(t, "stu-1").TotalLessons; got != 7 {
		t.Fatalf("expected looked up total 7, got %d", got)
	}

	failing := newHarness(t, &stubLookup{err: errors.New("connection refused")})
	if outcome := failing.deliver(t, paymentCompleted(t, "stu-2", "course-2")); outcome != inbox.OutcomeApplied {
		t.Fatalf("lookup failure must not block enrollment, got %s", outcome)
	}
	if got := failing.onlyEnrollment(t, "stu-2").TotalLessons; got != 0 {
		t.Fatalf("expected fallback total 0, got %d", got)
	}
}

func TestLookedUpCountYieldsToNewerVersionWithSkewedClock(t *testing.T) {
	lookup := &stubLookup{total: 10, version: 1}
	h := newHarness(t, lookup)

	h.deliver(t, paymentCompleted(t, "stu-1", "course-1"))
	if got := h.onlyEnrollment(t, "stu-1").TotalLessons; got != 10 {
		t.Fatalf("expected looked up total 10, got %d", got)
	}

	// course-service's clock runs behind ours: version 2 is stamped long
	// before the lookup was cached.
	h.deliver(t, totalLessons(t, "course-1", 12, 2, base.Add(-24*time.Hour)))
	if got := h.onlyEnrollment(t, "stu-1").TotalLessons; got != 12 {
		t.Fatalf("expected version 2 total 12, got %d", got)
	}

	h.deliver(t, totalLessons(t, "course-1", 10, 1, time.Now().Add(time.Hour)))
	if got := h.onlyEnrollment(t, "stu-1").TotalLessons; got != 12 {
		t.Fatalf("replayed version 1 must not regress the total, got %d", got)
	}
	if lookup.calls != 1 {
		t.Fatalf("expected one lookup, got %d", lookup.calls)
	}
}

func TestRecomputedProgressIsSequencedAndStampedLocally(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.deliver(t, totalLessons(t, "course-1", 4, 1, base))
	h.deliver(t, paymentCompleted(t, "stu-1", "course-1"))
	enrollmentID := h.onlyEnrollment(t, "stu-1").EnrollmentID

	if _, err := h.module.Handler.Progress.CompleteLesson(ctx, commands.CompleteLessonCommand{
		EnrollmentID: enrollmentID,
		LessonID:     "lesson-1",
	}); err != nil {
		t.Fatalf("complete lesson: %v", err)
	}
	started := time.Now().Add(-time.Second)

	// The course event carries a timestamp older than the lesson completion.
	h.deliver(t, totalLessons(t, "course-1", 5, 2, base.Add(-24*time.Hour)))

	progress := h.sender.withKey("progress.updated")
	if len(progress) != 2 {
		t.Fatalf("expected 2 progress events, got %d", len(progress))
	}
	first := decodeProgress(t, progress[0])
	second := decodeProgress(t, progress[1])
	if second.payload.Sequence <= first.payload.Sequence {
		t.Fatalf("recomputed progress sequence %d must follow %d", second.payload.Sequence, first.payload.Sequence)
	}
	if second.payload.Progress != 20 {
		t.Fatalf("expected 20%% after the new total, got %d", second.payload.Progress)
	}
	if second.occurredAt.Before(started) {
		t.Fatalf("recomputed progress stamped %v, expected the enrollment clock", second.occurredAt)
	}
}

type progressFact struct {
	occurredAt time.Time
	payload    contractsv1.EnrollmentProgressUpdated
}

func decodeProgress(t *testing.T, msg messaging.Message) progressFact {
	t.Helper()
	env, err := events.Parse(msg.Body)
	if err != nil {
		t.Fatalf("parse progress envelope: %v", err)
	}
	var payload contractsv1.EnrollmentProgressUpdated
	if err := events.Decode(env, &payload); err != nil {
		t.Fatalf("decode progress payload: %v", err)
	}
	return progressFact{occurredAt: env.OccurredAt, payload: payload}
}

func TestCompleteLessonReachesCompletion(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.deliver(t, totalLessons(t, "course-1", 2, 1, base))
	h.deliver(t, paymentCompleted(t, "stu-1", "course-1"))
	enrollmentID := h.onlyEnrollment(t, "stu-1").EnrollmentID
	complete := func(lessonID string) entities.Enrollment {
		t.Helper()
		enrollment, err := h.module.Handler.Progress.CompleteLesson(ctx, commands.CompleteLessonCommand{
			EnrollmentID: enrollmentID,
			LessonID:     lessonID,
		})
		if err != nil {
			t.Fatalf("complete %s: %v", lessonID, err)
		}
		return enrollment
	}

	if got := complete("lesson-1").Progress; got != 50 {
		t.Fatalf("expected 50%% progress, got %d", got)
	}
	complete("lesson-1")
	if got := len(h.sender.withKey("progress.updated")); got != 1 {
		t.Fatalf("repeated lesson must not emit, got %d progress events", got)
	}

	done := complete("lesson-2")
	if done.Progress != 100 || done.Status != entities.EnrollmentStatusCompleted || done.CompletedAt == nil {
		t.Fatalf("expected completed enrollment, got %+v", done)
	}
	if got := len(h.sender.withKey("progress.updated")); got != 2 {
		t.Fatalf("expected 2 progress events, got %d", got)
	}
	completed := h.sender.withKey("enrollment.completed")
	if len(completed) != 1 || completed[0].Exchange != "enrollment" {
		t.Fatalf("expected one enrollment.completed on enrollment exchange, got %+v", completed)
	}
}

func TestProgressIsCapped(t *testing.T) {
	cases := []struct {
		completed, total, want int
	}{
		{0, 0, 0},
		{3, 0, 0},
		{1, 3, 33},
		{3, 3, 100},
		{5, 3, 100},
	}
	for _, tc := range cases {
		if got := entities.Progress(tc.completed, tc.total); got != tc.want {
			t.Fatalf("Progress(%d, %d) = %d, want %d", tc.completed, tc.total, got, tc.want)
		}
	}
}
