package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	courseservice "eduweb/contexts/catalog/course-service"
	paymentservice "eduweb/contexts/commerce/payment-service"
	authservice "eduweb/contexts/identity-access/auth-service"
	userservice "eduweb/contexts/identity-access/user-service"
	analyticsservice "eduweb/contexts/insights/analytics-service"
	enrollmentservice "eduweb/contexts/learning/enrollment-service"
	"eduweb/internal/platform/config"
	"eduweb/internal/platform/httpserver"
	"eduweb/internal/platform/messaging"
	"eduweb/internal/shared/events"
	"eduweb/internal/shared/outbox"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	broker   *messaging.InMemoryBroker
	registry *events.Registry
	handler  http.Handler
}

func newHarness(t *testing.T, opts httpserver.Options) harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry, err := events.Choreography(config.DefaultTopology())
	require.NoError(t, err)
	broker := messaging.NewInMemoryBroker(logger)
	require.NoError(t, broker.Declare(context.Background(), registry.Topology()))
	t.Cleanup(func() { _ = broker.Close() })

	publisher := outbox.Publisher{Registry: registry, Broker: broker, Logger: logger}
	auth := authservice.NewInMemoryModule(publisher, logger)
	user := userservice.NewInMemoryModule(publisher, logger)
	course := courseservice.NewInMemoryModule(publisher, logger)
	payment := paymentservice.NewInMemoryModule(publisher, logger)
	enrollment := enrollmentservice.NewInMemoryModule(publisher, nil, logger)
	analytics := analyticsservice.NewInMemoryModule(logger)

	opts.Logger = logger
	server := httpserver.New(httpserver.Modules{
		Auth:       &auth,
		User:       &user,
		Course:     &course,
		Payment:    &payment,
		Enrollment: &enrollment,
		Analytics:  &analytics,
	}, opts)
	return harness{broker: broker, registry: registry, handler: server.Handler()}
}

func (h harness) do(t *testing.T, method string, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (h harness) queueFor(t *testing.T, consumer string, eventType string) string {
	t.Helper()
	route, ok := h.registry.Route(eventType)
	require.True(t, ok, eventType)
	return events.QueueName(consumer, route)
}

func TestHealthReportsReadiness(t *testing.T) {
	ok := newHarness(t, httpserver.Options{})
	rec := ok.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	down := newHarness(t, httpserver.Options{Ready: func(context.Context) error { return errors.New("postgres down") }})
	rec = down.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "postgres down")
}

func TestMetricsRouteOnlyWhenConfigured(t *testing.T) {
	without := newHarness(t, httpserver.Options{})
	assert.Equal(t, http.StatusNotFound, without.do(t, http.MethodGet, "/metrics", nil).Code)

	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("eduweb_up 1\n"))
	})
	with := newHarness(t, httpserver.Options{Metrics: metrics})
	rec := with.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "eduweb_up")
}

func TestRegisterAccountFlow(t *testing.T) {
	h := newHarness(t, httpserver.Options{})

	rec := h.do(t, http.MethodPost, "/api/auth/register", map[string]string{"email": "Ada@Example.com"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	account := decode[map[string]any](t, rec)
	assert.Equal(t, "ada@example.com", account["email"])
	accountID, _ := account["account_id"].(string)
	require.NotEmpty(t, accountID)

	rec = h.do(t, http.MethodGet, "/api/auth/accounts/"+accountID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodPost, "/api/auth/register", map[string]string{"email": "ada@example.com"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = h.do(t, http.MethodPost, "/api/auth/register", map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_email", decode[map[string]string](t, rec)["code"])

	assert.Equal(t, 1, h.broker.Depth(h.queueFor(t, events.ServiceUser, "user.created")))
	assert.Equal(t, 1, h.broker.Depth(h.queueFor(t, events.ServiceAnalytics, "user.created")))
}

func TestMalformedBodyIsBadRequest(t *testing.T) {
	h := newHarness(t, httpserver.Options{})
	req := httptest.NewRequest(http.MethodPost, "/api/courses", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_json", decode[map[string]string](t, rec)["code"])
}

func TestCourseLessonRoutesAnnounceTotals(t *testing.T) {
	h := newHarness(t, httpserver.Options{})

	rec := h.do(t, http.MethodPost, "/api/courses", map[string]string{
		"instructor_id": "inst-1",
		"title":         "Distributed Systems",
		"slug":          "distributed-systems",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	courseID, _ := decode[map[string]any](t, rec)["course_id"].(string)
	require.NotEmpty(t, courseID)

	rec = h.do(t, http.MethodPost, "/api/courses/"+courseID+"/lessons", map[string]string{"title": "Clocks"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = h.do(t, http.MethodPost, "/api/courses/"+courseID+"/lessons", map[string]string{"title": "Consensus"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	lesson := decode[map[string]any](t, rec)["lesson"].(map[string]any)
	lessonID, _ := lesson["lesson_id"].(string)

	rec = h.do(t, http.MethodDelete, "/api/courses/"+courseID+"/lessons/"+lessonID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(t, http.MethodGet, "/api/courses/"+courseID+"/total-lessons", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	totals := decode[map[string]any](t, rec)
	assert.EqualValues(t, 1, totals["total_lessons"])
	assert.EqualValues(t, 3, totals["version"])

	assert.Equal(t, 3, h.broker.Depth(h.queueFor(t, events.ServiceEnrollment, "course.total-lessons-changed")))

	rec = h.do(t, http.MethodDelete, "/api/courses/"+courseID+"/lessons/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = h.do(t, http.MethodGet, "/api/courses/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPaymentCompletionPublishesOnce(t *testing.T) {
	h := newHarness(t, httpserver.Options{})

	rec := h.do(t, http.MethodPost, "/api/payments", map[string]string{
		"user_id":       "user-1",
		"course_id":     "course-1",
		"instructor_id": "inst-1",
		"amount":        "49.90",
		"currency":      "USD",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	paymentID, _ := decode[map[string]any](t, rec)["payment_id"].(string)

	for range 2 {
		rec = h.do(t, http.MethodPost, "/api/payments/"+paymentID+"/complete", map[string]string{"txn_ref": "txn-1"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	assert.Equal(t, "completed", decode[map[string]any](t, rec)["status"])
	assert.Equal(t, 1, h.broker.Depth(h.queueFor(t, events.ServiceEnrollment, "payment.completed")))

	rec = h.do(t, http.MethodPost, "/api/payments", map[string]string{
		"user_id":   "user-1",
		"course_id": "course-1",
		"amount":    "abc",
		"currency":  "USD",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = h.do(t, http.MethodGet, "/api/payments/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReadRoutesMapNotFound(t *testing.T) {
	h := newHarness(t, httpserver.Options{})

	for _, path := range []string{
		"/api/users/nobody",
		"/api/enrollments/none",
		"/api/analytics/instructors/nobody",
		"/api/analytics/enrollments/none/progress",
	} {
		rec := h.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}

	rec := h.do(t, http.MethodGet, "/api/students/nobody/enrollments", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAnalyticsSummaryValidatesRange(t *testing.T) {
	h := newHarness(t, httpserver.Options{})

	rec := h.do(t, http.MethodGet, "/api/analytics/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0.00", decode[map[string]any](t, rec)["revenue"])

	rec = h.do(t, http.MethodGet, "/api/analytics/summary?from=2026-05-02&to=2026-05-01", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = h.do(t, http.MethodGet, "/api/analytics/summary?from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnhostedServicesHaveNoRoutes(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	analytics := analyticsservice.NewInMemoryModule(logger)
	server := httpserver.New(httpserver.Modules{Analytics: &analytics}, httpserver.Options{Logger: logger})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString(`{"email":"a@b.co"}`))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
