package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eduweb/internal/platform/config"
	"eduweb/internal/shared/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig(services ...string) config.Config {
	return config.Config{
		ServiceName:         "eduweb-test",
		Services:            services,
		Broker:              config.BrokerMemory,
		Topology:            config.DefaultTopology(),
		ConsumerWorkers:     2,
		ConsumerPrefetch:    4,
		MaxDeliveryAttempts: 5,
		RetryBaseDelay:      5 * time.Millisecond,
		RetryMaxDelay:       50 * time.Millisecond,
		OutboxPollInterval:  20 * time.Millisecond,
		OutboxBatchSize:     50,
		OutboxMaxAttempts:   5,
	}
}

type client struct {
	t       *testing.T
	handler http.Handler
}

func (c client) call(method string, path string, body any) (int, map[string]any) {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, httptest.NewRequest(method, path, reader))
	out := map[string]any{}
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func (c client) eventually(method string, path string, check func(status int, body map[string]any) bool) map[string]any {
	c.t.Helper()
	var last map[string]any
	require.Eventually(c.t, func() bool {
		status, body := c.call(method, path, nil)
		last = body
		return check(status, body)
	}, 5*time.Second, 20*time.Millisecond, "%s %s never converged, last body %v", method, path, last)
	return last
}

func startRuntime(t *testing.T, cfg config.Config) (*Runtime, client) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rt, err := NewRuntime(context.Background(), cfg, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rt.RunWorkers(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("workers did not stop")
		}
		assert.NoError(t, rt.Close(context.Background()))
	})
	return rt, client{t: t, handler: rt.Server(":0", rt.Modules).Handler()}
}

func TestRuntimeHostsOnlyConfiguredServices(t *testing.T) {
	rt, err := NewRuntime(context.Background(), memoryConfig(events.ServiceCourse, events.ServiceAnalytics), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close(context.Background()) })

	assert.NotNil(t, rt.Modules.Course)
	assert.NotNil(t, rt.Modules.Analytics)
	assert.Nil(t, rt.Modules.Auth)
	assert.Nil(t, rt.Modules.Enrollment)
	assert.Len(t, rt.relays, 1)
	assert.Len(t, rt.consumers, 1)
	assert.True(t, rt.InProcess())
}

func TestRegistrationAndOnboardingChoreography(t *testing.T) {
	_, api := startRuntime(t, memoryConfig())

	status, account := api.call(http.MethodPost, "/api/auth/register", map[string]string{"email": "grace@example.com"})
	require.Equal(t, http.StatusCreated, status)
	userID := account["account_id"].(string)

	api.eventually(http.MethodGet, "/api/users/"+userID, func(status int, _ map[string]any) bool {
		return status == http.StatusOK
	})

	status, _ = api.call(http.MethodPost, "/api/users/"+userID+"/profile", map[string]string{"full_name": "Grace Hopper"})
	require.Equal(t, http.StatusOK, status)

	api.eventually(http.MethodGet, "/api/auth/accounts/"+userID, func(status int, body map[string]any) bool {
		return status == http.StatusOK && body["onboarded"] == true
	})
	api.eventually(http.MethodGet, "/api/analytics/summary", func(status int, body map[string]any) bool {
		return status == http.StatusOK && body["registrations"] == float64(1)
	})
}

func TestPurchaseToCompletionChoreography(t *testing.T) {
	_, api := startRuntime(t, memoryConfig())

	status, course := api.call(http.MethodPost, "/api/courses", map[string]string{
		"instructor_id": "inst-7",
		"title":         "Event Sourcing",
		"slug":          "event-sourcing",
	})
	require.Equal(t, http.StatusCreated, status)
	courseID := course["course_id"].(string)

	var lessons []string
	for _, title := range []string{"Events", "Projections"} {
		status, added := api.call(http.MethodPost, "/api/courses/"+courseID+"/lessons", map[string]string{"title": title})
		require.Equal(t, http.StatusCreated, status)
		lessons = append(lessons, added["lesson"].(map[string]any)["lesson_id"].(string))
	}

	status, payment := api.call(http.MethodPost, "/api/payments", map[string]string{
		"user_id":       "student-1",
		"course_id":     courseID,
		"instructor_id": "inst-7",
		"course_slug":   "event-sourcing",
		"amount":        "120.00",
		"currency":      "USD",
	})
	require.Equal(t, http.StatusCreated, status)
	status, _ = api.call(http.MethodPost, "/api/payments/"+payment["payment_id"].(string)+"/complete", map[string]string{"txn_ref": "txn-42"})
	require.Equal(t, http.StatusOK, status)

	list := api.eventually(http.MethodGet, "/api/students/student-1/enrollments", func(status int, body map[string]any) bool {
		items, _ := body["items"].([]any)
		return status == http.StatusOK && len(items) == 1
	})
	enrollment := list["items"].([]any)[0].(map[string]any)
	enrollmentID := enrollment["enrollment_id"].(string)
	assert.EqualValues(t, 2, enrollment["total_lessons"])
	assert.Equal(t, "active", enrollment["status"])

	for _, lessonID := range lessons {
		status, _ := api.call(http.MethodPost, "/api/enrollments/"+enrollmentID+"/lessons/"+lessonID+"/complete", nil)
		require.Equal(t, http.StatusOK, status)
	}

	_, done := api.call(http.MethodGet, "/api/enrollments/"+enrollmentID, nil)
	assert.Equal(t, "completed", done["status"])
	assert.EqualValues(t, 100, done["progress"])

	api.eventually(http.MethodGet, "/api/analytics/instructors/inst-7", func(status int, body map[string]any) bool {
		return status == http.StatusOK &&
			body["revenue"] == "120.00" &&
			body["enrollments"] == float64(1) &&
			body["completions"] == float64(1)
	})
	api.eventually(http.MethodGet, "/api/analytics/enrollments/"+enrollmentID+"/progress", func(status int, body map[string]any) bool {
		return status == http.StatusOK && body["progress"] == float64(100)
	})

	_, metrics := httptestMetrics(t, api)
	assert.Contains(t, metrics, "eduweb_consumer_deliveries_total")
}

func httptestMetrics(t *testing.T, api client) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Code, rec.Body.String()
}

func TestLocalCourseLookupReadsInProcessCourses(t *testing.T) {
	rt, err := NewRuntime(context.Background(), memoryConfig(events.ServiceCourse, events.ServiceEnrollment), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close(context.Background()) })

	lookup, ok := rt.courseLookup().(localCourseLookup)
	require.True(t, ok)
	_, err = lookup.LessonCount(context.Background(), "missing")
	assert.Error(t, err)
}

func TestNormalizeAddr(t *testing.T) {
	assert.Equal(t, ":8080", normalizeAddr(""))
	assert.Equal(t, ":9090", normalizeAddr("9090"))
	assert.Equal(t, ":7000", normalizeAddr(":7000"))
}
