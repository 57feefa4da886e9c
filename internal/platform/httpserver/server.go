package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	courseservice "eduweb/contexts/catalog/course-service"
	paymentservice "eduweb/contexts/commerce/payment-service"
	authservice "eduweb/contexts/identity-access/auth-service"
	userservice "eduweb/contexts/identity-access/user-service"
	analyticsservice "eduweb/contexts/insights/analytics-service"
	enrollmentservice "eduweb/contexts/learning/enrollment-service"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "eduweb/internal/platform/httpserver/docs"
)

// Modules holds the services this process serves over HTTP. Nil entries are
// hosted elsewhere and get no routes.
type Modules struct {
	Auth       *authservice.Module
	User       *userservice.Module
	Course     *courseservice.Module
	Payment    *paymentservice.Module
	Enrollment *enrollmentservice.Module
	Analytics  *analyticsservice.Module
}

type Options struct {
	Addr string
	// Metrics serves /metrics when set.
	Metrics http.Handler
	// Ready backs /healthz; nil always reports ready.
	Ready  func(ctx context.Context) error
	Logger *slog.Logger
}

type Server struct {
	mux     *http.ServeMux
	logger  *slog.Logger
	addr    string
	modules Modules
	metrics http.Handler
	ready   func(ctx context.Context) error
}

func New(modules Modules, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	addr := opts.Addr
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:     http.NewServeMux(),
		logger:  logger,
		addr:    addr,
		modules: modules,
		metrics: opts.Metrics,
		ready:   opts.Ready,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves until ctx is cancelled, then drains open requests.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("http server stopped",
		"event", "http_server_stopped",
		"module", "internal/platform/httpserver",
		"layer", "platform",
	)
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics)
	}

	if s.modules.Auth != nil {
		s.mux.HandleFunc("POST /api/auth/register", s.handleAuthRegister)
		s.mux.HandleFunc("GET /api/auth/accounts/{account_id}", s.handleAuthGetAccount)
	}
	if s.modules.User != nil {
		s.mux.HandleFunc("POST /api/users/{user_id}/profile", s.handleUserCompleteProfile)
		s.mux.HandleFunc("GET /api/users/{user_id}", s.handleUserGetProfile)
	}
	if s.modules.Course != nil {
		s.mux.HandleFunc("POST /api/courses", s.handleCourseCreate)
		s.mux.HandleFunc("GET /api/courses/{course_id}", s.handleCourseGet)
		s.mux.HandleFunc("POST /api/courses/{course_id}/lessons", s.handleCourseAddLesson)
		s.mux.HandleFunc("DELETE /api/courses/{course_id}/lessons/{lesson_id}", s.handleCourseRemoveLesson)
		s.mux.HandleFunc("GET /api/courses/{course_id}/total-lessons", s.handleCourseTotalLessons)
	}
	if s.modules.Payment != nil {
		s.mux.HandleFunc("POST /api/payments", s.handlePaymentCreate)
		s.mux.HandleFunc("GET /api/payments/{payment_id}", s.handlePaymentGet)
		s.mux.HandleFunc("POST /api/payments/{payment_id}/complete", s.handlePaymentComplete)
	}
	if s.modules.Enrollment != nil {
		s.mux.HandleFunc("GET /api/enrollments/{enrollment_id}", s.handleEnrollmentGet)
		s.mux.HandleFunc("POST /api/enrollments/{enrollment_id}/lessons/{lesson_id}/complete", s.handleEnrollmentCompleteLesson)
		s.mux.HandleFunc("GET /api/students/{student_id}/enrollments", s.handleEnrollmentListStudent)
	}
	if s.modules.Analytics != nil {
		s.mux.HandleFunc("GET /api/analytics/summary", s.handleAnalyticsSummary)
		s.mux.HandleFunc("GET /api/analytics/instructors/{instructor_id}", s.handleAnalyticsInstructor)
		s.mux.HandleFunc("GET /api/analytics/enrollments/{enrollment_id}/progress", s.handleAnalyticsProgress)
	}
}

type healthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Error: err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeJSON reports false after writing a 400 through fail.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, fail func(w http.ResponseWriter, status int, code string, message string)) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		fail(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return false
	}
	return true
}

func (s *Server) logInternal(service string, r *http.Request, err error) {
	s.logger.Error("request failed",
		"event", "http_request_failed",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"service", service,
		"method", r.Method,
		"path", r.URL.Path,
		"error", err.Error(),
	)
}
