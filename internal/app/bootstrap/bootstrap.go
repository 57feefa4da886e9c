package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	courseservice "eduweb/contexts/catalog/course-service"
	coursehttp "eduweb/contexts/catalog/course-service/adapters/http"
	paymentservice "eduweb/contexts/commerce/payment-service"
	authservice "eduweb/contexts/identity-access/auth-service"
	userservice "eduweb/contexts/identity-access/user-service"
	analyticsservice "eduweb/contexts/insights/analytics-service"
	enrollmentservice "eduweb/contexts/learning/enrollment-service"
	"eduweb/contexts/learning/enrollment-service/adapters/courseclient"
	enrollmententities "eduweb/contexts/learning/enrollment-service/domain/entities"
	enrollmentports "eduweb/contexts/learning/enrollment-service/ports"
	"eduweb/internal/platform/backoff"
	"eduweb/internal/platform/config"
	"eduweb/internal/platform/db"
	"eduweb/internal/platform/httpserver"
	"eduweb/internal/platform/messaging"
	"eduweb/internal/platform/observability"
	"eduweb/internal/shared/events"
	"eduweb/internal/shared/inbox"
	"eduweb/internal/shared/outbox"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

// Runtime holds the hosted services of one process and the infrastructure
// they share.
type Runtime struct {
	Config   config.Config
	Registry *events.Registry
	Broker   messaging.Broker
	Modules  httpserver.Modules

	relays    []outbox.Relay
	consumers []*inbox.Consumer
	postgres  *db.Postgres
	prom      *prometheus.Registry
	metrics   *observability.Metrics
	tracing   func(context.Context) error
	logger    *slog.Logger
}

type APIApp struct {
	runtime *Runtime
	server  *httpserver.Server
}

type WorkerApp struct {
	runtime *Runtime
	server  *httpserver.Server
}

func BuildAPI(ctx context.Context) (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	rt, err := NewRuntime(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &APIApp{
		runtime: rt,
		server:  rt.Server(normalizeAddr(cfg.HTTPPort), rt.Modules),
	}, nil
}

func BuildWorker(ctx context.Context) (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	rt, err := NewRuntime(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &WorkerApp{
		runtime: rt,
		// Workers expose health and metrics only.
		server: rt.Server(normalizeAddr(cfg.HTTPPort), httpserver.Modules{}),
	}, nil
}

// NewRuntime connects storage and the broker, declares the topology and
// wires every service cfg hosts. Without POSTGRES_DSN the services run on
// process memory.
func NewRuntime(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rt := &Runtime{Config: cfg, logger: logger}
	ok := false
	defer func() {
		if !ok {
			_ = rt.Close(context.Background())
		}
	}()

	registry, err := events.Choreography(cfg.Topology)
	if err != nil {
		return nil, fmt.Errorf("build choreography: %w", err)
	}
	rt.Registry = registry

	rt.tracing, err = observability.SetupTracing(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		return nil, err
	}

	rt.prom = prometheus.NewRegistry()
	rt.prom.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rt.metrics, err = observability.NewMetrics(rt.prom)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	if strings.TrimSpace(cfg.PostgresDSN) != "" {
		rt.postgres, err = db.Connect(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if cfg.RunMigrations {
			if err := rt.postgres.Migrate(); err != nil {
				return nil, err
			}
		}
	} else {
		logger.Warn("POSTGRES_DSN not set, services run on process memory",
			"event", "bootstrap_memory_storage",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}

	switch cfg.Broker {
	case config.BrokerMemory:
		rt.Broker = messaging.NewInMemoryBroker(logger)
	default:
		rabbit, err := messaging.DialRabbitMQ(cfg.AMQPURL, logger)
		if err != nil {
			return nil, err
		}
		rt.Broker = rabbit
	}
	if err := rt.Broker.Declare(ctx, registry.Topology()); err != nil {
		return nil, fmt.Errorf("declare topology: %w", err)
	}

	rt.wireModules()
	ok = true

	logger.Info("runtime ready",
		"event", "bootstrap_runtime_ready",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"broker", cfg.Broker,
		"postgres", rt.postgres != nil,
		"relays", len(rt.relays),
		"consumers", len(rt.consumers),
	)
	return rt, nil
}

func (rt *Runtime) publisher() outbox.Publisher {
	return outbox.Publisher{
		Registry:    rt.Registry,
		Broker:      rt.Broker,
		GracePeriod: rt.Config.OutboxGracePeriod,
		Metrics:     rt.metrics,
		Logger:      rt.logger,
	}
}

func (rt *Runtime) wireModules() {
	cfg := rt.Config

	if cfg.Hosts(events.ServiceAuth) {
		var module authservice.Module
		if rt.postgres != nil {
			module = authservice.NewPostgresModule(rt.postgres.DB, rt.publisher(), rt.logger)
		} else {
			module = authservice.NewInMemoryModule(rt.publisher(), rt.logger)
		}
		rt.Modules.Auth = &module
		rt.addRelay(module.Publisher)
		rt.addConsumer(events.ServiceAuth, module.Tx, module.Inbox, &module.Publisher, module.Handlers)
	}

	if cfg.Hosts(events.ServiceUser) {
		var module userservice.Module
		if rt.postgres != nil {
			module = userservice.NewPostgresModule(rt.postgres.DB, rt.publisher(), rt.logger)
		} else {
			module = userservice.NewInMemoryModule(rt.publisher(), rt.logger)
		}
		rt.Modules.User = &module
		rt.addRelay(module.Publisher)
		rt.addConsumer(events.ServiceUser, module.Tx, module.Inbox, &module.Publisher, module.Handlers)
	}

	if cfg.Hosts(events.ServiceCourse) {
		var module courseservice.Module
		if rt.postgres != nil {
			module = courseservice.NewPostgresModule(rt.postgres.DB, rt.publisher(), rt.logger)
		} else {
			module = courseservice.NewInMemoryModule(rt.publisher(), rt.logger)
		}
		rt.Modules.Course = &module
		rt.addRelay(module.Publisher)
	}

	if cfg.Hosts(events.ServicePayment) {
		var module paymentservice.Module
		if rt.postgres != nil {
			module = paymentservice.NewPostgresModule(rt.postgres.DB, rt.publisher(), rt.logger)
		} else {
			module = paymentservice.NewInMemoryModule(rt.publisher(), rt.logger)
		}
		rt.Modules.Payment = &module
		rt.addRelay(module.Publisher)
	}

	if cfg.Hosts(events.ServiceEnrollment) {
		courses := rt.courseLookup()
		var module enrollmentservice.Module
		if rt.postgres != nil {
			module = enrollmentservice.NewPostgresModule(rt.postgres.DB, rt.publisher(), courses, rt.logger)
		} else {
			module = enrollmentservice.NewInMemoryModule(rt.publisher(), courses, rt.logger)
		}
		rt.Modules.Enrollment = &module
		rt.addRelay(module.Publisher)
		rt.addConsumer(events.ServiceEnrollment, module.Tx, module.Inbox, &module.Publisher, module.Handlers)
	}

	if cfg.Hosts(events.ServiceAnalytics) {
		var module analyticsservice.Module
		if rt.postgres != nil {
			module = analyticsservice.NewPostgresModule(rt.postgres.DB, rt.logger)
		} else {
			module = analyticsservice.NewInMemoryModule(rt.logger)
		}
		rt.Modules.Analytics = &module
		rt.addConsumer(events.ServiceAnalytics, module.Tx, module.Inbox, nil, module.Handlers)
	}
}

// courseLookup prefers the remote course-service and falls back to the
// in-process one. Nil means enrollments rely on the replicated count alone.
func (rt *Runtime) courseLookup() enrollmentports.CourseLookup {
	if rt.Config.CourseServiceURL != "" {
		return courseclient.New(courseclient.Options{
			BaseURL: rt.Config.CourseServiceURL,
			Timeout: rt.Config.CourseLookupTimeout,
			Logger:  rt.logger,
		})
	}
	if rt.Modules.Course != nil {
		return localCourseLookup{handler: rt.Modules.Course.Handler}
	}
	return nil
}

type localCourseLookup struct {
	handler coursehttp.Handler
}

func (l localCourseLookup) LessonCount(ctx context.Context, courseID string) (enrollmententities.LessonCount, error) {
	resp, err := l.handler.TotalLessonsHandler(ctx, courseID)
	if err != nil {
		return enrollmententities.LessonCount{}, err
	}
	return enrollmententities.LessonCount{
		CourseID:     resp.CourseID,
		TotalLessons: resp.TotalLessons,
		Version:      resp.Version,
	}, nil
}

func (rt *Runtime) addRelay(publisher outbox.Publisher) {
	rt.relays = append(rt.relays, outbox.Relay{
		Service:     publisher.Service,
		Registry:    rt.Registry,
		Broker:      rt.Broker,
		Outbox:      publisher.Outbox,
		BatchSize:   rt.Config.OutboxBatchSize,
		MaxAttempts: rt.Config.OutboxMaxAttempts,
		Backoff:     backoff.Policy{Base: rt.Config.RetryBaseDelay, Max: rt.Config.RetryMaxDelay, Jitter: true},
		Metrics:     rt.metrics,
		Logger:      rt.logger,
	})
}

func (rt *Runtime) addConsumer(service string, tx inbox.Transactor, store inbox.Store, publisher *outbox.Publisher, handlers map[string]inbox.Handler) {
	consumer := &inbox.Consumer{
		Service:     service,
		Registry:    rt.Registry,
		Tx:          tx,
		Inbox:       store,
		Publisher:   publisher,
		MaxAttempts: rt.Config.MaxDeliveryAttempts,
		Retry:       backoff.Policy{Base: rt.Config.RetryBaseDelay, Max: rt.Config.RetryMaxDelay, Jitter: true},
		Metrics:     rt.metrics,
		Logger:      rt.logger,
	}
	for eventType, handler := range handlers {
		consumer.On(eventType, handler)
	}
	rt.consumers = append(rt.consumers, consumer)
}

// Server builds an HTTP server over modules with the runtime's health and
// metrics routes.
func (rt *Runtime) Server(addr string, modules httpserver.Modules) *httpserver.Server {
	return httpserver.New(modules, httpserver.Options{
		Addr:    addr,
		Metrics: promhttp.HandlerFor(rt.prom, promhttp.HandlerOpts{EnableOpenMetrics: true}),
		Ready:   rt.Ready,
		Logger:  rt.logger,
	})
}

// Ready reports whether postgres answers; memory-only runtimes are always ready.
func (rt *Runtime) Ready(ctx context.Context) error {
	if rt.postgres == nil {
		return nil
	}
	sqlDB, err := rt.postgres.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// RunWorkers drives every relay and consumer until ctx is done or one fails.
func (rt *Runtime) RunWorkers(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, relay := range rt.relays {
		g.Go(func() error {
			return relay.Run(gctx, rt.Config.OutboxPollInterval)
		})
	}
	opts := messaging.ConsumeOptions{Workers: rt.Config.ConsumerWorkers, Prefetch: rt.Config.ConsumerPrefetch}
	for _, consumer := range rt.consumers {
		g.Go(func() error {
			return consumer.Run(gctx, rt.Broker, opts)
		})
	}

	rt.logger.Info("workers started",
		"event", "bootstrap_workers_started",
		"module", "internal/app/bootstrap",
		"layer", "worker",
		"relays", len(rt.relays),
		"consumers", len(rt.consumers),
	)
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// InProcess reports whether state or broker live in process memory, so no
// separate worker process could reach them.
func (rt *Runtime) InProcess() bool {
	return rt.postgres == nil || rt.Config.Broker == config.BrokerMemory
}

func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	if rt.Broker != nil {
		errs = append(errs, rt.Broker.Close())
	}
	if rt.postgres != nil {
		errs = append(errs, rt.postgres.Close())
	}
	if rt.tracing != nil {
		errs = append(errs, rt.tracing(ctx))
	}
	return errors.Join(errs...)
}

// Run serves HTTP. In-process runtimes also run their workers here.
func (a *APIApp) Run(ctx context.Context) error {
	a.runtime.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"in_process_workers", a.runtime.InProcess(),
	)
	if !a.runtime.InProcess() {
		return a.server.Start(ctx)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.server.Start(gctx) })
	g.Go(func() error { return a.runtime.RunWorkers(gctx) })
	return g.Wait()
}

func (a *APIApp) Handler() http.Handler {
	return a.server.Handler()
}

func (a *APIApp) Close(ctx context.Context) error {
	return a.runtime.Close(ctx)
}

func (w *WorkerApp) Run(ctx context.Context) error {
	w.runtime.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.runtime.Config.OutboxPollInterval.String(),
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.server.Start(gctx) })
	g.Go(func() error { return w.runtime.RunWorkers(gctx) })
	return g.Wait()
}

func (w *WorkerApp) Close(ctx context.Context) error {
	return w.runtime.Close(ctx)
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
