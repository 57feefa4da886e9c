package inbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eduweb/internal/platform/backoff"
	"eduweb/internal/platform/messaging"
	"eduweb/internal/platform/observability"
	"eduweb/internal/shared/events"
	"eduweb/internal/shared/outbox"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Handler applies one event to the consumer's state. It runs inside the
// transaction that also records the processed-event marker; events it
// returns are staged in the same transaction and published after commit.
type Handler func(ctx context.Context, env events.Envelope) ([]events.Envelope, error)

type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Outcome string

const (
	OutcomeApplied      Outcome = "applied"
	OutcomeDuplicate    Outcome = "duplicate"
	OutcomeRetried      Outcome = "retried"
	OutcomeDeadLettered Outcome = "dead_lettered"
	// OutcomeUnsettled means settling failed; the broker will redeliver.
	OutcomeUnsettled Outcome = "unsettled"
)

var tracer = otel.Tracer("eduweb/internal/shared/inbox")

// Consumer dispatches deliveries from a service's queues to its handlers.
// Publisher is nil for services whose handlers emit nothing.
type Consumer struct {
	Service     string
	Registry    *events.Registry
	Tx          Transactor
	Inbox       Store
	Publisher   *outbox.Publisher
	Clock       outbox.Clock
	MaxAttempts int
	Retry       backoff.Policy
	Metrics     *observability.Metrics
	Logger      *slog.Logger

	handlers map[string]Handler
}

// On registers the handler for eventType.
func (c *Consumer) On(eventType string, handler Handler) *Consumer {
	if c.handlers == nil {
		c.handlers = make(map[string]Handler)
	}
	c.handlers[eventType] = handler
	return c
}

// Run consumes every subscription of the service until ctx is done.
func (c *Consumer) Run(ctx context.Context, broker messaging.Broker, opts messaging.ConsumeOptions) error {
	subs := c.Registry.Subscriptions(c.Service)
	for _, sub := range subs {
		if _, ok := c.handlers[sub.Route.EventType]; !ok {
			return fmt.Errorf("%s subscribes to %s without a handler", c.Service, sub.Route.EventType)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, sub := range subs {
		g.Go(func() error {
			c.logger().Info("consumer started",
				"event", "inbox_consumer_started",
				"module", "internal/shared/inbox",
				"layer", "worker",
				"service", c.Service,
				"queue", sub.Queue,
			)
			return broker.Consume(gctx, sub.Queue, opts, func(ctx context.Context, d *messaging.Delivery) {
				c.Handle(ctx, d)
			})
		})
	}
	return g.Wait()
}

// Handle processes and settles one delivery.
func (c *Consumer) Handle(ctx context.Context, d *messaging.Delivery) Outcome {
	started := time.Now()
	ctx, span := tracer.Start(ctx, "consume "+d.Type,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.destination.name", d.Queue),
			attribute.String("messaging.message.id", d.MessageID),
			attribute.Int("eduweb.delivery.attempt", d.Attempt),
		),
	)
	defer span.End()

	outcome, env, err := c.handle(ctx, d)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.String("eduweb.consume.outcome", string(outcome)))

	eventType := env.EventType
	if eventType == "" {
		eventType = d.Type
	}
	c.Metrics.ObserveConsume(c.Service, eventType, string(outcome), time.Since(started))
	return outcome
}

func (c *Consumer) handle(ctx context.Context, d *messaging.Delivery) (Outcome, events.Envelope, error) {
	env, err := events.Parse(d.Body)
	if err != nil {
		return c.deadLetter(d, env, err), env, err
	}
	if err := c.Registry.CheckVersion(env); err != nil {
		return c.deadLetter(d, env, err), env, err
	}
	handler, ok := c.handlers[env.EventType]
	if !ok {
		err := fmt.Errorf("%w: %s has no handler for %s", events.ErrUnknownEventType, c.Service, env.EventType)
		return c.deadLetter(d, env, err), env, err
	}

	duplicate := false
	var emitted []events.Envelope
	err = c.Tx.WithinTx(ctx, func(txCtx context.Context) error {
		dup, err := c.Inbox.ReserveEvent(txCtx, c.Service, env.EventID, PayloadHash(env), c.now())
		if err != nil {
			return err
		}
		if dup {
			duplicate = true
			return nil
		}
		out, err := handler(txCtx, env)
		if err != nil {
			return err
		}
		if len(out) == 0 {
			return nil
		}
		if c.Publisher == nil {
			return fmt.Errorf("%s handler for %s emitted events without a publisher", c.Service, env.EventType)
		}
		if err := c.Publisher.Stage(txCtx, out...); err != nil {
			return err
		}
		emitted = out
		return nil
	})
	if err != nil {
		if IsPoison(err) {
			return c.deadLetter(d, env, err), env, err
		}
		return c.retry(ctx, d, env, err), env, err
	}

	if err := d.Ack(); err != nil {
		c.logger().Warn("ack failed after commit, redelivery will be a no-op",
			"event", "inbox_ack_failed",
			"module", "internal/shared/inbox",
			"layer", "worker",
			"service", c.Service,
			"event_id", env.EventID,
			"error", err.Error(),
		)
		if len(emitted) > 0 {
			c.Publisher.PublishCommitted(ctx, emitted...)
		}
		return OutcomeUnsettled, env, nil
	}
	if duplicate {
		c.logger().Info("duplicate event acknowledged",
			"event", "inbox_duplicate_event",
			"module", "internal/shared/inbox",
			"layer", "worker",
			"service", c.Service,
			"event_id", env.EventID,
			"event_type", env.EventType,
		)
		return OutcomeDuplicate, env, nil
	}
	if len(emitted) > 0 {
		c.Publisher.PublishCommitted(ctx, emitted...)
	}
	return OutcomeApplied, env, nil
}

func (c *Consumer) retry(ctx context.Context, d *messaging.Delivery, env events.Envelope, cause error) Outcome {
	maxAttempts := c.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if d.Attempt >= maxAttempts {
		return c.deadLetter(d, env, fmt.Errorf("attempts exhausted after %d: %w", d.Attempt, cause))
	}

	delay := c.Retry.Delay(d.Attempt)
	c.logger().Warn("event handling failed, retrying",
		"event", "inbox_event_retry",
		"module", "internal/shared/inbox",
		"layer", "worker",
		"service", c.Service,
		"event_id", env.EventID,
		"event_type", env.EventType,
		"attempt", d.Attempt,
		"delay", delay.String(),
		"error", cause.Error(),
	)
	if err := d.Retry(ctx, delay); err != nil {
		c.logSettleFailure("retry", env, err)
		return OutcomeUnsettled
	}
	return OutcomeRetried
}

func (c *Consumer) deadLetter(d *messaging.Delivery, env events.Envelope, cause error) Outcome {
	c.logger().Error("event dead-lettered",
		"event", "inbox_event_dead_lettered",
		"module", "internal/shared/inbox",
		"layer", "worker",
		"service", c.Service,
		"queue", d.Queue,
		"message_id", d.MessageID,
		"event_type", env.EventType,
		"attempt", d.Attempt,
		"error", cause.Error(),
	)
	if err := d.DeadLetter(cause.Error()); err != nil {
		c.logSettleFailure("dead_letter", env, err)
		return OutcomeUnsettled
	}
	return OutcomeDeadLettered
}

func (c *Consumer) logSettleFailure(action string, env events.Envelope, err error) {
	if errors.Is(err, messaging.ErrAlreadySettled) {
		return
	}
	c.logger().Error("settle delivery failed",
		"event", "inbox_settle_failed",
		"module", "internal/shared/inbox",
		"layer", "worker",
		"service", c.Service,
		"action", action,
		"event_id", env.EventID,
		"error", err.Error(),
	)
}

func (c *Consumer) now() time.Time {
	if c.Clock == nil {
		return time.Now().UTC()
	}
	return c.Clock.Now()
}

func (c *Consumer) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}
