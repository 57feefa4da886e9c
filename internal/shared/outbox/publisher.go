package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"eduweb/internal/platform/messaging"
	"eduweb/internal/platform/observability"
	"eduweb/internal/shared/events"
)

const contentTypeJSON = "application/json"

// Sender is the publishing half of messaging.Broker.
type Sender interface {
	Publish(ctx context.Context, msg messaging.Message) error
}

// Publisher is a service's producer side. Stage runs inside the command's
// transaction; PublishCommitted runs after that transaction committed.
type Publisher struct {
	Service     string
	Registry    *events.Registry
	Broker      Sender
	Outbox      Store
	Clock       Clock
	GracePeriod time.Duration
	Metrics     *observability.Metrics
	Logger      *slog.Logger
}

// Stage appends envs to the outbox. An event type the service does not own
// fails the whole transaction.
func (p Publisher) Stage(ctx context.Context, envs ...events.Envelope) error {
	now := resolveClock(p.Clock).Now()
	for _, env := range envs {
		if !p.Registry.Produces(p.Service, env.EventType) {
			return fmt.Errorf("%w: %s does not produce %s", ErrNotProducer, p.Service, env.EventType)
		}
		msg, err := NewMessage(env, now, p.GracePeriod)
		if err != nil {
			return err
		}
		if err := p.Outbox.AppendOutbox(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

// PublishCommitted sends already-committed events and marks their rows sent.
// Failures are logged and left for the relay.
func (p Publisher) PublishCommitted(ctx context.Context, envs ...events.Envelope) {
	logger := resolveLogger(p.Logger)
	for _, env := range envs {
		body, err := events.Encode(env)
		if err != nil {
			logger.Error("encode committed event failed",
				"event", "outbox_commit_encode_failed",
				"module", "internal/shared/outbox",
				"layer", "platform",
				"service", p.Service,
				"event_id", env.EventID,
				"error", err.Error(),
			)
			continue
		}

		err = publish(ctx, p.Registry, p.Broker, env.EventID, env.EventType, body)
		p.Metrics.ObservePublish(p.Service, env.EventType, "commit", err == nil)
		if err != nil {
			logger.Warn("publish after commit failed, relay will retry",
				"event", "outbox_commit_publish_failed",
				"module", "internal/shared/outbox",
				"layer", "platform",
				"service", p.Service,
				"event_id", env.EventID,
				"event_type", env.EventType,
				"error", err.Error(),
			)
			continue
		}

		if err := p.Outbox.MarkOutboxSent(ctx, env.EventID, resolveClock(p.Clock).Now()); err != nil {
			logger.Warn("mark outbox sent failed, event may be published twice",
				"event", "outbox_commit_mark_sent_failed",
				"module", "internal/shared/outbox",
				"layer", "platform",
				"service", p.Service,
				"event_id", env.EventID,
				"error", err.Error(),
			)
		}
	}
}

func publish(ctx context.Context, registry *events.Registry, broker Sender, id string, eventType string, body []byte) error {
	route, ok := registry.Route(eventType)
	if !ok {
		return fmt.Errorf("%w: %s", events.ErrUnknownEventType, eventType)
	}
	return broker.Publish(ctx, messaging.Message{
		Exchange:    route.Exchange,
		RoutingKey:  route.RoutingKey,
		MessageID:   id,
		Type:        eventType,
		ContentType: contentTypeJSON,
		Body:        body,
		Timestamp:   time.Now().UTC(),
	})
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
