package outbox

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"eduweb/internal/platform/backoff"
	"eduweb/internal/platform/observability"
	"eduweb/internal/shared/events"
)

// Relay republishes rows the commit path did not mark sent.
type Relay struct {
	Service     string
	Registry    *events.Registry
	Broker      Sender
	Outbox      Store
	Clock       Clock
	BatchSize   int
	MaxAttempts int
	Backoff     backoff.Policy
	Metrics     *observability.Metrics
	Logger      *slog.Logger
}

type RelayResult struct {
	Processed int
	Published int
	Retried   int
	Failed    int
}

// RunOnce sweeps one batch of due rows. Publish failures are recorded on
// the row; only store errors are returned.
func (r Relay) RunOnce(ctx context.Context) (RelayResult, error) {
	logger := resolveLogger(r.Logger)
	clock := resolveClock(r.Clock)
	maxAttempts := r.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 10
	}

	var result RelayResult
	due, err := r.Outbox.ListDueOutbox(ctx, clock.Now(), r.BatchSize)
	if err != nil {
		logger.Error("outbox list failed",
			"event", "outbox_relay_list_failed",
			"module", "internal/shared/outbox",
			"layer", "worker",
			"service", r.Service,
			"error", err.Error(),
		)
		return result, err
	}

	for _, row := range due {
		result.Processed++
		if _, ok := r.Registry.Route(row.EventType); !ok {
			if err := r.Outbox.MarkOutboxFailed(ctx, row.ID, row.Attempts, "no route for event type"); err != nil {
				return result, err
			}
			result.Failed++
			r.Metrics.ObserveOutboxFailed(r.Service, row.EventType)
			logger.Error("outbox row has no route",
				"event", "outbox_relay_unroutable",
				"module", "internal/shared/outbox",
				"layer", "worker",
				"service", r.Service,
				"outbox_id", row.ID,
				"event_type", row.EventType,
			)
			continue
		}

		pubErr := publish(ctx, r.Registry, r.Broker, row.ID, row.EventType, row.Payload)
		r.Metrics.ObservePublish(r.Service, row.EventType, "relay", pubErr == nil)
		if pubErr == nil {
			if err := r.Outbox.MarkOutboxSent(ctx, row.ID, clock.Now()); err != nil {
				return result, err
			}
			result.Published++
			continue
		}

		attempts := row.Attempts + 1
		if attempts >= maxAttempts {
			if err := r.Outbox.MarkOutboxFailed(ctx, row.ID, attempts, pubErr.Error()); err != nil {
				return result, err
			}
			result.Failed++
			r.Metrics.ObserveOutboxFailed(r.Service, row.EventType)
			logger.Error("outbox row exhausted publish attempts",
				"event", "outbox_relay_exhausted",
				"module", "internal/shared/outbox",
				"layer", "worker",
				"service", r.Service,
				"outbox_id", row.ID,
				"attempts", attempts,
				"error", pubErr.Error(),
			)
			continue
		}

		next := clock.Now().Add(r.Backoff.Delay(attempts))
		if err := r.Outbox.MarkOutboxRetry(ctx, row.ID, attempts, next, pubErr.Error()); err != nil {
			return result, err
		}
		result.Retried++
		logger.Warn("outbox publish failed, rescheduled",
			"event", "outbox_relay_publish_failed",
			"module", "internal/shared/outbox",
			"layer", "worker",
			"service", r.Service,
			"outbox_id", row.ID,
			"attempts", attempts,
			"next_attempt_at", next,
			"error", pubErr.Error(),
		)
	}
	return result, nil
}

// Run sweeps every interval until ctx is done.
func (r Relay) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := r.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			resolveLogger(r.Logger).Error("outbox relay sweep failed",
				"event", "outbox_relay_sweep_failed",
				"module", "internal/shared/outbox",
				"layer", "worker",
				"service", r.Service,
				"error", err.Error(),
			)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
