package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"eduweb/internal/platform/backoff"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	defaultConfirmTimeout = 5 * time.Second
	reconnectBase         = 500 * time.Millisecond
	reconnectCap          = 30 * time.Second
)

// ErrReconnectThrottled is returned while a failed redial is backing off.
var ErrReconnectThrottled = errors.New("rabbitmq reconnect throttled")

// RabbitMQ is the production broker adapter. Publishing uses a single
// confirm-mode channel; every Consume call owns its own channel. A closed
// connection is redialed on next use, at most once per backoff window.
type RabbitMQ struct {
	url  string
	dial func(url string) (*amqp.Connection, error)

	mu                   sync.Mutex
	conn                 *amqp.Connection
	publisher            *amqp.Channel
	reconnectAttempts    int
	lastReconnectAttempt time.Time
	closed               bool

	confirmTimeout time.Duration
	resubscribe    backoff.Policy
	logger         *slog.Logger
}

func newRabbitMQ(url string, logger *slog.Logger) *RabbitMQ {
	if logger == nil {
		logger = slog.Default()
	}
	return &RabbitMQ{
		url:            url,
		dial:           amqp.Dial,
		confirmTimeout: defaultConfirmTimeout,
		resubscribe:    backoff.Policy{Base: reconnectBase, Max: reconnectCap, Jitter: true},
		logger:         logger,
	}
}

func DialRabbitMQ(url string, logger *slog.Logger) (*RabbitMQ, error) {
	r := newRabbitMQ(url, logger)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.publishChannel(); err != nil {
		if r.conn != nil {
			_ = r.conn.Close()
		}
		return nil, err
	}
	return r, nil
}

// connection returns the open connection, redialing a missing or closed one.
// Callers hold r.mu.
func (r *RabbitMQ) connection() (*amqp.Connection, error) {
	if r.closed {
		return nil, ErrBrokerClosed
	}
	if r.conn != nil && !r.conn.IsClosed() {
		return r.conn, nil
	}

	if r.reconnectAttempts > 0 {
		delay := backoff.Exponential(reconnectBase, r.reconnectAttempts-1)
		if delay > reconnectCap {
			delay = reconnectCap
		}
		if elapsed := time.Since(r.lastReconnectAttempt); elapsed < delay {
			return nil, fmt.Errorf("%w: next attempt in %s", ErrReconnectThrottled, delay-elapsed)
		}
	}

	r.lastReconnectAttempt = time.Now()
	conn, err := r.dial(r.url)
	if err != nil {
		r.reconnectAttempts++
		r.logger.Error("rabbitmq dial failed",
			"event", "rabbitmq_dial_failed",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"attempt", r.reconnectAttempts,
			"error", err.Error(),
		)
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	if r.reconnectAttempts > 0 {
		r.logger.Info("rabbitmq reconnected",
			"event", "rabbitmq_reconnected",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"attempts", r.reconnectAttempts,
		)
	}
	r.reconnectAttempts = 0
	r.conn = conn
	r.publisher = nil
	return conn, nil
}

// publishChannel returns the confirm-mode channel, reopening it when it or
// its connection closed. Callers hold r.mu.
func (r *RabbitMQ) publishChannel() (*amqp.Channel, error) {
	conn, err := r.connection()
	if err != nil {
		return nil, err
	}
	if r.publisher != nil && !r.publisher.IsClosed() {
		return r.publisher, nil
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open rabbitmq publish channel: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("enable publisher confirms: %w", err)
	}
	r.publisher = ch
	return ch, nil
}

func (r *RabbitMQ) openChannel() (*amqp.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, err := r.connection()
	if err != nil {
		return nil, err
	}
	return conn.Channel()
}

func retryQueueArgs(queue string) amqp.Table {
	return amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": queue,
	}
}

// Declare creates durable topic exchanges, durable queues with their
// dead-letter arguments, a retry delay queue per queue, and bindings.
// Declarations are idempotent.
func (r *RabbitMQ) Declare(_ context.Context, topology Topology) error {
	ch, err := r.openChannel()
	if err != nil {
		return fmt.Errorf("open rabbitmq declare channel: %w", err)
	}
	defer ch.Close()

	for _, exchange := range topology.Exchanges {
		kind := exchange.Kind
		if kind == "" {
			kind = amqp.ExchangeTopic
		}
		if err := ch.ExchangeDeclare(exchange.Name, kind, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", exchange.Name, err)
		}
	}

	for _, queue := range topology.Queues {
		args := amqp.Table{}
		if queue.DeadLetterExchange != "" {
			args["x-dead-letter-exchange"] = queue.DeadLetterExchange
			if queue.DeadLetterRoutingKey != "" {
				args["x-dead-letter-routing-key"] = queue.DeadLetterRoutingKey
			}
		}
		if _, err := ch.QueueDeclare(queue.Name, true, false, false, false, args); err != nil {
			return fmt.Errorf("declare queue %s: %w", queue.Name, err)
		}
		retry := RetryQueueName(queue.Name)
		if _, err := ch.QueueDeclare(retry, true, false, false, false, retryQueueArgs(queue.Name)); err != nil {
			return fmt.Errorf("declare queue %s: %w", retry, err)
		}
	}

	for _, binding := range topology.Bindings {
		if err := ch.QueueBind(binding.Queue, binding.RoutingKey, binding.Exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s to %s/%s: %w", binding.Queue, binding.Exchange, binding.RoutingKey, err)
		}
	}

	r.logger.Info("rabbitmq topology declared",
		"event", "rabbitmq_topology_declared",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"exchanges", len(topology.Exchanges),
		"queues", len(topology.Queues),
		"bindings", len(topology.Bindings),
	)
	return nil
}

// Publish sends a persistent message and waits for the broker confirm.
func (r *RabbitMQ) Publish(ctx context.Context, msg Message) error {
	return r.publish(ctx, msg, 0)
}

// publish sends msg. A positive ttl becomes the per-message expiration.
func (r *RabbitMQ) publish(ctx context.Context, msg Message, ttl time.Duration) error {
	headers := injectTrace(ctx, msg.Headers)
	timestamp := msg.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}
	publishing := amqp.Publishing{
		Headers:      amqp.Table(headers),
		ContentType:  msg.ContentType,
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.MessageID,
		Type:         msg.Type,
		Timestamp:    timestamp,
		Body:         msg.Body,
	}
	if ttl > 0 {
		publishing.Expiration = strconv.FormatInt(ttl.Milliseconds(), 10)
	}

	r.mu.Lock()
	ch, err := r.publishChannel()
	if err != nil {
		r.mu.Unlock()
		return fmt.Errorf("publish %s/%s: %w", msg.Exchange, msg.RoutingKey, err)
	}
	confirmation, err := ch.PublishWithDeferredConfirmWithContext(ctx, msg.Exchange, msg.RoutingKey, false, false, publishing)
	if err != nil && ch.IsClosed() {
		r.publisher = nil
	}
	r.mu.Unlock()
	if err != nil {
		return fmt.Errorf("publish %s/%s: %w", msg.Exchange, msg.RoutingKey, err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, r.confirmTimeout)
	defer cancel()
	acked, err := confirmation.WaitContext(waitCtx)
	if err != nil {
		return fmt.Errorf("await publish confirm for %s: %w", msg.MessageID, err)
	}
	if !acked {
		return fmt.Errorf("%w: %s", ErrPublishNacked, msg.MessageID)
	}
	return nil
}

// Consume runs a pool of workers over one queue with manual acknowledgment.
// Cancelling ctx cancels the broker consumer; prefetched deliveries are still
// handed to workers before the channel closes. When the broker closes the
// channel or connection, Consume resubscribes with backoff until ctx is done.
// A queue the broker does not know is returned as an error.
func (r *RabbitMQ) Consume(ctx context.Context, queue string, opts ConsumeOptions, handler Handler) error {
	attempt := 0
	for {
		subscribed, err := r.consumeOnce(ctx, queue, opts, handler)
		if err == nil || ctx.Err() != nil {
			return nil
		}
		var amqpErr *amqp.Error
		if errors.As(err, &amqpErr) && amqpErr.Code == amqp.NotFound {
			return err
		}
		if errors.Is(err, ErrBrokerClosed) {
			return err
		}
		if subscribed {
			attempt = 0
		}
		attempt++
		delay := r.resubscribe.Delay(attempt)
		r.logger.Warn("rabbitmq consumer interrupted, resubscribing",
			"event", "rabbitmq_consumer_resubscribe",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"queue", queue,
			"attempt", attempt,
			"delay", delay.String(),
			"error", err.Error(),
		)
		if err := backoff.Sleep(ctx, delay); err != nil {
			return nil
		}
	}
}

// consumeOnce serves one subscription. subscribed reports whether the broker
// accepted the consumer before the error.
func (r *RabbitMQ) consumeOnce(ctx context.Context, queue string, opts ConsumeOptions, handler Handler) (bool, error) {
	ch, err := r.openChannel()
	if err != nil {
		return false, fmt.Errorf("open rabbitmq consume channel: %w", err)
	}
	defer ch.Close()

	prefetch := opts.Prefetch
	if prefetch <= 0 {
		prefetch = opts.workers()
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		return false, fmt.Errorf("set qos on %s: %w", queue, err)
	}

	consumerTag := queue + "." + uuid.NewString()
	deliveries, err := ch.Consume(queue, consumerTag, false, false, false, false, nil)
	if err != nil {
		return false, fmt.Errorf("consume %s: %w", queue, err)
	}

	stopped := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			if err := ch.Cancel(consumerTag, false); err != nil {
				r.logger.Warn("rabbitmq consumer cancel failed",
					"event", "rabbitmq_consumer_cancel_failed",
					"module", "internal/platform/messaging",
					"layer", "platform",
					"queue", queue,
					"error", err.Error(),
				)
			}
		case <-stopped:
		}
	}()

	handlerCtx := context.WithoutCancel(ctx)
	var wg sync.WaitGroup
	for i := 0; i < opts.workers(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for raw := range deliveries {
				r.dispatch(handlerCtx, queue, raw, handler)
			}
		}()
	}
	wg.Wait()
	close(stopped)

	if ctx.Err() != nil {
		r.logger.Info("rabbitmq consumer drained",
			"event", "rabbitmq_consumer_drained",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"queue", queue,
		)
		return true, nil
	}
	return true, fmt.Errorf("%w: %s", ErrConsumerClosed, queue)
}

func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	var errs []error
	if r.publisher != nil && !r.publisher.IsClosed() {
		errs = append(errs, r.publisher.Close())
	}
	if r.conn != nil && !r.conn.IsClosed() {
		errs = append(errs, r.conn.Close())
	}
	return errors.Join(errs...)
}

func (r *RabbitMQ) dispatch(ctx context.Context, queue string, raw amqp.Delivery, handler Handler) {
	headers := map[string]any(raw.Headers)
	msg := Message{
		Exchange:    raw.Exchange,
		RoutingKey:  raw.RoutingKey,
		MessageID:   raw.MessageId,
		Type:        raw.Type,
		ContentType: raw.ContentType,
		Body:        raw.Body,
		Headers:     headers,
		Timestamp:   raw.Timestamp,
	}
	d := NewDelivery(msg, queue, raw.DeliveryTag, attemptFromHeaders(headers), &rabbitSettler{broker: r, raw: raw})
	d.Redelivered = raw.Redelivered

	handler(extractTrace(ctx, headers), d)

	if !d.Settled() {
		r.logger.Warn("delivery returned unsettled, requeueing",
			"event", "rabbitmq_unsettled_requeue",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"queue", queue,
			"message_id", raw.MessageId,
		)
		if err := raw.Nack(false, true); err != nil {
			r.logger.Error("rabbitmq requeue failed",
				"event", "rabbitmq_requeue_failed",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"queue", queue,
				"message_id", raw.MessageId,
				"error", err.Error(),
			)
		}
	}
}

type rabbitSettler struct {
	broker *RabbitMQ
	raw    amqp.Delivery
}

func (s *rabbitSettler) Ack(*Delivery) error {
	return s.raw.Ack(false)
}

// Retry parks a copy with an incremented attempt header in the queue's retry
// queue, where it expires after delay and dead-letters back to the queue.
// The original is acked once the copy is confirmed. Requeueing with Nack
// would not advance the attempt counter.
func (s *rabbitSettler) Retry(ctx context.Context, d *Delivery, delay time.Duration) error {
	msg := d.Message
	msg.Exchange = ""
	msg.RoutingKey = d.Queue
	if delay > 0 {
		msg.RoutingKey = RetryQueueName(d.Queue)
	}
	msg.Headers = copyHeaders(d.Headers)
	msg.Headers[HeaderAttempt] = int32(d.Attempt + 1)

	if err := s.broker.publish(ctx, msg, delay); err != nil {
		return errors.Join(err, s.raw.Nack(false, true))
	}
	return s.raw.Ack(false)
}

func (s *rabbitSettler) DeadLetter(*Delivery, string) error {
	return s.raw.Reject(false)
}
