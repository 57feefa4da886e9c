package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const memoryQueueCapacity = 4096

// InMemoryBroker is an in-process broker with topic-exchange routing,
// manual settlement, retry and dead-lettering. It backs tests and
// BROKER=memory runs.
type InMemoryBroker struct {
	mu        sync.RWMutex
	exchanges map[string]struct{}
	bindings  map[string][]Binding
	queues    map[string]*memoryQueue

	tags      atomic.Uint64
	closed    chan struct{}
	closeOnce sync.Once
	logger    *slog.Logger
}

type memoryQueue struct {
	decl    Queue
	entries chan memoryEntry
}

type memoryEntry struct {
	msg         Message
	attempt     int
	redelivered bool
}

func NewInMemoryBroker(logger *slog.Logger) *InMemoryBroker {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemoryBroker{
		exchanges: make(map[string]struct{}),
		bindings:  make(map[string][]Binding),
		queues:    make(map[string]*memoryQueue),
		closed:    make(chan struct{}),
		logger:    logger,
	}
}

func (b *InMemoryBroker) Declare(_ context.Context, topology Topology) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, exchange := range topology.Exchanges {
		b.exchanges[exchange.Name] = struct{}{}
	}
	for _, queue := range topology.Queues {
		if existing, ok := b.queues[queue.Name]; ok {
			existing.decl = queue
			continue
		}
		b.queues[queue.Name] = &memoryQueue{
			decl:    queue,
			entries: make(chan memoryEntry, memoryQueueCapacity),
		}
	}
	for _, binding := range topology.Bindings {
		if _, ok := b.exchanges[binding.Exchange]; !ok {
			return fmt.Errorf("bind %s: %w: %s", binding.Queue, ErrUnknownExchange, binding.Exchange)
		}
		if _, ok := b.queues[binding.Queue]; !ok {
			return fmt.Errorf("bind %s: %w", binding.Queue, ErrUnknownQueue)
		}
		if !containsBinding(b.bindings[binding.Exchange], binding) {
			b.bindings[binding.Exchange] = append(b.bindings[binding.Exchange], binding)
		}
	}
	return nil
}

func (b *InMemoryBroker) Publish(ctx context.Context, msg Message) error {
	if b.isClosed() {
		return ErrBrokerClosed
	}
	msg.Headers = injectTrace(ctx, msg.Headers)

	targets, err := b.route(msg.Exchange, msg.RoutingKey)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		b.logger.Warn("message unroutable",
			"event", "memory_broker_unroutable",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"exchange", msg.Exchange,
			"routing_key", msg.RoutingKey,
			"message_id", msg.MessageID,
		)
		return nil
	}

	entry := memoryEntry{msg: msg, attempt: attemptFromHeaders(msg.Headers)}
	for _, queue := range targets {
		if err := b.enqueue(ctx, queue, entry); err != nil {
			return err
		}
	}
	return nil
}

func (b *InMemoryBroker) Consume(ctx context.Context, queue string, opts ConsumeOptions, handler Handler) error {
	b.mu.RLock()
	q, ok := b.queues[queue]
	b.mu.RUnlock()
	if !ok {
		return fmt.Errorf("consume %s: %w", queue, ErrUnknownQueue)
	}

	handlerCtx := context.WithoutCancel(ctx)
	var wg sync.WaitGroup
	for i := 0; i < opts.workers(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if ctx.Err() != nil {
					return
				}
				select {
				case <-ctx.Done():
					return
				case <-b.closed:
					return
				case entry := <-q.entries:
					b.dispatch(handlerCtx, q, entry, handler)
				}
			}
		}()
	}
	wg.Wait()
	return nil
}

func (b *InMemoryBroker) Close() error {
	b.closeOnce.Do(func() { close(b.closed) })
	return nil
}

// Depth reports messages waiting in queue.
func (b *InMemoryBroker) Depth(queue string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if q, ok := b.queues[queue]; ok {
		return len(q.entries)
	}
	return 0
}

// Drain removes and returns every message waiting in queue.
func (b *InMemoryBroker) Drain(queue string) []Message {
	b.mu.RLock()
	q, ok := b.queues[queue]
	b.mu.RUnlock()
	if !ok {
		return nil
	}

	var out []Message
	for {
		select {
		case entry := <-q.entries:
			out = append(out, entry.msg)
		default:
			return out
		}
	}
}

func (b *InMemoryBroker) dispatch(ctx context.Context, q *memoryQueue, entry memoryEntry, handler Handler) {
	d := NewDelivery(entry.msg, q.decl.Name, b.tags.Add(1), entry.attempt, memorySettler{broker: b, queue: q})
	d.Redelivered = entry.redelivered

	handler(extractTrace(ctx, entry.msg.Headers), d)

	if !d.Settled() {
		b.logger.Warn("delivery returned unsettled, requeueing",
			"event", "memory_broker_unsettled_requeue",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"queue", q.decl.Name,
			"message_id", entry.msg.MessageID,
		)
		entry.redelivered = true
		_ = b.enqueue(context.Background(), q, entry)
	}
}

func (b *InMemoryBroker) route(exchange string, key string) ([]*memoryQueue, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if exchange == "" {
		if q, ok := b.queues[key]; ok {
			return []*memoryQueue{q}, nil
		}
		return nil, nil
	}
	if _, ok := b.exchanges[exchange]; !ok {
		return nil, fmt.Errorf("publish: %w: %s", ErrUnknownExchange, exchange)
	}

	seen := make(map[string]struct{})
	var targets []*memoryQueue
	for _, binding := range b.bindings[exchange] {
		if _, dup := seen[binding.Queue]; dup {
			continue
		}
		if TopicMatches(binding.RoutingKey, key) {
			seen[binding.Queue] = struct{}{}
			targets = append(targets, b.queues[binding.Queue])
		}
	}
	return targets, nil
}

func (b *InMemoryBroker) enqueue(ctx context.Context, q *memoryQueue, entry memoryEntry) error {
	select {
	case <-b.closed:
		return ErrBrokerClosed
	default:
	}
	select {
	case q.entries <- entry:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-b.closed:
		return ErrBrokerClosed
	}
}

func (b *InMemoryBroker) isClosed() bool {
	select {
	case <-b.closed:
		return true
	default:
		return false
	}
}

type memorySettler struct {
	broker *InMemoryBroker
	queue  *memoryQueue
}

func (s memorySettler) Ack(*Delivery) error {
	return nil
}

func (s memorySettler) Retry(ctx context.Context, d *Delivery, delay time.Duration) error {
	msg := d.Message
	msg.Headers = copyHeaders(d.Headers)
	msg.Headers[HeaderAttempt] = int32(d.Attempt + 1)
	entry := memoryEntry{msg: msg, attempt: d.Attempt + 1, redelivered: true}

	if delay <= 0 {
		return s.broker.enqueue(ctx, s.queue, entry)
	}
	time.AfterFunc(delay, func() {
		_ = s.broker.enqueue(context.Background(), s.queue, entry)
	})
	return nil
}

func (s memorySettler) DeadLetter(d *Delivery, reason string) error {
	decl := s.queue.decl
	if decl.DeadLetterExchange == "" {
		s.broker.logger.Warn("dead-lettered message dropped, queue has no dead-letter exchange",
			"event", "memory_broker_dead_letter_dropped",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"queue", decl.Name,
			"message_id", d.MessageID,
			"reason", reason,
		)
		return nil
	}

	msg := d.Message
	msg.Headers = copyHeaders(d.Headers)
	msg.Headers[HeaderDeathReason] = reason
	key := decl.DeadLetterRoutingKey
	if key == "" {
		key = msg.RoutingKey
	}

	targets, err := s.broker.route(decl.DeadLetterExchange, key)
	if err != nil {
		return err
	}
	for _, target := range targets {
		if err := s.broker.enqueue(context.Background(), target, memoryEntry{msg: msg, attempt: d.Attempt}); err != nil {
			return err
		}
	}
	return nil
}

func containsBinding(items []Binding, target Binding) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
