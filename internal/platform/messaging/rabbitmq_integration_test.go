//go:build integration

package messaging

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcrabbit "github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	testRabbitMQImage  = "rabbitmq:3-management-alpine"
	testStartupTimeout = 60 * time.Second
	testDeadline       = 10 * time.Second
)

func startRabbitMQ(t *testing.T) *RabbitMQ {
	t.Helper()
	ctx := context.Background()

	container, err := tcrabbit.Run(ctx,
		testRabbitMQImage,
		testcontainers.WithWaitStrategy(
			wait.ForLog("Server startup complete").WithStartupTimeout(testStartupTimeout),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	url, err := container.AmqpURL(ctx)
	require.NoError(t, err)

	broker, err := DialRabbitMQ(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = broker.Close() })

	require.NoError(t, broker.Declare(ctx, Topology{
		Exchanges: []Exchange{{Name: testExchange, Kind: ExchangeTopic}, {Name: testDLX, Kind: ExchangeTopic}},
		Queues: []Queue{
			{Name: billingQueue, DeadLetterExchange: testDLX, DeadLetterRoutingKey: billingQueue},
			{Name: DeadLetterQueueName(billingQueue)},
		},
		Bindings: []Binding{
			{Queue: billingQueue, Exchange: testExchange, RoutingKey: "orders.placed"},
			{Queue: DeadLetterQueueName(billingQueue), Exchange: testDLX, RoutingKey: billingQueue},
		},
	}))
	return broker
}

type seen struct {
	mu       sync.Mutex
	attempts map[string][]int
}

func (s *seen) add(d *Delivery) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[d.MessageID] = append(s.attempts[d.MessageID], d.Attempt)
}

func (s *seen) get(id string) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.attempts[id]...)
}

func TestRabbitMQRetryThenDeadLetter(t *testing.T) {
	broker := startRabbitMQ(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumed := &seen{attempts: map[string][]int{}}
	go func() {
		_ = broker.Consume(ctx, billingQueue, ConsumeOptions{Workers: 2, Prefetch: 2}, func(ctx context.Context, d *Delivery) {
			consumed.add(d)
			if d.Attempt < 2 {
				_ = d.Retry(ctx, 10*time.Millisecond)
				return
			}
			_ = d.DeadLetter("gave up")
		})
	}()

	dead := make(chan Message, 1)
	go func() {
		_ = broker.Consume(ctx, DeadLetterQueueName(billingQueue), ConsumeOptions{Workers: 1}, func(_ context.Context, d *Delivery) {
			_ = d.Ack()
			dead <- d.Message
		})
	}()

	require.NoError(t, broker.Publish(ctx, Message{
		Exchange:    testExchange,
		RoutingKey:  "orders.placed",
		MessageID:   "order-1",
		Type:        "orders.placed",
		ContentType: "application/json",
		Body:        []byte(`{"id":"order-1"}`),
	}))

	select {
	case msg := <-dead:
		assert.Equal(t, "order-1", msg.MessageID)
		assert.JSONEq(t, `{"id":"order-1"}`, string(msg.Body))
	case <-time.After(testDeadline):
		t.Fatal("message never reached the dead-letter queue")
	}
	assert.Equal(t, []int{1, 2}, consumed.get("order-1"))
}

func TestRabbitMQAckedMessageIsNotRedelivered(t *testing.T) {
	broker := startRabbitMQ(t)
	ctx, cancel := context.WithCancel(context.Background())

	consumed := &seen{attempts: map[string][]int{}}
	done := make(chan error, 1)
	go func() {
		done <- broker.Consume(ctx, billingQueue, ConsumeOptions{Workers: 1}, func(_ context.Context, d *Delivery) {
			consumed.add(d)
			_ = d.Ack()
		})
	}()

	require.NoError(t, broker.Publish(ctx, Message{
		Exchange:   testExchange,
		RoutingKey: "orders.placed",
		MessageID:  "order-2",
		Body:       []byte(`{}`),
	}))
	require.Eventually(t, func() bool { return len(consumed.get("order-2")) == 1 }, testDeadline, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(testDeadline):
		t.Fatal("consumer did not stop")
	}
	assert.Equal(t, []int{1}, consumed.get("order-2"))
}

func TestRabbitMQRetryDoesNotBlockWorker(t *testing.T) {
	broker := startRabbitMQ(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var order []string
	record := func(entry string) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, entry)
	}
	snapshot := func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), order...)
	}

	go func() {
		_ = broker.Consume(ctx, billingQueue, ConsumeOptions{Workers: 1, Prefetch: 1}, func(ctx context.Context, d *Delivery) {
			record(d.MessageID)
			if d.MessageID == "slow" && d.Attempt == 1 {
				_ = d.Retry(ctx, 2*time.Second)
				return
			}
			_ = d.Ack()
		})
	}()

	for _, id := range []string{"slow", "fast"} {
		require.NoError(t, broker.Publish(ctx, Message{
			Exchange:   testExchange,
			RoutingKey: "orders.placed",
			MessageID:  id,
			Body:       []byte(`{}`),
		}))
	}

	// The retry delay is spent in the retry queue, not in the only worker.
	require.Eventually(t, func() bool { return len(snapshot()) >= 2 }, time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return len(snapshot()) == 3 }, testDeadline, 20*time.Millisecond)
	assert.Equal(t, []string{"slow", "fast", "slow"}, snapshot())
}

func TestRabbitMQPublishAfterConnectionLoss(t *testing.T) {
	broker := startRabbitMQ(t)
	ctx := context.Background()

	broker.mu.Lock()
	require.NoError(t, broker.conn.Close())
	broker.mu.Unlock()

	require.Eventually(t, func() bool {
		return broker.Publish(ctx, Message{
			Exchange:   testExchange,
			RoutingKey: "orders.placed",
			MessageID:  "after-reconnect",
			Body:       []byte(`{}`),
		}) == nil
	}, testDeadline, 100*time.Millisecond)

	received := make(chan string, 1)
	consumeCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		_ = broker.Consume(consumeCtx, billingQueue, ConsumeOptions{Workers: 1}, func(_ context.Context, d *Delivery) {
			_ = d.Ack()
			received <- d.MessageID
		})
	}()

	select {
	case id := <-received:
		assert.Equal(t, "after-reconnect", id)
	case <-time.After(testDeadline):
		t.Fatal("message published after reconnect never arrived")
	}
}
