package messaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopicMatches(t *testing.T) {
	tests := []struct {
		pattern string
		key     string
		want    bool
	}{
		{pattern: "payment.completed", key: "payment.completed", want: true},
		{pattern: "payment.completed", key: "payment.failed", want: false},
		{pattern: "payment.*", key: "payment.completed", want: true},
		{pattern: "payment.*", key: "payment.completed.v2", want: false},
		{pattern: "payment.#", key: "payment", want: true},
		{pattern: "payment.#", key: "payment.completed.v2", want: true},
		{pattern: "#", key: "anything.at.all", want: true},
		{pattern: "#.completed", key: "enrollment.completed", want: true},
		{pattern: "#.completed", key: "enrollment.created", want: false},
		{pattern: "*.created", key: "user-created", want: false},
		{pattern: "set-total-lessons", key: "set-total-lessons", want: true},
		{pattern: "a.*.c", key: "a.b.c", want: true},
		{pattern: "a.*.c", key: "a.c", want: false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TopicMatches(tt.pattern, tt.key), "%s vs %s", tt.pattern, tt.key)
	}
}

func TestDeadLetterQueueName(t *testing.T) {
	assert.Equal(t, "enrollment-service.payment.completed.dlq", DeadLetterQueueName("enrollment-service.payment.completed"))
}

func TestRetryQueueName(t *testing.T) {
	assert.Equal(t, "enrollment-service.payment.completed.retry", RetryQueueName("enrollment-service.payment.completed"))
	assert.NotEqual(t, DeadLetterQueueName("q"), RetryQueueName("q"))
}

func TestRetryQueueArgsRouteBackToQueue(t *testing.T) {
	args := retryQueueArgs("analytics-service.payment.completed")
	assert.Equal(t, "", args["x-dead-letter-exchange"])
	assert.Equal(t, "analytics-service.payment.completed", args["x-dead-letter-routing-key"])
}
