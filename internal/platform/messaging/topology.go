package messaging

import "strings"

const ExchangeTopic = "topic"

type Exchange struct {
	Name string
	Kind string
}

// Queue is declared durable; when DeadLetterExchange is set, rejected
// messages are re-routed there with DeadLetterRoutingKey.
type Queue struct {
	Name                 string
	DeadLetterExchange   string
	DeadLetterRoutingKey string
}

type Binding struct {
	Queue      string
	Exchange   string
	RoutingKey string
}

type Topology struct {
	Exchanges []Exchange
	Queues    []Queue
	Bindings  []Binding
}

// DeadLetterQueueName is the holding queue paired with queue.
func DeadLetterQueueName(queue string) string {
	return queue + ".dlq"
}

// RetryQueueName is the delay queue paired with queue. Messages wait there
// for their per-message TTL and are dead-lettered back to queue.
func RetryQueueName(queue string) string {
	return queue + ".retry"
}

// TopicMatches applies AMQP topic semantics: words are dot separated,
// "*" matches exactly one word and "#" matches zero or more.
func TopicMatches(pattern string, key string) bool {
	return matchWords(strings.Split(pattern, "."), strings.Split(key, "."))
}

func matchWords(pattern []string, key []string) bool {
	for len(pattern) > 0 {
		head := pattern[0]
		if head == "#" {
			rest := pattern[1:]
			if len(rest) == 0 {
				return true
			}
			for i := 0; i <= len(key); i++ {
				if matchWords(rest, key[i:]) {
					return true
				}
			}
			return false
		}
		if len(key) == 0 {
			return false
		}
		if head != "*" && head != key[0] {
			return false
		}
		pattern = pattern[1:]
		key = key[1:]
	}
	return len(key) == 0
}
