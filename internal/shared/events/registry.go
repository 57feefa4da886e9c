package events

import (
	"errors"
	"fmt"
	"sort"

	contractsv1 "eduweb/contracts/events/v1"
	"eduweb/internal/platform/config"
	"eduweb/internal/platform/messaging"
)

const (
	ServiceAuth       = "auth-service"
	ServiceUser       = "user-service"
	ServiceCourse     = "course-service"
	ServicePayment    = "payment-service"
	ServiceEnrollment = "enrollment-service"
	ServiceAnalytics  = "analytics-service"
)

// Route is one edge set of the choreography: the single producer of an
// event type, where it is published, and who consumes it.
type Route struct {
	EventType  string
	Exchange   string
	RoutingKey string
	Producer   string
	Consumers  []string
	// MaxVersion is the highest envelope version consumers can decode.
	MaxVersion int
}

// Subscription is a consumer's queue for one route.
type Subscription struct {
	Route Route
	Queue string
}

type Registry struct {
	routes             map[string]Route
	deadLetterExchange string
}

// NewRegistry validates routes: one producer per event type, at least one
// consumer, non-empty exchange and routing key, and one queue per consumer
// and routing key.
func NewRegistry(deadLetterExchange string, routes ...Route) (*Registry, error) {
	r := &Registry{
		routes:             make(map[string]Route, len(routes)),
		deadLetterExchange: deadLetterExchange,
	}
	var errs []error
	queues := make(map[string]string)
	for _, route := range routes {
		if _, dup := r.routes[route.EventType]; dup {
			errs = append(errs, fmt.Errorf("event type %s registered twice", route.EventType))
			continue
		}
		if route.EventType == "" || route.Exchange == "" || route.RoutingKey == "" {
			errs = append(errs, fmt.Errorf("route %q needs event type, exchange and routing key", route.EventType))
		}
		if route.Producer == "" {
			errs = append(errs, fmt.Errorf("route %s has no producer", route.EventType))
		}
		if len(route.Consumers) == 0 {
			errs = append(errs, fmt.Errorf("route %s has no consumers", route.EventType))
		}
		for _, consumer := range route.Consumers {
			queue := QueueName(consumer, route)
			if owner, taken := queues[queue]; taken {
				errs = append(errs, fmt.Errorf("queue %s shared by %s and %s", queue, owner, route.EventType))
				continue
			}
			queues[queue] = route.EventType
		}
		if route.MaxVersion < 1 {
			route.MaxVersion = CurrentVersion
		}
		r.routes[route.EventType] = route
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return r, nil
}

// Choreography is the service graph wired with deployment names from t.
func Choreography(t config.Topology) (*Registry, error) {
	return NewRegistry(t.DeadLetterExchange,
		Route{
			EventType:  contractsv1.TypeUserCreated,
			Exchange:   t.AuthUserExchange,
			RoutingKey: t.UserCreatedKey,
			Producer:   ServiceAuth,
			Consumers:  []string{ServiceUser, ServiceAnalytics},
		},
		Route{
			EventType:  contractsv1.TypeUserProfileCompleted,
			Exchange:   t.UserProfileExchange,
			RoutingKey: t.ProfileCompletedKey,
			Producer:   ServiceUser,
			Consumers:  []string{ServiceAuth},
		},
		Route{
			EventType:  contractsv1.TypeCourseTotalLessonsChanged,
			Exchange:   t.EnrollmentCourseExchange,
			RoutingKey: t.SetTotalLessonsKey,
			Producer:   ServiceCourse,
			Consumers:  []string{ServiceEnrollment},
		},
		Route{
			EventType:  contractsv1.TypePaymentCompleted,
			Exchange:   t.PaymentExchange,
			RoutingKey: t.PaymentCompletedKey,
			Producer:   ServicePayment,
			Consumers:  []string{ServiceEnrollment, ServiceAnalytics},
		},
		Route{
			EventType:  contractsv1.TypeEnrollmentCreated,
			Exchange:   t.EnrollmentExchange,
			RoutingKey: t.EnrollmentCreatedKey,
			Producer:   ServiceEnrollment,
			Consumers:  []string{ServiceAnalytics},
		},
		Route{
			EventType:  contractsv1.TypeEnrollmentCompleted,
			Exchange:   t.EnrollmentExchange,
			RoutingKey: t.EnrollmentCompletedKey,
			Producer:   ServiceEnrollment,
			Consumers:  []string{ServiceAnalytics},
		},
		Route{
			EventType:  contractsv1.TypeEnrollmentProgressUpdated,
			Exchange:   t.EnrollmentExchange,
			RoutingKey: t.ProgressUpdatedKey,
			Producer:   ServiceEnrollment,
			Consumers:  []string{ServiceAnalytics},
		},
	)
}

func (r *Registry) Route(eventType string) (Route, bool) {
	route, ok := r.routes[eventType]
	return route, ok
}

// Routes returns every route ordered by event type.
func (r *Registry) Routes() []Route {
	out := make([]Route, 0, len(r.routes))
	for _, route := range r.routes {
		out = append(out, route)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventType < out[j].EventType })
	return out
}

// Produces reports whether service is the registered producer of eventType.
func (r *Registry) Produces(service string, eventType string) bool {
	route, ok := r.routes[eventType]
	return ok && route.Producer == service
}

// Subscriptions lists the queues service consumes from.
func (r *Registry) Subscriptions(service string) []Subscription {
	var out []Subscription
	for _, route := range r.Routes() {
		for _, consumer := range route.Consumers {
			if consumer == service {
				out = append(out, Subscription{Route: route, Queue: QueueName(service, route)})
			}
		}
	}
	return out
}

// CheckVersion rejects envelopes whose type is unknown or whose version is
// outside what consumers decode.
func (r *Registry) CheckVersion(env Envelope) error {
	route, ok := r.routes[env.EventType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEventType, env.EventType)
	}
	if env.Version < 1 || env.Version > route.MaxVersion {
		return fmt.Errorf("%w: %s v%d (max v%d)", ErrUnsupportedVersion, env.EventType, env.Version, route.MaxVersion)
	}
	return nil
}

// Topology derives durable exchanges, one queue per (consumer, route), and a
// dead-letter queue per consumer queue.
func (r *Registry) Topology() messaging.Topology {
	var topology messaging.Topology
	exchanges := map[string]struct{}{}
	addExchange := func(name string) {
		if _, ok := exchanges[name]; ok {
			return
		}
		exchanges[name] = struct{}{}
		topology.Exchanges = append(topology.Exchanges, messaging.Exchange{Name: name, Kind: messaging.ExchangeTopic})
	}

	if r.deadLetterExchange != "" {
		addExchange(r.deadLetterExchange)
	}
	for _, route := range r.Routes() {
		addExchange(route.Exchange)
		for _, consumer := range route.Consumers {
			queue := QueueName(consumer, route)
			topology.Queues = append(topology.Queues, messaging.Queue{
				Name:                 queue,
				DeadLetterExchange:   r.deadLetterExchange,
				DeadLetterRoutingKey: queue,
			})
			topology.Bindings = append(topology.Bindings, messaging.Binding{
				Queue:      queue,
				Exchange:   route.Exchange,
				RoutingKey: route.RoutingKey,
			})
			if r.deadLetterExchange != "" {
				dlq := messaging.DeadLetterQueueName(queue)
				topology.Queues = append(topology.Queues, messaging.Queue{Name: dlq})
				topology.Bindings = append(topology.Bindings, messaging.Binding{
					Queue:      dlq,
					Exchange:   r.deadLetterExchange,
					RoutingKey: queue,
				})
			}
		}
	}
	return topology
}

// QueueName is stable per (consumer, routing key) so redeployments reattach
// to the same durable queue.
func QueueName(consumer string, route Route) string {
	return consumer + "." + route.RoutingKey
}
