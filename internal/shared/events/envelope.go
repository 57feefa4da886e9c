package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	contractsv1 "eduweb/contracts/events/v1"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// CurrentVersion is the envelope version written by producers in this tree.
const CurrentVersion = 1

// Envelope reuses the canonical wire contract.
type Envelope = contractsv1.Envelope

var (
	ErrMalformedEnvelope  = errors.New("malformed event envelope")
	ErrInvalidPayload     = errors.New("invalid event payload")
	ErrUnsupportedVersion = errors.New("unsupported event version")
	ErrUnknownEventType   = errors.New("unknown event type")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// New builds an envelope for a fact that occurred at occurredAt. The event id
// is assigned here and never changes afterwards.
func New(eventType string, source string, partitionKey string, occurredAt time.Time, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		Version:       CurrentVersion,
		OccurredAt:    occurredAt.UTC(),
		SourceService: source,
		PartitionKey:  partitionKey,
		Data:          data,
	}, nil
}

func Encode(env Envelope) ([]byte, error) {
	return json.Marshal(env)
}

// Parse decodes and sanity-checks an envelope read off the wire.
func Parse(body []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if _, err := uuid.Parse(env.EventID); err != nil {
		return Envelope{}, fmt.Errorf("%w: event_id %q is not a uuid", ErrMalformedEnvelope, env.EventID)
	}
	if strings.TrimSpace(env.EventType) == "" {
		return Envelope{}, fmt.Errorf("%w: missing event_type", ErrMalformedEnvelope)
	}
	if env.OccurredAt.IsZero() {
		return Envelope{}, fmt.Errorf("%w: missing occurred_at", ErrMalformedEnvelope)
	}
	if len(env.Data) == 0 {
		return Envelope{}, fmt.Errorf("%w: missing data", ErrMalformedEnvelope)
	}
	return env, nil
}

// Decode unmarshals env.Data into dst and validates it. dst may implement
// Validate() error for rules struct tags cannot express.
func Decode(env Envelope, dst any) error {
	if err := json.Unmarshal(env.Data, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidPayload, env.EventType, err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidPayload, env.EventType, err)
	}
	if checker, ok := dst.(interface{ Validate() error }); ok {
		if err := checker.Validate(); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidPayload, env.EventType, err)
		}
	}
	return nil
}
