// Package inbox makes event consumers idempotent. Each handled event leaves
// a processed-event marker written in the same transaction as the handler's
// state change, so a redelivered event is acknowledged without effect.
package inbox

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"eduweb/internal/shared/events"
)

var (
	// ErrEventIDConflict means an event id was seen before with a different
	// payload. The delivery is poison.
	ErrEventIDConflict = errors.New("event id reused with different payload")
	// ErrNotReady is returned by handlers whose prerequisites have not
	// arrived yet; the delivery is retried.
	ErrNotReady = errors.New("event prerequisites not ready")
)

// Store records processed events per consumer.
type Store interface {
	// ReserveEvent inserts the marker, or reports duplicate when one already
	// exists with the same payload hash. It must join the transaction in ctx.
	ReserveEvent(ctx context.Context, consumer string, eventID string, payloadHash string, at time.Time) (duplicate bool, err error)
}

type poisonError struct {
	err error
}

func (e poisonError) Error() string { return e.err.Error() }
func (e poisonError) Unwrap() error { return e.err }

// Poison marks err as permanent: the delivery goes to the dead-letter queue
// without retries.
func Poison(err error) error {
	if err == nil {
		return nil
	}
	return poisonError{err: err}
}

func IsPoison(err error) bool {
	var p poisonError
	if errors.As(err, &p) {
		return true
	}
	return errors.Is(err, ErrEventIDConflict) ||
		errors.Is(err, events.ErrMalformedEnvelope) ||
		errors.Is(err, events.ErrInvalidPayload) ||
		errors.Is(err, events.ErrUnsupportedVersion) ||
		errors.Is(err, events.ErrUnknownEventType)
}

// PayloadHash fingerprints what an event says, independent of JSON key order
// so a row re-read from jsonb hashes like the original.
func PayloadHash(env events.Envelope) string {
	h := sha256.New()
	h.Write([]byte(env.EventType))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(env.Version)))
	h.Write([]byte{0})

	var data any
	if err := json.Unmarshal(env.Data, &data); err == nil {
		if canonical, err := json.Marshal(data); err == nil {
			h.Write(canonical)
			return hex.EncodeToString(h.Sum(nil))
		}
	}
	h.Write(env.Data)
	return hex.EncodeToString(h.Sum(nil))
}
