//go:build integration

package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"eduweb/internal/platform/backoff"
	"eduweb/internal/platform/db"
	"eduweb/internal/platform/db/dbtest"
	"eduweb/internal/shared/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const courseOutboxTable = "course_outbox"

func TestPostgresOutboxLifecycle(t *testing.T) {
	gdb := dbtest.Start(t)
	f := newFixture(t)
	store := NewPostgresStore(gdb, courseOutboxTable, nil)
	tx := db.Transactor{DB: gdb}
	ctx := context.Background()
	p := Publisher{
		Service:     events.ServiceCourse,
		Registry:    f.registry,
		Broker:      f.sender,
		Outbox:      store,
		Clock:       f.clock,
		GracePeriod: 5 * time.Second,
	}
	relay := Relay{
		Service:     events.ServiceCourse,
		Registry:    f.registry,
		Broker:      f.sender,
		Outbox:      store,
		Clock:       f.clock,
		MaxAttempts: 3,
		Backoff:     backoff.Policy{Base: time.Second, Max: time.Minute},
	}

	boom := errors.New("state write failed")
	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, p.Stage(ctx, lessonsChanged(t, 1)))
		return boom
	})
	require.ErrorIs(t, err, boom)
	f.clock.Advance(time.Minute)
	due, err := store.ListDueOutbox(ctx, f.clock.Now(), 10)
	require.NoError(t, err)
	assert.Empty(t, due, "rolled back stage must leave no row")

	first := lessonsChanged(t, 2)
	second := lessonsChanged(t, 3)
	require.NoError(t, tx.WithinTx(ctx, func(ctx context.Context) error {
		return p.Stage(ctx, first)
	}))
	f.clock.Advance(time.Second)
	require.NoError(t, tx.WithinTx(ctx, func(ctx context.Context) error {
		return p.Stage(ctx, second)
	}))

	due, err = store.ListDueOutbox(ctx, f.clock.Now(), 10)
	require.NoError(t, err)
	assert.Empty(t, due, "rows are not due inside the grace period")

	f.clock.Advance(4 * time.Second)
	due, err = store.ListDueOutbox(ctx, f.clock.Now(), 10)
	require.NoError(t, err)
	require.Len(t, due, 1, "only the first row is past its grace period")
	assert.Equal(t, first.EventID, due[0].ID)

	f.clock.Advance(time.Minute)
	due, err = store.ListDueOutbox(ctx, f.clock.Now(), 1)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, first.EventID, due[0].ID, "due rows come oldest first")

	result, err := relay.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, RelayResult{Processed: 2, Published: 2}, result)
	due, err = store.ListDueOutbox(ctx, f.clock.Now(), 10)
	require.NoError(t, err)
	assert.Empty(t, due, "sent rows are never due again")
}

func TestPostgresAppendComparesPayloadAfterJSONB(t *testing.T) {
	gdb := dbtest.Start(t)
	store := NewPostgresStore(gdb, courseOutboxTable, nil)
	ctx := context.Background()
	now := time.Now().UTC()

	msg, err := NewMessage(lessonsChanged(t, 5), now, 0)
	require.NoError(t, err)
	require.NoError(t, store.AppendOutbox(ctx, msg))

	due, err := store.ListDueOutbox(ctx, now.Add(time.Second), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.NotEqual(t, string(msg.Payload), string(due[0].Payload), "jsonb rewrites the stored document")

	// Replaying the original bytes is the same message.
	require.NoError(t, store.AppendOutbox(ctx, msg))

	changed := msg
	changed.Payload = []byte(`{"event_id":"` + msg.ID + `","data":{"total_lessons":6}}`)
	require.ErrorIs(t, store.AppendOutbox(ctx, changed), ErrConflict)

	require.NoError(t, store.MarkOutboxRetry(ctx, msg.ID, 1, now.Add(time.Hour), "broker unavailable"))
	due, err = store.ListDueOutbox(ctx, now.Add(time.Minute), 10)
	require.NoError(t, err)
	assert.Empty(t, due)
	require.NoError(t, store.MarkOutboxFailed(ctx, msg.ID, 2, "gave up"))
	due, err = store.ListDueOutbox(ctx, now.Add(2*time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, due, "failed rows stay parked")

	require.ErrorIs(t, store.MarkOutboxSent(ctx, "missing", now), ErrNotFound)
}
