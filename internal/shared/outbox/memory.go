package outbox

import (
	"bytes"
	"context"
	"sort"
	"time"

	"eduweb/internal/platform/db"
)

// MemoryTable is the in-memory outbox table. It lives inside a service's
// db.Memory state so appends roll back with the rest of a failed transaction.
type MemoryTable struct {
	rows map[string]Message
}

func (t MemoryTable) Clone() MemoryTable {
	out := MemoryTable{rows: make(map[string]Message, len(t.rows))}
	for id, row := range t.rows {
		row.Payload = append([]byte(nil), row.Payload...)
		if row.SentAt != nil {
			sent := *row.SentAt
			row.SentAt = &sent
		}
		out.rows[id] = row
	}
	return out
}

// Messages returns every row ordered by creation time.
func (t MemoryTable) Messages() []Message {
	out := make([]Message, 0, len(t.rows))
	for _, row := range t.rows {
		out = append(out, row)
	}
	sortMessages(out)
	return out
}

func (t *MemoryTable) append(msg Message) error {
	if t.rows == nil {
		t.rows = make(map[string]Message)
	}
	if existing, ok := t.rows[msg.ID]; ok {
		if !bytes.Equal(existing.Payload, msg.Payload) {
			return ErrConflict
		}
		return nil
	}
	msg.Payload = append([]byte(nil), msg.Payload...)
	t.rows[msg.ID] = msg
	return nil
}

func (t *MemoryTable) update(id string, fn func(*Message)) error {
	row, ok := t.rows[id]
	if !ok {
		return ErrNotFound
	}
	fn(&row)
	t.rows[id] = row
	return nil
}

// MemoryStore adapts the MemoryTable inside state S to Store.
type MemoryStore[S db.Snapshot[S]] struct {
	mem   *db.Memory[S]
	table func(*S) *MemoryTable
}

func NewMemoryStore[S db.Snapshot[S]](mem *db.Memory[S], table func(*S) *MemoryTable) MemoryStore[S] {
	return MemoryStore[S]{mem: mem, table: table}
}

func (s MemoryStore[S]) AppendOutbox(ctx context.Context, msg Message) error {
	return s.mem.Write(ctx, func(state *S) error {
		return s.table(state).append(msg)
	})
}

func (s MemoryStore[S]) ListDueOutbox(ctx context.Context, now time.Time, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 100
	}
	var due []Message
	s.mem.Read(ctx, func(state *S) {
		for _, row := range s.table(state).rows {
			if row.Status == StatusPending && !row.NextAttemptAt.After(now) {
				row.Payload = append([]byte(nil), row.Payload...)
				due = append(due, row)
			}
		}
	})
	sortMessages(due)
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (s MemoryStore[S]) MarkOutboxSent(ctx context.Context, id string, at time.Time) error {
	return s.mem.Write(ctx, func(state *S) error {
		return s.table(state).update(id, func(row *Message) {
			sent := at.UTC()
			row.Status = StatusSent
			row.SentAt = &sent
		})
	})
}

func (s MemoryStore[S]) MarkOutboxRetry(ctx context.Context, id string, attempts int, next time.Time, lastErr string) error {
	return s.mem.Write(ctx, func(state *S) error {
		return s.table(state).update(id, func(row *Message) {
			row.Attempts = attempts
			row.NextAttemptAt = next.UTC()
			row.LastError = lastErr
		})
	})
}

func (s MemoryStore[S]) MarkOutboxFailed(ctx context.Context, id string, attempts int, lastErr string) error {
	return s.mem.Write(ctx, func(state *S) error {
		return s.table(state).update(id, func(row *Message) {
			row.Status = StatusFailed
			row.Attempts = attempts
			row.LastError = lastErr
		})
	})
}

// Messages snapshots the table, mainly for tests.
func (s MemoryStore[S]) Messages(ctx context.Context) []Message {
	var out []Message
	s.mem.Read(ctx, func(state *S) {
		out = s.table(state).Messages()
	})
	return out
}

func sortMessages(items []Message) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
}
