package inbox

import (
	"context"
	"time"

	"eduweb/internal/platform/db"
)

type markerKey struct {
	consumer string
	eventID  string
}

type marker struct {
	payloadHash string
	processedAt time.Time
}

// MemoryTable is the in-memory processed-events table, held inside a
// service's db.Memory state.
type MemoryTable struct {
	markers map[markerKey]marker
}

func (t MemoryTable) Clone() MemoryTable {
	out := MemoryTable{markers: make(map[markerKey]marker, len(t.markers))}
	for key, value := range t.markers {
		out.markers[key] = value
	}
	return out
}

func (t MemoryTable) Len() int {
	return len(t.markers)
}

func (t MemoryTable) Has(consumer string, eventID string) bool {
	_, ok := t.markers[markerKey{consumer: consumer, eventID: eventID}]
	return ok
}

type MemoryStore[S db.Snapshot[S]] struct {
	mem   *db.Memory[S]
	table func(*S) *MemoryTable
}

func NewMemoryStore[S db.Snapshot[S]](mem *db.Memory[S], table func(*S) *MemoryTable) MemoryStore[S] {
	return MemoryStore[S]{mem: mem, table: table}
}

func (s MemoryStore[S]) ReserveEvent(ctx context.Context, consumer string, eventID string, payloadHash string, at time.Time) (bool, error) {
	duplicate := false
	err := s.mem.Write(ctx, func(state *S) error {
		table := s.table(state)
		if table.markers == nil {
			table.markers = make(map[markerKey]marker)
		}
		key := markerKey{consumer: consumer, eventID: eventID}
		if existing, ok := table.markers[key]; ok {
			if existing.payloadHash != payloadHash {
				return ErrEventIDConflict
			}
			duplicate = true
			return nil
		}
		table.markers[key] = marker{payloadHash: payloadHash, processedAt: at.UTC()}
		return nil
	})
	return duplicate, err
}

// Processed reports whether consumer has a marker for eventID.
func (s MemoryStore[S]) Processed(ctx context.Context, consumer string, eventID string) bool {
	found := false
	s.mem.Read(ctx, func(state *S) {
		found = s.table(state).Has(consumer, eventID)
	})
	return found
}
