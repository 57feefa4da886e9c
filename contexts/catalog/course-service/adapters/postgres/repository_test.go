package postgresadapter

import (
	"testing"
	"time"
)

func TestLaterOfNeverMovesBackwards(t *testing.T) {
	locked := time.Date(2026, time.April, 2, 9, 0, 5, 0, time.UTC)
	early := locked.Add(-time.Second)
	late := locked.Add(time.Second)

	if got := laterOf(locked, early); !got.Equal(locked) {
		t.Fatalf("expected stored %v to win over stale %v, got %v", locked, early, got)
	}
	if got := laterOf(locked, late); !got.Equal(late) {
		t.Fatalf("expected %v, got %v", late, got)
	}
}
