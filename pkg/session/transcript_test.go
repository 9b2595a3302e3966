package session

import (
	"testing"
	"time"
)

func TestTurn_FlushProducesOrderedEntries(t *testing.T) {
	var tr turn
	tr.appendInput("are you ")
	tr.appendInput("awake?")
	tr.appendOutput("Yes, ")
	tr.appendOutput("wide awake.")

	now := time.Now()
	entries := tr.flush(now)

	if len(entries) != 2 {
		t.Fatalf("entries: got %d, want 2", len(entries))
	}
	if entries[0].Role != RoleDriver || entries[0].Text != "are you awake?" {
		t.Errorf("driver entry: got %q/%q", entries[0].Role, entries[0].Text)
	}
	if entries[1].Role != RoleAgent || entries[1].Text != "Yes, wide awake." {
		t.Errorf("agent entry: got %q/%q", entries[1].Role, entries[1].Text)
	}
	for _, e := range entries {
		if e.ID == "" {
			t.Error("entry missing id")
		}
		if !e.Time.Equal(now) {
			t.Errorf("entry time: got %v, want %v", e.Time, now)
		}
	}
}

func TestTurn_BlankOnlyFlushProducesNothing(t *testing.T) {
	var tr turn
	tr.appendInput("   \n\t ")
	tr.appendOutput("  ")

	if entries := tr.flush(time.Now()); len(entries) != 0 {
		t.Errorf("blank turn produced %d entries", len(entries))
	}
}

func TestTurn_FlushResetsAccumulators(t *testing.T) {
	var tr turn
	tr.appendInput("first")
	tr.flush(time.Now())

	tr.appendOutput("second")
	entries := tr.flush(time.Now())

	if len(entries) != 1 {
		t.Fatalf("entries: got %d, want 1", len(entries))
	}
	if entries[0].Role != RoleAgent || entries[0].Text != "second" {
		t.Errorf("entry: got %q/%q, want agent/second", entries[0].Role, entries[0].Text)
	}
}

func TestTurn_OneSidedFlush(t *testing.T) {
	var tr turn
	tr.appendOutput("agent only")

	entries := tr.flush(time.Now())
	if len(entries) != 1 {
		t.Fatalf("entries: got %d, want 1", len(entries))
	}
	if entries[0].Role != RoleAgent {
		t.Errorf("role: got %q, want agent", entries[0].Role)
	}
}
