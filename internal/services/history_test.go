package services

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestRunHistoryAddGetList(t *testing.T) {
	h := NewRunHistory(time.Hour, 10, zap.NewNop())
	defer h.Stop()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	h.Add(RunReport{ID: "a", State: StateDone, StartedAt: base})
	h.Add(RunReport{ID: "b", State: StateAborted, StartedAt: base.Add(time.Minute)})

	if r, ok := h.Get("a"); !ok || r.State != StateDone {
		t.Fatalf("expected report a, got %+v", r)
	}
	if _, ok := h.Get("missing"); ok {
		t.Fatalf("unexpected report")
	}

	list := h.List()
	if len(list) != 2 || list[0].ID != "b" {
		t.Fatalf("expected newest first, got %+v", list)
	}

	stats := h.GetStats()
	if stats["succeeded"] != 1 || stats["aborted"] != 1 {
		t.Fatalf("unexpected stats %v", stats)
	}
}

func TestRunHistoryEvictsAndExpires(t *testing.T) {
	h := NewRunHistory(time.Hour, 2, zap.NewNop())
	defer h.Stop()

	h.Add(RunReport{ID: "first"})
	time.Sleep(time.Millisecond)
	h.Add(RunReport{ID: "second"})
	time.Sleep(time.Millisecond)
	h.Add(RunReport{ID: "third"})

	if _, ok := h.Get("first"); ok {
		t.Fatalf("oldest report should be evicted")
	}
	if len(h.List()) != 2 {
		t.Fatalf("expected two reports, got %d", len(h.List()))
	}

	expiring := NewRunHistory(-time.Second, 10, zap.NewNop())
	defer expiring.Stop()
	expiring.Add(RunReport{ID: "stale"})
	if _, ok := expiring.Get("stale"); ok {
		t.Fatalf("expired report should not be returned")
	}
}
