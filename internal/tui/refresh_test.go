package tui

import (
	"testing"
	"time"
)

func TestScheduler_DefaultInterval(t *testing.T) {
	if got := NewScheduler(0).Interval(); got != DefaultRefreshInterval {
		t.Errorf("Interval = %v, want %v", got, DefaultRefreshInterval)
	}
	if got := NewScheduler(5 * time.Second).Interval(); got != 5*time.Second {
		t.Errorf("Interval = %v, want 5s", got)
	}
}

func TestScheduler_Handle(t *testing.T) {
	s := NewScheduler(time.Second)

	if fire, next := s.Handle(refreshTickMsg{gen: s.gen}); fire || next != nil {
		t.Error("stopped scheduler fired")
	}

	if s.Start() == nil {
		t.Fatal("Start returned no tick")
	}
	fire, next := s.Handle(refreshTickMsg{gen: s.gen})
	if !fire || next == nil {
		t.Fatalf("Handle = (%v, %v), want fire and a next tick", fire, next != nil)
	}

	old := s.gen
	s.Stop()
	if fire, next := s.Handle(refreshTickMsg{gen: old}); fire || next != nil {
		t.Error("tick after Stop fired")
	}
}

func TestScheduler_RestartIgnoresOldTicks(t *testing.T) {
	s := NewScheduler(time.Second)
	s.Start()
	stale := refreshTickMsg{gen: s.gen}
	s.Stop()
	s.Start()

	if fire, _ := s.Handle(stale); fire {
		t.Error("tick from a previous run fired")
	}
	if fire, _ := s.Handle(refreshTickMsg{gen: s.gen}); !fire {
		t.Error("current tick did not fire")
	}
}

func TestScheduler_Toggle(t *testing.T) {
	s := NewScheduler(time.Second)
	if s.Toggle() == nil || !s.Running() {
		t.Fatal("Toggle did not start the scheduler")
	}
	if s.Toggle() != nil || s.Running() {
		t.Fatal("Toggle did not stop the scheduler")
	}
}

// A refresh tick on a frame that is loading must not start a second load.
func TestScheduler_TickDuringLoad(t *testing.T) {
	src := newFakeSource()
	m := New(Options{Source: src, RefreshInterval: time.Second, AutoRefresh: true})
	defer m.engine.Close()

	load := m.engine.Reload()
	m.scheduler.Start()
	updated, _ := m.Update(refreshTickMsg{gen: m.scheduler.gen})
	m = updated.(Model)

	settle(t, m.engine, load)
	if n := src.callCount("RecentPipelines"); n != 1 {
		t.Errorf("RecentPipelines called %d times, want 1", n)
	}
}
