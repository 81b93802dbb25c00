package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// DefaultRefreshInterval is used when no positive interval is configured.
const DefaultRefreshInterval = 30 * time.Second

type refreshTickMsg struct {
	gen int
}

// Scheduler emits periodic refresh ticks. Each Start or Stop bumps the
// generation so that ticks scheduled earlier are ignored when they arrive.
type Scheduler struct {
	interval time.Duration
	gen      int
	running  bool
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Scheduler{interval: interval}
}

// Interval returns the tick period.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Running reports whether ticks are being scheduled.
func (s *Scheduler) Running() bool {
	return s.running
}

// Start begins ticking and returns the first tick command.
func (s *Scheduler) Start() tea.Cmd {
	s.gen++
	s.running = true
	return s.tick()
}

// Stop invalidates any pending tick.
func (s *Scheduler) Stop() {
	s.gen++
	s.running = false
}

// Toggle flips between running and stopped.
func (s *Scheduler) Toggle() tea.Cmd {
	if s.running {
		s.Stop()
		return nil
	}
	return s.Start()
}

// Handle reports whether a tick should trigger a refresh and returns the
// command for the next tick. Ticks from an older generation yield nothing.
func (s *Scheduler) Handle(msg refreshTickMsg) (bool, tea.Cmd) {
	if !s.running || msg.gen != s.gen {
		return false, nil
	}
	return true, s.tick()
}

func (s *Scheduler) tick() tea.Cmd {
	gen := s.gen
	return tea.Tick(s.interval, func(time.Time) tea.Msg {
		return refreshTickMsg{gen: gen}
	})
}
