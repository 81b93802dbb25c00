package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	m := New(Options{Source: newFakeSource(), MaxPipelines: 20})
	t.Cleanup(m.engine.Close)
	settle(t, m.engine, m.engine.Reload())
	return m
}

// press sends a key and feeds any resulting load back into the model. It
// reports whether the key asked the program to quit.
func press(t *testing.T, m Model, k tea.KeyMsg) (Model, bool) {
	t.Helper()
	next, cmd := m.Update(k)
	m = next.(Model)
	for i := 0; cmd != nil; i++ {
		if i > 10 {
			t.Fatal("commands did not settle")
		}
		msg := cmd()
		if _, ok := msg.(tea.QuitMsg); ok {
			return m, true
		}
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m, false
}

var (
	keyQ     = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyCtrlC = tea.KeyMsg{Type: tea.KeyCtrlC}
)

func TestModel_QuitKeys(t *testing.T) {
	tests := []struct {
		name     string
		enters   int
		key      tea.KeyMsg
		quit     bool
		wantDown int
	}{
		{name: "q on bottom frame quits", key: keyQ, quit: true, wantDown: 1},
		{name: "q on job list goes back", enters: 1, key: keyQ, wantDown: 1},
		{name: "q on job detail goes back one frame", enters: 2, key: keyQ, wantDown: 2},
		{name: "ctrl+c quits from job detail", enters: 2, key: keyCtrlC, quit: true, wantDown: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(t)
			for i := 0; i < tt.enters; i++ {
				m, _ = press(t, m, keyEnter)
			}
			if got := m.engine.Depth(); got != tt.enters+1 {
				t.Fatalf("Depth = %d before the key, want %d", got, tt.enters+1)
			}

			m, quit := press(t, m, tt.key)
			if quit != tt.quit {
				t.Errorf("quit = %v, want %v", quit, tt.quit)
			}
			if got := m.engine.Depth(); got != tt.wantDown {
				t.Errorf("Depth = %d after the key, want %d", got, tt.wantDown)
			}
		})
	}
}
