// Package tui implements the interactive pipeline dashboard.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/codewandler/glpipe/internal/logging"
)

// Options configures the dashboard
type Options struct {
	Source          Source
	Log             *logging.Logger
	Project         string
	MaxPipelines    int
	Ref             string
	User            string
	RefreshInterval time.Duration
	AutoRefresh     bool
	OpenURL         func(url string) error
}

type filterForm struct {
	active bool
	inputs [2]textinput.Model // ref, user
	focus  int
}

type openedMsg struct {
	url string
	err error
}

// Model is the bubbletea model of the dashboard
type Model struct {
	engine    *Engine
	scheduler *Scheduler
	keys      keyMap
	help      help.Model
	spinner   spinner.Model
	viewport  viewport.Model
	form      filterForm
	project   string
	openURL   func(string) error
	log       *logging.Logger

	status      string
	width       int
	height      int
	shownFrame  string
	shownVer    int
	autoRefresh bool
}

// New builds the dashboard model.
func New(opts Options) Model {
	log := opts.Log
	if log == nil {
		log = logging.Nop()
	}
	m := Model{
		engine: NewEngine(opts.Source, EngineOptions{
			MaxPipelines: opts.MaxPipelines,
			Ref:          opts.Ref,
			User:         opts.User,
		}, log),
		scheduler:   NewScheduler(opts.RefreshInterval),
		keys:        newKeyMap(),
		help:        help.New(),
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot)),
		viewport:    viewport.New(80, 20),
		project:     opts.Project,
		openURL:     opts.OpenURL,
		log:         log,
		autoRefresh: opts.AutoRefresh,
	}
	for i, placeholder := range []string{"branch or tag", "username"} {
		in := textinput.New()
		in.Placeholder = placeholder
		in.CharLimit = 128
		m.form.inputs[i] = in
	}
	return m
}

// Init loads the pipeline list and starts the timers.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.engine.Reload(), m.spinner.Tick}
	if m.autoRefresh {
		cmds = append(cmds, m.scheduler.Start())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.viewport.Width = msg.Width
		m.viewport.Height = m.bodyHeight()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case refreshTickMsg:
		fire, next := m.scheduler.Handle(msg)
		if fire {
			return m, tea.Batch(next, m.engine.Reload())
		}
		return m, next

	case frameResult:
		cmd := m.engine.Apply(msg)
		m.syncViewport()
		return m, cmd

	case openedMsg:
		if msg.err != nil {
			m.status = "Could not open browser: " + msg.err.Error()
		} else {
			m.status = "Opened " + msg.url
		}
		return m, nil

	case tea.KeyMsg:
		if m.form.active {
			return m.updateForm(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	_, inDetail := m.engine.Top().view.(*jobDetailView)

	switch {
	case key.Matches(msg, m.keys.forceQuit),
		key.Matches(msg, m.keys.quit) && m.engine.Depth() == 1:
		m.scheduler.Stop()
		m.engine.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.quit):
		cmd, ok := m.engine.Pop()
		if ok {
			m.syncViewport()
		}
		return m, cmd

	case key.Matches(msg, m.keys.enter):
		cmd := m.engine.Enter()
		m.syncViewport()
		return m, cmd

	case key.Matches(msg, m.keys.refresh):
		cmd := m.engine.Reload()
		if cmd == nil {
			m.status = "Already loading"
		}
		return m, cmd

	case key.Matches(msg, m.keys.failed):
		cmd, note := m.engine.ShowFailed()
		m.status = note
		m.syncViewport()
		return m, cmd

	case key.Matches(msg, m.keys.filter):
		if m.engine.ToggleFailuresOnly() {
			m.syncViewport()
			return m, nil
		}
		if ref, user, ok := m.engine.Filter(); ok {
			cmd := m.openForm(ref, user)
			return m, cmd
		}
		return m, nil

	case key.Matches(msg, m.keys.open):
		url := m.engine.SelectedURL()
		if url == "" || m.openURL == nil {
			m.status = "Nothing to open"
			return m, nil
		}
		open := m.openURL
		return m, func() tea.Msg {
			return openedMsg{url: url, err: open(url)}
		}

	case key.Matches(msg, m.keys.autoRefresh):
		cmd := m.scheduler.Toggle()
		m.autoRefresh = m.scheduler.Running()
		return m, cmd
	}

	if inDetail {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.up):
		m.engine.MoveCursor(-1)
	case key.Matches(msg, m.keys.down):
		m.engine.MoveCursor(1)
	}
	return m, nil
}

func (m *Model) openForm(ref, user string) tea.Cmd {
	m.form.active = true
	m.form.focus = 0
	m.form.inputs[0].SetValue(ref)
	m.form.inputs[1].SetValue(user)
	m.form.inputs[1].Blur()
	return m.form.inputs[0].Focus()
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.form.active = false
		return m, nil
	case "enter":
		m.form.active = false
		ref := strings.TrimSpace(m.form.inputs[0].Value())
		user := strings.TrimSpace(m.form.inputs[1].Value())
		return m, m.engine.SetFilter(ref, user)
	case "tab", "shift+tab":
		m.form.inputs[m.form.focus].Blur()
		m.form.focus = 1 - m.form.focus
		cmd := m.form.inputs[m.form.focus].Focus()
		return m, cmd
	case "ctrl+c":
		m.scheduler.Stop()
		m.engine.Close()
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.form.inputs[m.form.focus], cmd = m.form.inputs[m.form.focus].Update(msg)
	return m, cmd
}

// syncViewport refreshes the detail viewport when the shown frame changed.
func (m *Model) syncViewport() {
	top := m.engine.Top()
	v, ok := top.view.(*jobDetailView)
	if !ok {
		m.shownFrame = ""
		return
	}
	if top.id == m.shownFrame && top.version == m.shownVer && top.loaded {
		return
	}
	m.viewport.SetContent(detailContent(top, v))
	if top.id != m.shownFrame {
		m.viewport.GotoTop()
	}
	m.shownFrame, m.shownVer = top.id, top.version
}

func (m Model) bodyHeight() int {
	// header, blank line, footer border, status and help
	h := m.height - 5
	if m.form.active {
		h -= 3
	}
	return max(h, 1)
}

// View implements tea.Model
func (m Model) View() string {
	top := m.engine.Top()
	width := max(m.width, 40)
	height := m.bodyHeight()

	var body string
	switch v := top.view.(type) {
	case *pipelineListView:
		body = renderPipelineList(top, v, width, height)
	case *jobListView:
		body = renderJobList(top, v, width, height)
	case *failedJobsView:
		body = renderFailedJobs(top, v, width, height)
	case *jobDetailView:
		m.viewport.Height = height
		body = m.viewport.View()
	}
	body = lipgloss.NewStyle().Height(height).MaxHeight(height).Render(body)

	crumbs := m.engine.Breadcrumb()
	if m.project != "" {
		crumbs = append([]string{m.project}, crumbs...)
	}

	parts := []string{renderHeader(crumbs, width), ""}
	if m.form.active {
		parts = append(parts,
			fmt.Sprintf("Ref:  %s", m.form.inputs[0].View()),
			fmt.Sprintf("User: %s", m.form.inputs[1].View()),
			mutedStyle.Render("tab switch · enter apply · esc cancel"),
		)
	}
	parts = append(parts, body,
		renderFooter(top, m.status, m.scheduler.Running(), m.scheduler.Interval(), m.spinner.View(), m.help.View(m.keys), width))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// Run starts the dashboard and blocks until the user quits.
func Run(opts Options) error {
	m := New(opts)
	defer m.engine.Close()

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run dashboard: %w", err)
	}
	return nil
}
