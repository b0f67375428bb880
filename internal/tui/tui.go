// Package tui provides the Bubble Tea client: login, registration, dashboard
// and detection views, gated by the navigation rules in internal/nav.
package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fakeyudi/cropscan/internal/api"
	"github.com/fakeyudi/cropscan/internal/auth"
	"github.com/fakeyudi/cropscan/internal/config"
	"github.com/fakeyudi/cropscan/internal/detect"
	"github.com/fakeyudi/cropscan/internal/history"
	"github.com/fakeyudi/cropscan/internal/intake"
	"github.com/fakeyudi/cropscan/internal/nav"
)

// Form field indexes for the login and register views.
const (
	fieldEmail = iota
	fieldPassword
	fieldFirstName
	fieldLastName
)

// Model is the root Bubble Tea model.
type Model struct {
	store *auth.Store
	flow  *detect.Workflow
	agg   *history.Aggregator
	cfg   config.Config

	view   nav.View
	width  int
	height int
	ready  bool

	// Login / register forms.
	loginInputs []textinput.Model
	regInputs   []textinput.Model
	focus       int
	formErr     string
	formBusy    bool

	// Detect view.
	pathInput textinput.Model
	spin      spinner.Model
	notice    string // transient, e.g. "saved to ./leaf.png" or a watch pickup

	// Dashboard.
	dash       viewport.Model
	refreshing bool
	historyErr string

	status string // status bar message (logout text, greetings)

	watchEvents <-chan string
}

// New assembles the TUI model over the core components.
func New(store *auth.Store, flow *detect.Workflow, agg *history.Aggregator, cfg config.Config, watchEvents <-chan string) Model {
	newInput := func(placeholder string, secret bool) textinput.Model {
		in := textinput.New()
		in.Placeholder = placeholder
		in.CharLimit = 128
		if secret {
			in.EchoMode = textinput.EchoPassword
		}
		return in
	}

	m := Model{
		store: store,
		flow:  flow,
		agg:   agg,
		cfg:   cfg,
		view:  nav.ViewLoading,
		loginInputs: []textinput.Model{
			newInput("email", false),
			newInput("password", true),
		},
		regInputs: []textinput.Model{
			newInput("email", false),
			newInput("password", true),
			newInput("first name (optional)", false),
			newInput("last name (optional)", false),
		},
		pathInput:   newInput("path to a leaf photo, e.g. ./leaf.jpg", false),
		spin:        spinner.New(spinner.WithSpinner(spinner.Dot)),
		watchEvents: watchEvents,
	}
	m.loginInputs[fieldEmail].Focus()
	m.regInputs[fieldEmail].Focus()
	m.pathInput.Focus()
	return m
}

// ── Messages ─────────────────

type identityCheckedMsg struct{}

type authDoneMsg struct {
	out auth.Outcome
}

type logoutDoneMsg struct{ out auth.Outcome }

type analyzeDoneMsg struct{}

type refreshDoneMsg struct{ err error }

type historyChangedMsg struct{}

type watchEventMsg struct{ path string }

type watchClosedMsg struct{}

// ── Commands ─────────────────

func (m Model) checkIdentityCmd() tea.Cmd {
	return func() tea.Msg {
		m.store.CheckIdentity(context.Background())
		return identityCheckedMsg{}
	}
}

func (m Model) loginCmd(email, password string) tea.Cmd {
	return func() tea.Msg {
		return authDoneMsg{out: m.store.Login(context.Background(), email, password)}
	}
}

func (m Model) registerCmd(req api.RegisterRequest) tea.Cmd {
	return func() tea.Msg {
		return authDoneMsg{out: m.store.Register(context.Background(), req)}
	}
}

func (m Model) logoutCmd() tea.Cmd {
	return func() tea.Msg {
		return logoutDoneMsg{out: m.store.Logout(context.Background())}
	}
}

func (m Model) analyzeCmd() tea.Cmd {
	return func() tea.Msg {
		m.flow.Analyze(context.Background())
		return analyzeDoneMsg{}
	}
}

func (m Model) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		return refreshDoneMsg{err: m.agg.Refresh(context.Background())}
	}
}

// waitHistoryChangedCmd blocks on the workflow's history-changed signal and
// re-arms after every delivery.
func (m Model) waitHistoryChangedCmd() tea.Cmd {
	return func() tea.Msg {
		<-m.flow.HistoryChanged()
		return historyChangedMsg{}
	}
}

func (m Model) waitWatchEventCmd() tea.Cmd {
	if m.watchEvents == nil {
		return nil
	}
	return func() tea.Msg {
		path, ok := <-m.watchEvents
		if !ok {
			return watchClosedMsg{}
		}
		return watchEventMsg{path: path}
	}
}

// ── Bubble Tea interface ─────────────────

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.checkIdentityCmd(),
		m.waitHistoryChangedCmd(),
		m.spin.Tick,
	}
	if c := m.waitWatchEventCmd(); c != nil {
		cmds = append(cmds, c)
	}
	return tea.Batch(cmds...)
}

// route re-evaluates the navigation gate for a requested view. Every identity
// change goes through here.
func (m *Model) route(requested nav.View) {
	m.view = nav.Resolve(m.store.Phase(), m.store.Authenticated(), requested)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.dash = viewport.New(msg.Width, maxInt(msg.Height-4, 1))
		m.dash.SetContent(m.renderDashboardContent())
		return m, nil

	case tea.FocusMsg:
		// The view became active again; pick up detections made elsewhere.
		if m.view == nav.ViewDashboard && !m.refreshing {
			m.refreshing = true
			return m, m.refreshCmd()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case identityCheckedMsg:
		m.route(nav.ViewDashboard)
		if m.view == nav.ViewDashboard {
			m.refreshing = true
			return m, m.refreshCmd()
		}
		return m, nil

	case authDoneMsg:
		m.formBusy = false
		if !msg.out.OK {
			m.formErr = msg.out.Message
			return m, nil
		}
		m.formErr = ""
		m.status = msg.out.Message
		m.resetForms()
		m.route(nav.ViewDashboard)
		m.refreshing = true
		return m, m.refreshCmd()

	case logoutDoneMsg:
		m.status = msg.out.Message
		m.flow.Reset()
		m.route(nav.ViewLogin)
		return m, nil

	case analyzeDoneMsg:
		// Result and error are read straight from the workflow when rendering.
		return m, nil

	case historyChangedMsg:
		cmds := []tea.Cmd{m.waitHistoryChangedCmd()}
		if !m.refreshing {
			m.refreshing = true
			cmds = append(cmds, m.refreshCmd())
		}
		return m, tea.Batch(cmds...)

	case refreshDoneMsg:
		m.refreshing = false
		if msg.err != nil {
			// Keep whatever the dashboard already shows.
			m.historyErr = "Could not refresh history; showing last known data."
		} else {
			m.historyErr = ""
		}
		m.dash.SetContent(m.renderDashboardContent())
		return m, nil

	case watchEventMsg:
		if _, err := m.flow.Select(msg.path); err == nil {
			m.notice = "picked up " + msg.path
			m.route(nav.ViewDetect)
		}
		return m, m.waitWatchEventCmd()

	case watchClosedMsg:
		m.watchEvents = nil
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.view {
	case nav.ViewLogin:
		return m.updateLogin(msg)
	case nav.ViewRegister:
		return m.updateRegister(msg)
	case nav.ViewDashboard:
		return m.updateDashboard(msg)
	case nav.ViewDetect:
		return m.updateDetect(msg)
	}
	return m, nil
}

// ── Per-view key handling ─────────────────

func (m Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		m.focus = (m.focus + 1) % len(m.loginInputs)
		m.syncFormFocus(m.loginInputs)
		return m, nil
	case "shift+tab", "up":
		m.focus = (m.focus - 1 + len(m.loginInputs)) % len(m.loginInputs)
		m.syncFormFocus(m.loginInputs)
		return m, nil
	case "ctrl+r":
		m.focus = 0
		m.formErr = ""
		m.route(nav.ViewRegister)
		m.syncFormFocus(m.regInputs)
		return m, nil
	case "enter":
		if m.formBusy {
			return m, nil
		}
		email := m.loginInputs[fieldEmail].Value()
		password := m.loginInputs[fieldPassword].Value()
		if email == "" || password == "" {
			m.formErr = "Email and password are required"
			return m, nil
		}
		m.formBusy = true
		m.formErr = ""
		return m, m.loginCmd(email, password)
	}

	var cmd tea.Cmd
	m.loginInputs[m.focus], cmd = m.loginInputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) updateRegister(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		m.focus = (m.focus + 1) % len(m.regInputs)
		m.syncFormFocus(m.regInputs)
		return m, nil
	case "shift+tab", "up":
		m.focus = (m.focus - 1 + len(m.regInputs)) % len(m.regInputs)
		m.syncFormFocus(m.regInputs)
		return m, nil
	case "ctrl+l", "esc":
		m.focus = 0
		m.formErr = ""
		m.route(nav.ViewLogin)
		m.syncFormFocus(m.loginInputs)
		return m, nil
	case "enter":
		if m.formBusy {
			return m, nil
		}
		req := api.RegisterRequest{
			Email:     m.regInputs[fieldEmail].Value(),
			Password:  m.regInputs[fieldPassword].Value(),
			FirstName: m.regInputs[fieldFirstName].Value(),
			LastName:  m.regInputs[fieldLastName].Value(),
		}
		if req.Email == "" || req.Password == "" {
			m.formErr = "Email and password are required"
			return m, nil
		}
		m.formBusy = true
		m.formErr = ""
		return m, m.registerCmd(req)
	}

	var cmd tea.Cmd
	m.regInputs[m.focus], cmd = m.regInputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) updateDashboard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "d":
		m.notice = ""
		m.route(nav.ViewDetect)
		return m, nil
	case "r":
		if !m.refreshing {
			m.refreshing = true
			return m, m.refreshCmd()
		}
		return m, nil
	case "l":
		return m, m.logoutCmd()
	}

	var cmd tea.Cmd
	m.dash, cmd = m.dash.Update(msg)
	return m, cmd
}

func (m Model) updateDetect(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.notice = ""
		m.route(nav.ViewDashboard)
		m.dash.SetContent(m.renderDashboardContent())
		return m, nil
	case "enter":
		path := m.pathInput.Value()
		if path == "" {
			return m, nil
		}
		m.notice = ""
		if _, err := m.flow.Select(path); err != nil {
			m.notice = err.Error()
			return m, nil
		}
		m.pathInput.SetValue("")
		return m, nil
	case "ctrl+a":
		if _, ok := m.flow.Pending(); !ok {
			return m, nil
		}
		m.notice = ""
		return m, m.analyzeCmd()
	case "ctrl+s":
		dst, err := m.flow.Export(m.cfg.ExportDir)
		if err != nil {
			// Nothing pending is a quiet no-op; anything else is worth a note.
			if !errors.Is(err, intake.ErrNoPendingImage) {
				m.notice = err.Error()
			}
			return m, nil
		}
		m.notice = "saved to " + dst
		return m, nil
	case "ctrl+x":
		m.flow.Reset()
		m.notice = ""
		return m, nil
	}

	var cmd tea.Cmd
	m.pathInput, cmd = m.pathInput.Update(msg)
	return m, cmd
}

// ── Helpers ─────────────────

func (m *Model) syncFormFocus(inputs []textinput.Model) {
	for i := range inputs {
		if i == m.focus {
			inputs[i].Focus()
		} else {
			inputs[i].Blur()
		}
	}
}

func (m *Model) resetForms() {
	for i := range m.loginInputs {
		m.loginInputs[i].SetValue("")
	}
	for i := range m.regInputs {
		m.regInputs[i].SetValue("")
	}
	m.focus = 0
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Run starts the TUI over the assembled components. Focus reporting feeds the
// dashboard's refresh-on-activation behavior.
func Run(store *auth.Store, flow *detect.Workflow, agg *history.Aggregator, cfg config.Config, watchEvents <-chan string) error {
	p := tea.NewProgram(
		New(store, flow, agg, cfg, watchEvents),
		tea.WithAltScreen(),
		tea.WithReportFocus(),
	)
	_, err := p.Run()
	return err
}
