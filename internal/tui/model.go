// Package tui implements the interactive dashboard.
//
// The dashboard is a thin view over the session manager and the task-list
// reconciler: every frame renders the reconciler's current snapshot, so
// optimistic updates appear immediately and rollbacks appear as soon as a
// failed call resolves. Mutations run as background commands; their results
// land in completion order.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"taskdeck/internal/notify"
	"taskdeck/internal/service"
	"taskdeck/internal/session"
	"taskdeck/internal/tasklist"
)

// ViewMode represents the current view.
type ViewMode int

const (
	ViewModeChecking  ViewMode = iota // initial session check in flight
	ViewModeLogin                     // login form
	ViewModeDashboard                 // task list
	ViewModeCreate                    // create form
	ViewModeEdit                      // edit form
)

// Messages
type authCheckedMsg struct {
	state session.State
}

type loginSubmittedMsg struct {
	err error
}

type opDoneMsg struct{}

type tickMsg time.Time

// toast is a short-lived notification line.
type toast struct {
	level   notify.Level
	text    string
	expires time.Time
}

// toastTTL is how long a notification stays visible.
const toastTTL = 3 * time.Second

// Model is the root bubbletea model.
type Model struct {
	svc     service.Service
	manager *session.Manager
	recon   *tasklist.Reconciler
	notes   *notify.Recorder

	mode   ViewMode
	tasks  []service.Task
	cursor int
	toasts []toast
	width  int

	email    textinput.Model
	password textinput.Model
	loginErr string

	titleInput textinput.Model
	descInput  textinput.Model
	formFocus  int
	editID     string
}

// New creates the dashboard model. The reconciler must already hold the
// manager's invalidation capability; the model additionally subscribes so an
// expired session flips the view back to the login form.
func New(svc service.Service, manager *session.Manager, recon *tasklist.Reconciler, notes *notify.Recorder) *Model {
	email := textinput.New()
	email.Placeholder = "email"
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword

	title := textinput.New()
	title.Placeholder = "title"

	desc := textinput.New()
	desc.Placeholder = "description (optional)"

	return &Model{
		svc:        svc,
		manager:    manager,
		recon:      recon,
		notes:      notes,
		mode:       ViewModeChecking,
		email:      email,
		password:   password,
		titleInput: title,
		descInput:  desc,
		width:      80,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.checkAuthCmd(), tickCmd())
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tickMsg:
		m.pruneToasts()
		return m, tickCmd()

	case authCheckedMsg:
		if msg.state == session.StateAuthenticated {
			m.mode = ViewModeDashboard
			return m, m.loadCmd()
		}
		m.mode = ViewModeLogin
		m.email.Focus()
		m.password.Blur()
		return m, nil

	case loginSubmittedMsg:
		if msg.err != nil {
			m.loginErr = msg.err.Error()
			return m, nil
		}
		m.loginErr = ""
		m.password.SetValue("")
		return m, m.confirmLoginCmd()

	case opDoneMsg:
		m.refresh()
		if m.manager.State() == session.StateUnauthenticated && m.mode != ViewModeLogin {
			// Session expired mid-flight; optimistic state stays visible
			// behind the login form until an explicit reload.
			m.mode = ViewModeLogin
			m.loginErr = "Session expired. Please log in again."
			m.email.Focus()
			m.password.Blur()
		}
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}

	return m, nil
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.mode {
	case ViewModeLogin:
		return m.updateLogin(msg)
	case ViewModeDashboard:
		return m.updateDashboard(msg)
	case ViewModeCreate, ViewModeEdit:
		return m.updateForm(msg)
	}
	return m, nil
}

func (m *Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab", "up", "down":
		if m.email.Focused() {
			m.email.Blur()
			m.password.Focus()
		} else {
			m.password.Blur()
			m.email.Focus()
		}
		return m, nil
	case "enter":
		email := strings.TrimSpace(m.email.Value())
		password := m.password.Value()
		if email == "" || password == "" {
			m.loginErr = "email and password required"
			return m, nil
		}
		m.loginErr = ""
		return m, m.loginCmd(email, password)
	case "esc":
		return m, tea.Quit
	}

	var cmd tea.Cmd
	if m.email.Focused() {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m *Model) updateDashboard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
		}
		return m, nil
	case " ", "enter":
		if task, ok := m.current(); ok {
			return m, m.toggleCmd(task.ID)
		}
		return m, nil
	case "d", "x":
		if task, ok := m.current(); ok {
			return m, m.deleteCmd(task.ID)
		}
		return m, nil
	case "n", "a":
		m.mode = ViewModeCreate
		m.editID = ""
		m.titleInput.SetValue("")
		m.descInput.SetValue("")
		m.focusForm(0)
		return m, nil
	case "e":
		if task, ok := m.current(); ok {
			m.mode = ViewModeEdit
			m.editID = task.ID
			m.titleInput.SetValue(task.Title)
			m.descInput.SetValue(task.Description)
			m.focusForm(0)
		}
		return m, nil
	case "r":
		return m, m.loadCmd()
	case "L":
		return m, m.logoutCmd()
	}
	return m, nil
}

func (m *Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = ViewModeDashboard
		return m, nil
	case "tab", "shift+tab":
		m.focusForm(1 - m.formFocus)
		return m, nil
	case "enter":
		title := strings.TrimSpace(m.titleInput.Value())
		if title == "" {
			m.addToast(notify.LevelError, "title required")
			return m, nil
		}
		draft := service.TaskDraft{
			Title:       title,
			Description: strings.TrimSpace(m.descInput.Value()),
		}
		editID := m.editID
		m.mode = ViewModeDashboard
		if editID == "" {
			return m, m.createCmd(draft)
		}
		return m, m.updateCmd(editID, draft)
	}

	var cmd tea.Cmd
	if m.formFocus == 0 {
		m.titleInput, cmd = m.titleInput.Update(msg)
	} else {
		m.descInput, cmd = m.descInput.Update(msg)
	}
	return m, cmd
}

func (m *Model) focusForm(i int) {
	m.formFocus = i
	if i == 0 {
		m.titleInput.Focus()
		m.descInput.Blur()
	} else {
		m.titleInput.Blur()
		m.descInput.Focus()
	}
}

// current returns the task under the cursor.
func (m *Model) current() (service.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.tasks) {
		return service.Task{}, false
	}
	return m.tasks[m.cursor], true
}

// refresh pulls the reconciler snapshot and drains pending notifications.
func (m *Model) refresh() {
	m.tasks = m.recon.Snapshot()
	if m.cursor >= len(m.tasks) {
		m.cursor = len(m.tasks) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	for _, n := range m.notes.Drain() {
		m.addToast(n.Level, n.Message)
	}
}

func (m *Model) addToast(level notify.Level, text string) {
	m.toasts = append(m.toasts, toast{level: level, text: text, expires: time.Now().Add(toastTTL)})
}

func (m *Model) pruneToasts() {
	now := time.Now()
	kept := m.toasts[:0]
	for _, t := range m.toasts {
		if t.expires.After(now) {
			kept = append(kept, t)
		}
	}
	m.toasts = kept
}

// Commands

func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) checkAuthCmd() tea.Cmd {
	return func() tea.Msg {
		return authCheckedMsg{state: m.manager.CheckStatus(context.Background())}
	}
}

func (m *Model) loginCmd(email, password string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.svc.Login(context.Background(), email, password)
		return loginSubmittedMsg{err: err}
	}
}

func (m *Model) confirmLoginCmd() tea.Cmd {
	return func() tea.Msg {
		return authCheckedMsg{state: m.manager.ConfirmLogin(context.Background())}
	}
}

func (m *Model) logoutCmd() tea.Cmd {
	return func() tea.Msg {
		m.manager.Logout(context.Background())
		m.recon.Clear()
		return authCheckedMsg{state: m.manager.State()}
	}
}

func (m *Model) loadCmd() tea.Cmd {
	return func() tea.Msg {
		_ = m.recon.Load(context.Background())
		return opDoneMsg{}
	}
}

func (m *Model) createCmd(draft service.TaskDraft) tea.Cmd {
	return m.mutation(func(ctx context.Context) error {
		return m.recon.Create(ctx, draft)
	})
}

func (m *Model) toggleCmd(id string) tea.Cmd {
	return m.mutation(func(ctx context.Context) error {
		return m.recon.Toggle(ctx, id)
	})
}

func (m *Model) updateCmd(id string, draft service.TaskDraft) tea.Cmd {
	return m.mutation(func(ctx context.Context) error {
		return m.recon.Update(ctx, id, draft)
	})
}

func (m *Model) deleteCmd(id string) tea.Cmd {
	return m.mutation(func(ctx context.Context) error {
		return m.recon.Delete(ctx, id)
	})
}

// mutation wraps a reconciler call. The optimistic effect is visible on the
// next frame; the returned message re-renders once the call resolves to
// confirmed or rolled back. It also emits an immediate repaint so the
// optimistic state shows before the network answers.
func (m *Model) mutation(fn func(context.Context) error) tea.Cmd {
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = fn(context.Background())
	}()
	return tea.Batch(
		func() tea.Msg { return opDoneMsg{} }, // repaint with optimistic state
		func() tea.Msg {
			<-done
			return opDoneMsg{}
		},
	)
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	switch m.mode {
	case ViewModeChecking:
		b.WriteString(TitleStyle.Render("taskdeck"))
		b.WriteString("\n\n  checking session...\n")

	case ViewModeLogin:
		b.WriteString(TitleStyle.Render("taskdeck · sign in"))
		b.WriteString("\n\n")
		form := m.email.View() + "\n" + m.password.View()
		if m.loginErr != "" {
			form += "\n\n" + ErrTextStyle.Render(m.loginErr)
		}
		b.WriteString(FormStyle.Render(form))
		b.WriteString("\n")
		b.WriteString(StatusBarStyle.Render("enter: sign in · tab: switch field · esc: quit"))
		b.WriteString("\n")

	case ViewModeDashboard:
		b.WriteString(TitleStyle.Render("taskdeck"))
		if user := m.manager.User(); user != nil {
			b.WriteString(StatusBarStyle.Render(user.Email))
		}
		b.WriteString("\n\n")
		if len(m.tasks) == 0 {
			b.WriteString(StatusBarStyle.Render("no tasks yet. press n to add one"))
			b.WriteString("\n")
		}
		for i, task := range m.tasks {
			b.WriteString(m.renderTask(i, task))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(StatusBarStyle.Render("space: toggle · n: new · e: edit · d: delete · r: reload · L: logout · q: quit"))
		b.WriteString("\n")

	case ViewModeCreate, ViewModeEdit:
		header := "taskdeck · new task"
		if m.mode == ViewModeEdit {
			header = "taskdeck · edit task"
		}
		b.WriteString(TitleStyle.Render(header))
		b.WriteString("\n\n")
		b.WriteString(FormStyle.Render(m.titleInput.View() + "\n" + m.descInput.View()))
		b.WriteString("\n")
		b.WriteString(StatusBarStyle.Render("enter: save · tab: switch field · esc: cancel"))
		b.WriteString("\n")
	}

	for _, t := range m.toasts {
		if t.level == notify.LevelError {
			b.WriteString(ToastErrorStyle.Render("✗ " + t.text))
		} else {
			b.WriteString(ToastSuccessStyle.Render("✓ " + t.text))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (m *Model) renderTask(i int, task service.Task) string {
	cursor := "  "
	if i == m.cursor {
		cursor = CursorStyle.Render("> ")
	}

	check := "[ ]"
	if task.Completed {
		check = "[x]"
	}

	var prio string
	switch task.Priority {
	case service.PriorityHigh:
		prio = PriorityHighStyle.Render("high")
	case service.PriorityLow:
		prio = PriorityLowStyle.Render("low")
	default:
		prio = PriorityMediumStyle.Render("medium")
	}

	line := fmt.Sprintf("%s %s  (%s, %s)", check, task.Title, prio, task.Status)
	switch {
	case strings.HasPrefix(task.ID, tasklist.TempIDPrefix):
		line = TaskPendingStyle.Render(line)
	case task.Completed:
		line = TaskDoneStyle.Render(line)
	default:
		line = TaskOpenStyle.Render(line)
	}
	return cursor + line
}
