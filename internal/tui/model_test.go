package tui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"taskdeck/internal/notify"
	"taskdeck/internal/session"
	"taskdeck/internal/tasklist"
	"taskdeck/internal/testutil"
)

var errTest = errors.New("boom")

func newTestModel(t *testing.T, svc *testutil.FakeService) *Model {
	t.Helper()
	notes := &notify.Recorder{}
	manager := session.NewManager(svc, time.Millisecond)
	tasks := tasklist.NewReconciler(svc, manager, notes)
	manager.OnInvalidate(tasks.MarkStale)
	return New(svc, manager, tasks, notes)
}

// step runs one command and feeds its message back into the model.
func step(t *testing.T, m *Model, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if msg == nil {
		return nil
	}
	_, next := m.Update(msg)
	return next
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}

func TestStartupAuthenticatedShowsDashboard(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Buy milk", false)
	m := newTestModel(t, svc)

	if m.mode != ViewModeChecking {
		t.Fatalf("expected checking mode on startup, got %v", m.mode)
	}

	next := step(t, m, m.checkAuthCmd())
	if m.mode != ViewModeDashboard {
		t.Fatalf("expected dashboard after auth check, got %v", m.mode)
	}

	// The auth check chains into the initial load.
	step(t, m, next)
	if len(m.tasks) != 1 || m.tasks[0].Title != "Buy milk" {
		t.Errorf("expected the loaded task, got %+v", m.tasks)
	}
}

func TestStartupUnauthenticatedShowsLogin(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.SetAuthenticated(false)
	m := newTestModel(t, svc)

	step(t, m, m.checkAuthCmd())

	if m.mode != ViewModeLogin {
		t.Errorf("expected login view, got %v", m.mode)
	}
}

func TestLoginFlowReachesDashboard(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.SetAuthenticated(false)
	m := newTestModel(t, svc)
	step(t, m, m.checkAuthCmd())

	m.email.SetValue("dev@example.com")
	m.password.SetValue("hunter2")
	_, cmd := m.updateLogin(tea.KeyMsg{Type: tea.KeyEnter})

	// login -> confirm -> auth checked -> load
	for cmd != nil {
		cmd = step(t, m, cmd)
	}

	if m.mode != ViewModeDashboard {
		t.Errorf("expected dashboard after login, got %v (loginErr %q)", m.mode, m.loginErr)
	}
}

func TestLoginFailureShowsError(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.SetAuthenticated(false)
	svc.LoginErr = errTest
	m := newTestModel(t, svc)
	step(t, m, m.checkAuthCmd())

	m.email.SetValue("dev@example.com")
	m.password.SetValue("wrong")
	_, cmd := m.updateLogin(tea.KeyMsg{Type: tea.KeyEnter})
	step(t, m, cmd)

	if m.mode != ViewModeLogin {
		t.Errorf("expected to stay on the login view, got %v", m.mode)
	}
	if m.loginErr == "" {
		t.Error("expected a login error message")
	}
}

func TestToggleKeyFlipsTask(t *testing.T) {
	svc := testutil.NewFakeService()
	seeded := svc.AddTask("Buy milk", false)
	m := newTestModel(t, svc)
	next := step(t, m, m.checkAuthCmd())
	step(t, m, next)

	_, _ = m.updateDashboard(tea.KeyMsg{Type: tea.KeySpace})

	// The mutation runs in the background; wait for the backend effect.
	waitFor(t, func() bool { return svc.Tasks()[0].Completed })

	m.Update(opDoneMsg{})
	if !m.tasks[0].Completed {
		t.Errorf("expected task %s to show completed", seeded.ID)
	}
}

func TestSessionExpiryFallsBackToLogin(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Buy milk", false)
	m := newTestModel(t, svc)
	next := step(t, m, m.checkAuthCmd())
	step(t, m, next)

	svc.SetAuthenticated(false)
	_, _ = m.updateDashboard(tea.KeyMsg{Type: tea.KeySpace})
	waitFor(t, func() bool { return m.manager.State() == session.StateUnauthenticated })

	m.Update(opDoneMsg{})

	if m.mode != ViewModeLogin {
		t.Errorf("expected login view after expiry, got %v", m.mode)
	}
	// The optimistic state stays visible behind the login form.
	if len(m.tasks) != 1 {
		t.Errorf("expected the task list to remain, got %+v", m.tasks)
	}
}

func TestCreateFormSubmits(t *testing.T) {
	svc := testutil.NewFakeService()
	m := newTestModel(t, svc)
	next := step(t, m, m.checkAuthCmd())
	step(t, m, next)

	m.updateDashboard(keyRune('n'))
	if m.mode != ViewModeCreate {
		t.Fatalf("expected create view, got %v", m.mode)
	}

	m.titleInput.SetValue("Buy milk")
	_, _ = m.updateForm(tea.KeyMsg{Type: tea.KeyEnter})
	if m.mode != ViewModeDashboard {
		t.Errorf("expected to return to the dashboard, got %v", m.mode)
	}

	waitFor(t, func() bool { return len(svc.Tasks()) == 1 })
	m.Update(opDoneMsg{})
	if len(m.tasks) != 1 || m.tasks[0].Title != "Buy milk" {
		t.Errorf("expected the created task, got %+v", m.tasks)
	}
}

func TestCreateFormRejectsEmptyTitle(t *testing.T) {
	svc := testutil.NewFakeService()
	m := newTestModel(t, svc)
	next := step(t, m, m.checkAuthCmd())
	step(t, m, next)

	m.updateDashboard(keyRune('n'))
	_, _ = m.updateForm(tea.KeyMsg{Type: tea.KeyEnter})

	if m.mode != ViewModeCreate {
		t.Errorf("expected to stay on the create view, got %v", m.mode)
	}
	if len(m.toasts) == 0 {
		t.Error("expected a validation toast")
	}
}

func TestToastsExpire(t *testing.T) {
	svc := testutil.NewFakeService()
	m := newTestModel(t, svc)

	m.addToast(notify.LevelSuccess, "Task added")
	m.toasts[0].expires = time.Now().Add(-time.Second)
	m.pruneToasts()

	if len(m.toasts) != 0 {
		t.Errorf("expected expired toasts to be pruned, got %v", m.toasts)
	}
}

func TestCursorMovementStaysInBounds(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("one", false)
	svc.AddTask("two", false)
	m := newTestModel(t, svc)
	next := step(t, m, m.checkAuthCmd())
	step(t, m, next)

	m.updateDashboard(keyRune('k'))
	if m.cursor != 0 {
		t.Errorf("expected cursor pinned at 0, got %d", m.cursor)
	}
	m.updateDashboard(keyRune('j'))
	m.updateDashboard(keyRune('j'))
	if m.cursor != 1 {
		t.Errorf("expected cursor pinned at last task, got %d", m.cursor)
	}
}
