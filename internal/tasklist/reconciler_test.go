package tasklist_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"taskdeck/internal/notify"
	"taskdeck/internal/service"
	"taskdeck/internal/tasklist"
	"taskdeck/internal/testutil"
)

type fakeInvalidator struct {
	calls int
}

func (f *fakeInvalidator) InvalidateSession() { f.calls++ }

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

// checkConsistent verifies the completed flag and the status agree on every
// task.
func checkConsistent(t *testing.T, tasks []service.Task) {
	t.Helper()
	for _, task := range tasks {
		if task.Completed != (task.Status == service.StatusCompleted) {
			t.Errorf("task %s: completed=%v inconsistent with status=%q", task.ID, task.Completed, task.Status)
		}
	}
}

func TestLoad_ReplacesListWholesale(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Buy milk", false)
	svc.AddTask("Buy eggs", true)
	rec := tasklist.NewReconciler(svc, nil, nil)

	if rec.Loaded() {
		t.Error("expected Loaded to be false before the first load")
	}
	if err := rec.Load(context.Background()); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if !rec.Loaded() {
		t.Error("expected Loaded to be true after a successful load")
	}

	tasks := rec.Snapshot()
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].Title != "Buy eggs" || tasks[1].Title != "Buy milk" {
		t.Errorf("expected newest-first order, got %q, %q", tasks[0].Title, tasks[1].Title)
	}
	checkConsistent(t, tasks)
}

func TestLoad_FailureKeepsPreviousList(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Buy milk", false)
	notes := &notify.Recorder{}
	rec := tasklist.NewReconciler(svc, nil, notes)

	if err := rec.Load(context.Background()); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	svc.ListTasksErr = errors.New("boom")
	if err := rec.Load(context.Background()); err == nil {
		t.Fatal("expected an error from the failed load")
	}

	tasks := rec.Snapshot()
	if len(tasks) != 1 || tasks[0].Title != "Buy milk" {
		t.Errorf("expected previous list to survive a failed reload, got %v", tasks)
	}
}

func TestCreate_EmptyTitle(t *testing.T) {
	svc := testutil.NewFakeService()
	rec := tasklist.NewReconciler(svc, nil, nil)

	err := rec.Create(context.Background(), service.TaskDraft{Title: "   "})

	if !errors.Is(err, tasklist.ErrEmptyTitle) {
		t.Errorf("expected ErrEmptyTitle, got %v", err)
	}
	if len(svc.Calls) != 0 {
		t.Errorf("expected no backend calls, got %v", svc.Calls)
	}
	if len(rec.Snapshot()) != 0 {
		t.Error("expected no task to be inserted")
	}
}

func TestCreate_Success(t *testing.T) {
	svc := testutil.NewFakeService()
	notes := &notify.Recorder{}
	rec := tasklist.NewReconciler(svc, nil, notes)

	if err := rec.Create(context.Background(), service.TaskDraft{Title: "Buy milk"}); err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}

	tasks := rec.Snapshot()
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if strings.HasPrefix(tasks[0].ID, tasklist.TempIDPrefix) {
		t.Errorf("placeholder id still visible after resolution: %q", tasks[0].ID)
	}
	if tasks[0].ID != "task-1" {
		t.Errorf("expected server id task-1, got %q", tasks[0].ID)
	}
	if tasks[0].Priority != service.PriorityMedium {
		t.Errorf("expected default priority medium, got %q", tasks[0].Priority)
	}
	checkConsistent(t, tasks)

	got := notes.Drain()
	if len(got) != 1 || got[0].Message != "Task added" {
		t.Errorf("expected a 'Task added' notification, got %v", got)
	}
}

func TestCreate_PlaceholderVisibleWhileInFlight(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.Gate = make(chan struct{})
	rec := tasklist.NewReconciler(svc, nil, nil)

	done := make(chan error, 1)
	go func() {
		done <- rec.Create(context.Background(), service.TaskDraft{Title: "Buy milk"})
	}()

	// The placeholder must appear before the backend call resolves.
	waitFor(t, func() bool {
		tasks := rec.Snapshot()
		return len(tasks) == 1 && strings.HasPrefix(tasks[0].ID, tasklist.TempIDPrefix)
	})

	svc.Gate <- struct{}{}
	if err := <-done; err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}

	tasks := rec.Snapshot()
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if strings.HasPrefix(tasks[0].ID, tasklist.TempIDPrefix) {
		t.Errorf("placeholder id still visible after resolution: %q", tasks[0].ID)
	}
}

func TestCreate_RollbackRemovesPlaceholder(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.CreateTaskErr = errors.New("boom")
	notes := &notify.Recorder{}
	rec := tasklist.NewReconciler(svc, nil, notes)

	err := rec.Create(context.Background(), service.TaskDraft{Title: "Buy milk"})

	if err == nil {
		t.Fatal("expected an error from the failed create")
	}
	if len(rec.Snapshot()) != 0 {
		t.Error("expected the placeholder to be removed after rollback")
	}

	got := notes.Drain()
	if len(got) != 1 || got[0].Level != notify.LevelError {
		t.Errorf("expected one error notification, got %v", got)
	}
}

func TestToggle_Success(t *testing.T) {
	svc := testutil.NewFakeService()
	seeded := svc.AddTask("Buy milk", false)
	notes := &notify.Recorder{}
	rec := tasklist.NewReconciler(svc, nil, notes)
	if err := rec.Load(context.Background()); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	if err := rec.Toggle(context.Background(), seeded.ID); err != nil {
		t.Fatalf("unexpected toggle error: %v", err)
	}

	tasks := rec.Snapshot()
	if !tasks[0].Completed || tasks[0].Status != service.StatusCompleted {
		t.Errorf("expected completed task, got completed=%v status=%q", tasks[0].Completed, tasks[0].Status)
	}
	checkConsistent(t, tasks)

	got := notes.Drain()
	if len(got) != 1 || got[0].Message != "Task marked as completed" {
		t.Errorf("expected a completion notification, got %v", got)
	}
}

func TestToggle_RollbackRestoresPreToggleValues(t *testing.T) {
	svc := testutil.NewFakeService()
	seeded := svc.AddTask("Buy milk", true)
	svc.ToggleTaskErr = errors.New("boom")
	notes := &notify.Recorder{}
	rec := tasklist.NewReconciler(svc, nil, notes)
	if err := rec.Load(context.Background()); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	if err := rec.Toggle(context.Background(), seeded.ID); err == nil {
		t.Fatal("expected an error from the failed toggle")
	}

	tasks := rec.Snapshot()
	if !tasks[0].Completed || tasks[0].Status != service.StatusCompleted {
		t.Errorf("expected pre-toggle values restored, got completed=%v status=%q", tasks[0].Completed, tasks[0].Status)
	}
	checkConsistent(t, tasks)
}

func TestToggle_NotFound(t *testing.T) {
	svc := testutil.NewFakeService()
	rec := tasklist.NewReconciler(svc, nil, nil)

	err := rec.Toggle(context.Background(), "missing")

	if !errors.Is(err, tasklist.ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestUpdate_Success(t *testing.T) {
	svc := testutil.NewFakeService()
	seeded := svc.AddTask("Buy milk", false)
	notes := &notify.Recorder{}
	rec := tasklist.NewReconciler(svc, nil, notes)
	if err := rec.Load(context.Background()); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	draft := service.TaskDraft{
		Title:    "Buy oat milk",
		Priority: service.PriorityHigh,
		Status:   service.StatusInProgress,
	}
	if err := rec.Update(context.Background(), seeded.ID, draft); err != nil {
		t.Fatalf("unexpected update error: %v", err)
	}

	tasks := rec.Snapshot()
	if tasks[0].Title != "Buy oat milk" {
		t.Errorf("expected updated title, got %q", tasks[0].Title)
	}
	if tasks[0].Priority != service.PriorityHigh || tasks[0].Status != service.StatusInProgress {
		t.Errorf("expected updated priority and status, got %q, %q", tasks[0].Priority, tasks[0].Status)
	}
	checkConsistent(t, tasks)

	got := notes.Drain()
	if len(got) != 1 || got[0].Message != "Task updated" {
		t.Errorf("expected a 'Task updated' notification, got %v", got)
	}
}

func TestUpdate_RollbackRestoresSnapshot(t *testing.T) {
	svc := testutil.NewFakeService()
	seeded := svc.AddTask("Buy milk", false)
	svc.UpdateTaskErr = errors.New("boom")
	rec := tasklist.NewReconciler(svc, nil, nil)
	if err := rec.Load(context.Background()); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	draft := service.TaskDraft{Title: "Buy oat milk", Status: service.StatusCompleted}
	if err := rec.Update(context.Background(), seeded.ID, draft); err == nil {
		t.Fatal("expected an error from the failed update")
	}

	tasks := rec.Snapshot()
	if tasks[0].Title != "Buy milk" || tasks[0].Completed {
		t.Errorf("expected pre-update snapshot restored, got %+v", tasks[0])
	}
}

func TestUpdate_EmptyTitle(t *testing.T) {
	svc := testutil.NewFakeService()
	seeded := svc.AddTask("Buy milk", false)
	rec := tasklist.NewReconciler(svc, nil, nil)
	if err := rec.Load(context.Background()); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	err := rec.Update(context.Background(), seeded.ID, service.TaskDraft{Title: ""})

	if !errors.Is(err, tasklist.ErrEmptyTitle) {
		t.Errorf("expected ErrEmptyTitle, got %v", err)
	}
}

func TestDelete_Success(t *testing.T) {
	svc := testutil.NewFakeService()
	seeded := svc.AddTask("Buy milk", false)
	notes := &notify.Recorder{}
	rec := tasklist.NewReconciler(svc, nil, notes)
	if err := rec.Load(context.Background()); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	if err := rec.Delete(context.Background(), seeded.ID); err != nil {
		t.Fatalf("unexpected delete error: %v", err)
	}

	if len(rec.Snapshot()) != 0 {
		t.Error("expected the task to be removed")
	}

	got := notes.Drain()
	if len(got) != 1 || got[0].Message != "Task deleted" {
		t.Errorf("expected a 'Task deleted' notification, got %v", got)
	}
}

func TestDelete_RollbackReinsertsOnce(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Buy milk", false)
	target := svc.AddTask("Buy eggs", false)
	svc.DeleteTaskErr = errors.New("boom")
	rec := tasklist.NewReconciler(svc, nil, nil)
	if err := rec.Load(context.Background()); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	if err := rec.Delete(context.Background(), target.ID); err == nil {
		t.Fatal("expected an error from the failed delete")
	}

	tasks := rec.Snapshot()
	count := 0
	for _, task := range tasks {
		if task.ID == target.ID {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected the task to be present exactly once after rollback, found %d", count)
	}
	if len(tasks) != 2 {
		t.Errorf("expected 2 tasks after rollback, got %d", len(tasks))
	}
}

func TestSessionExpiry_InvalidatesWithoutRollback(t *testing.T) {
	svc := testutil.NewFakeService()
	seeded := svc.AddTask("Buy milk", false)
	inv := &fakeInvalidator{}
	notes := &notify.Recorder{}
	rec := tasklist.NewReconciler(svc, inv, notes)
	if err := rec.Load(context.Background()); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	svc.SetAuthenticated(false)
	err := rec.Toggle(context.Background(), seeded.ID)

	if !errors.Is(err, service.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if inv.calls != 1 {
		t.Errorf("expected exactly one invalidation, got %d", inv.calls)
	}

	// The optimistic flip stays as shown; expiry does not roll back.
	tasks := rec.Snapshot()
	if !tasks[0].Completed {
		t.Error("expected optimistic state to remain visible after session expiry")
	}

	got := notes.Drain()
	if len(got) != 1 || got[0].Level != notify.LevelError {
		t.Errorf("expected one error notification, got %v", got)
	}
}

func TestMarkStaleAndClear(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Buy milk", false)
	rec := tasklist.NewReconciler(svc, nil, nil)
	if err := rec.Load(context.Background()); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	rec.MarkStale()
	if !rec.Stale() {
		t.Error("expected Stale after MarkStale")
	}
	if len(rec.Snapshot()) != 1 {
		t.Error("expected the list to stay visible while stale")
	}

	// A successful reload clears staleness.
	if err := rec.Load(context.Background()); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if rec.Stale() {
		t.Error("expected staleness cleared by a successful load")
	}

	rec.Clear()
	if len(rec.Snapshot()) != 0 || rec.Loaded() {
		t.Error("expected Clear to discard the list")
	}
}

func TestOverlappingCreates_ResolveInCompletionOrder(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.Gate = make(chan struct{})
	rec := tasklist.NewReconciler(svc, nil, nil)

	done := make(chan error, 2)
	go func() {
		done <- rec.Create(context.Background(), service.TaskDraft{Title: "first"})
	}()
	go func() {
		done <- rec.Create(context.Background(), service.TaskDraft{Title: "second"})
	}()

	// Both placeholders visible before either call resolves.
	waitFor(t, func() bool { return len(rec.Snapshot()) == 2 })
	for _, task := range rec.Snapshot() {
		if !strings.HasPrefix(task.ID, tasklist.TempIDPrefix) {
			t.Errorf("expected placeholder id while in flight, got %q", task.ID)
		}
	}

	svc.Gate <- struct{}{}
	svc.Gate <- struct{}{}
	if err := <-done; err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}

	// Each resolution replaced its own placeholder; neither stomped the other.
	tasks := rec.Snapshot()
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	for _, task := range tasks {
		if strings.HasPrefix(task.ID, tasklist.TempIDPrefix) {
			t.Errorf("placeholder id still visible after resolution: %q", task.ID)
		}
	}
	titles := map[string]bool{tasks[0].Title: true, tasks[1].Title: true}
	if !titles["first"] || !titles["second"] {
		t.Errorf("expected both tasks present, got %v", titles)
	}
}
