// Package notify is the sink for short-lived user-facing messages.
package notify

import (
	"fmt"
	"io"
	"sync"
)

// Level classifies a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notification is one enqueued message.
type Notification struct {
	Level   Level
	Message string
}

// Notifier receives notifications emitted by the reconciler and the views.
type Notifier interface {
	Notify(level Level, message string)
}

// Func adapts a function to the Notifier interface.
type Func func(level Level, message string)

func (f Func) Notify(level Level, message string) { f(level, message) }

// Discard drops every notification.
var Discard Notifier = Func(func(Level, string) {})

// Recorder keeps notifications in memory. Used by tests and by the dashboard,
// which drains it on every frame.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

// Notify implements Notifier.
func (r *Recorder) Notify(level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, Notification{Level: level, Message: message})
}

// All returns a copy of every recorded notification in order.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Drain returns the recorded notifications and clears the recorder.
func (r *Recorder) Drain() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.items
	r.items = nil
	return out
}

// Writer prints notifications to an io.Writer, one per line.
// Error-level messages are prefixed so they stand out in plain CLI output.
type Writer struct {
	Out io.Writer
}

// Notify implements Notifier.
func (w *Writer) Notify(level Level, message string) {
	if level == LevelError {
		fmt.Fprintf(w.Out, "error: %s\n", message)
		return
	}
	fmt.Fprintln(w.Out, message)
}
