package notify

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/johnrirwin/bizregistry/internal/logging"
)

// Severity is the visual weight of a notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// DefaultDuration is how long a notification stays visible.
const DefaultDuration = 4 * time.Second

// Notification is one transient user-facing message.
type Notification struct {
	Message  string
	Severity Severity
	Duration time.Duration
}

// Notifier shows messages to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Success builds a success notification with the default duration.
func Success(msg string) Notification {
	return Notification{Message: msg, Severity: SeveritySuccess, Duration: DefaultDuration}
}

// Warning builds a warning notification with the default duration.
func Warning(msg string) Notification {
	return Notification{Message: msg, Severity: SeverityWarning, Duration: DefaultDuration}
}

// Danger builds an error notification with the default duration.
func Danger(msg string) Notification {
	return Notification{Message: msg, Severity: SeverityDanger, Duration: DefaultDuration}
}

// Console writes notifications as single lines, for terminal use.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsole creates a console notifier writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Notify(ctx context.Context, n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := "•"
	switch n.Severity {
	case SeveritySuccess:
		prefix = "✔"
	case SeverityWarning:
		prefix = "!"
	case SeverityDanger:
		prefix = "✖"
	}
	fmt.Fprintf(c.w, "%s %s\n", prefix, n.Message)
}

// Log forwards notifications to the structured logger.
type Log struct {
	logger *logging.Logger
}

// NewLog creates a logging notifier.
func NewLog(logger *logging.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Notify(ctx context.Context, n Notification) {
	fields := logging.WithFields(map[string]interface{}{
		"severity": string(n.Severity),
		"duration": n.Duration.String(),
	})
	switch n.Severity {
	case SeverityDanger:
		l.logger.Error(n.Message, fields)
	case SeverityWarning:
		l.logger.Warn(n.Message, fields)
	default:
		l.logger.Info(n.Message, fields)
	}
}

// Recorder keeps every notification. Tests use it to assert on what the user saw.
type Recorder struct {
	mu   sync.Mutex
	sent []Notification
}

func (r *Recorder) Notify(ctx context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.sent...)
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return Notification{}, false
	}
	return r.sent[len(r.sent)-1], true
}

// Multi fans a notification out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, notifier := range m {
		notifier.Notify(ctx, n)
	}
}
