package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger appends activity events to a JSON-lines file. A nil Logger or an
// empty path turns every call into a no-op.
type Logger struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

type Event struct {
	Timestamp string            `json:"timestamp"`
	Operation string            `json:"operation"`
	Action    string            `json:"action,omitempty"`
	RunID     string            `json:"runId,omitempty"`
	Status    string            `json:"status"`
	Code      string            `json:"code,omitempty"`
	ExitCode  *int              `json:"exitCode,omitempty"`
	Message   string            `json:"message,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// Operations recorded in the activity log.
const (
	OpCommand  = "command"
	OpAction   = "action"
	OpBatch    = "batch"
	OpSchedule = "schedule"
	OpConfig   = "config"
)

func New(path string) *Logger {
	return &Logger{path: path, now: time.Now}
}

func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

func (l *Logger) Log(ev Event) error {
	if l == nil || l.path == "" {
		return nil
	}
	ev.Timestamp = l.now().UTC().Format(time.RFC3339Nano)
	blob, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(append(blob, '\n')); err != nil {
		return err
	}
	return nil
}

// Exit returns a pointer suitable for Event.ExitCode.
func Exit(code int) *int {
	return &code
}
