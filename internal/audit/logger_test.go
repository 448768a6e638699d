package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLogNoopForNilLoggerAndEmptyPath(t *testing.T) {
	var nilLogger *Logger
	if err := nilLogger.Log(Event{Operation: OpCommand}); err != nil {
		t.Fatalf("nil logger should be noop: %v", err)
	}
	if err := New("").Log(Event{Operation: OpCommand}); err != nil {
		t.Fatalf("empty-path logger should be noop: %v", err)
	}
	if nilLogger.Path() != "" {
		t.Fatalf("nil logger path should be empty")
	}
}

func TestLogWritesJSONLines(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "log", "auri.log")
	logger := New(logPath)

	first := Event{
		Operation: OpAction,
		Action:    "update_system",
		RunID:     "01J00000000000000000000000",
		Status:    "failed",
		Code:      "ACT_EXEC",
		ExitCode:  Exit(1),
		Message:   "exit status 1",
		Fields: map[string]string{
			"source": "batch",
		},
	}
	second := Event{
		Operation: OpBatch,
		Status:    "ok",
	}

	if err := logger.Log(first); err != nil {
		t.Fatalf("log first event: %v", err)
	}
	if err := logger.Log(second); err != nil {
		t.Fatalf("log second event: %v", err)
	}

	blob, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(blob)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(lines))
	}

	var gotFirst Event
	if err := json.Unmarshal([]byte(lines[0]), &gotFirst); err != nil {
		t.Fatalf("unmarshal first event: %v", err)
	}
	if gotFirst.Timestamp == "" {
		t.Fatalf("expected timestamp to be set")
	}
	if _, err := time.Parse(time.RFC3339Nano, gotFirst.Timestamp); err != nil {
		t.Fatalf("timestamp should be RFC3339Nano: %v", err)
	}
	if gotFirst.Operation != first.Operation || gotFirst.Action != first.Action || gotFirst.Status != first.Status {
		t.Fatalf("unexpected first event body: %+v", gotFirst)
	}
	if gotFirst.ExitCode == nil || *gotFirst.ExitCode != 1 {
		t.Fatalf("unexpected exit code: %+v", gotFirst.ExitCode)
	}
	if gotFirst.RunID != first.RunID || gotFirst.Code != first.Code {
		t.Fatalf("unexpected first event metadata: %+v", gotFirst)
	}
	if gotFirst.Fields["source"] != "batch" {
		t.Fatalf("unexpected first event fields: %+v", gotFirst.Fields)
	}

	var gotSecond Event
	if err := json.Unmarshal([]byte(lines[1]), &gotSecond); err != nil {
		t.Fatalf("unmarshal second event: %v", err)
	}
	if gotSecond.ExitCode != nil {
		t.Fatalf("exit code should be omitted when unset")
	}
}

func TestLogAppendsAcrossLoggers(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "auri.log")
	if err := New(logPath).Log(Event{Operation: OpCommand, Status: "started"}); err != nil {
		t.Fatal(err)
	}
	if err := New(logPath).Log(Event{Operation: OpCommand, Status: "ok"}); err != nil {
		t.Fatal(err)
	}
	blob, _ := os.ReadFile(logPath)
	if n := strings.Count(string(blob), "\n"); n != 2 {
		t.Fatalf("expected 2 appended lines, got %d", n)
	}
}

func TestLogMkdirAllFailure(t *testing.T) {
	tmp := t.TempDir()
	blockedPath := filepath.Join(tmp, "blocked")
	if err := os.WriteFile(blockedPath, []byte("x"), 0o644); err != nil {
		t.Fatalf("create blocking file: %v", err)
	}

	logger := New(filepath.Join(blockedPath, "auri.log"))
	if err := logger.Log(Event{Operation: OpCommand}); err == nil {
		t.Fatalf("expected mkdir failure")
	}
}

func TestLogOpenFileFailure(t *testing.T) {
	tmp := t.TempDir()
	dirPath := filepath.Join(tmp, "log-dir")
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		t.Fatalf("create directory path: %v", err)
	}

	logger := New(dirPath)
	if err := logger.Log(Event{Operation: OpCommand}); err == nil {
		t.Fatalf("expected open file failure")
	}
}
