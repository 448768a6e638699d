package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"auri/internal/audit"
	"auri/internal/fsutil"
)

// Store owns the batch and scheduler documents. Callers receive value
// copies and hand back whole documents to save.
type Store struct {
	BatchPath     string
	SchedulerPath string
	// Audit receives one event per recorded diagnostic; nil disables it.
	Audit *audit.Logger

	log         zerolog.Logger
	diagnostics []Diagnostic
}

func NewStore(paths Paths, log zerolog.Logger) *Store {
	return &Store{
		BatchPath:     paths.BatchConfig,
		SchedulerPath: paths.SchedulerConfig,
		log:           log.With().Str("component", "config").Logger(),
	}
}

// Diagnostics returns every recovery the store performed so far.
func (s *Store) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), s.diagnostics...)
}

func (s *Store) record(d Diagnostic) {
	s.diagnostics = append(s.diagnostics, d)
	s.log.Warn().Str("code", d.Code).Str("path", d.Path).Msg(d.Message)
	_ = s.Audit.Log(audit.Event{
		Operation: audit.OpConfig,
		Status:    "recovered",
		Code:      d.Code,
		Message:   d.Message,
		Fields:    map[string]string{"path": d.Path},
	})
}

// LoadBatch returns the batch document, writing the default first when the
// file is absent or malformed.
func (s *Store) LoadBatch() (BatchConfig, error) {
	data, err := readDocument(s.BatchPath)
	if err != nil {
		return BatchConfig{}, err
	}
	if data == nil {
		return s.ensureBatch()
	}
	cfg, err := ParseBatch(data)
	if err != nil {
		s.record(Diagnostic{Code: CodeMalformed, Path: s.BatchPath, Message: err.Error() + "; default restored"})
		return s.ensureBatch()
	}
	return cfg, nil
}

func (s *Store) ensureBatch() (BatchConfig, error) {
	cfg := DefaultBatch()
	if err := s.SaveBatch(cfg); err != nil {
		return BatchConfig{}, err
	}
	return cfg, nil
}

func (s *Store) SaveBatch(cfg BatchConfig) error {
	return writeDocument(s.BatchPath, NormalizeBatch(cfg))
}

// LoadScheduler returns the scheduler document with the same creation
// semantics as LoadBatch.
func (s *Store) LoadScheduler() (SchedulerConfig, error) {
	data, err := readDocument(s.SchedulerPath)
	if err != nil {
		return SchedulerConfig{}, err
	}
	if data == nil {
		return s.ensureScheduler()
	}
	cfg, diag, err := ParseScheduler(data)
	if err != nil {
		s.record(Diagnostic{Code: CodeMalformed, Path: s.SchedulerPath, Message: err.Error() + "; default restored"})
		return s.ensureScheduler()
	}
	if diag != "" {
		s.record(Diagnostic{Code: CodeIntervalDefault, Path: s.SchedulerPath, Message: diag})
	}
	return cfg, nil
}

func (s *Store) ensureScheduler() (SchedulerConfig, error) {
	cfg := DefaultScheduler()
	if err := s.SaveScheduler(cfg); err != nil {
		return SchedulerConfig{}, err
	}
	return cfg, nil
}

func (s *Store) SaveScheduler(cfg SchedulerConfig) error {
	cfg = NormalizeScheduler(cfg)
	if err := ValidateScheduler(cfg); err != nil {
		return err
	}
	return writeDocument(s.SchedulerPath, cfg)
}

type rawBatch struct {
	Actions *[]string `json:"actions"`
}

type rawScheduler struct {
	Actions  *[]string `json:"actions"`
	Enabled  *bool     `json:"enabled"`
	Interval *string   `json:"interval"`
}

// ParseBatch decodes a batch document; a missing actions key is malformed.
func ParseBatch(data []byte) (BatchConfig, error) {
	var raw rawBatch
	if err := json.Unmarshal(data, &raw); err != nil {
		return BatchConfig{}, fmt.Errorf("invalid document: %w", err)
	}
	if raw.Actions == nil {
		return BatchConfig{}, errors.New(`missing required key "actions"`)
	}
	return NormalizeBatch(BatchConfig{Actions: *raw.Actions}), nil
}

// ParseScheduler decodes a scheduler document. A missing or unknown interval
// is not malformed: it falls back to DefaultInterval and the returned
// diagnostic says so.
func ParseScheduler(data []byte) (SchedulerConfig, string, error) {
	var raw rawScheduler
	if err := json.Unmarshal(data, &raw); err != nil {
		return SchedulerConfig{}, "", fmt.Errorf("invalid document: %w", err)
	}
	if raw.Actions == nil {
		return SchedulerConfig{}, "", errors.New(`missing required key "actions"`)
	}
	if raw.Enabled == nil {
		return SchedulerConfig{}, "", errors.New(`missing required key "enabled"`)
	}
	cfg := SchedulerConfig{Actions: *raw.Actions, Enabled: *raw.Enabled, Interval: DefaultInterval}
	diag := ""
	switch {
	case raw.Interval == nil:
		diag = fmt.Sprintf("interval missing, using %s", DefaultInterval)
	default:
		if iv, ok := ParseInterval(*raw.Interval); ok {
			cfg.Interval = iv
		} else {
			diag = fmt.Sprintf("unknown interval %q, using %s", *raw.Interval, DefaultInterval)
		}
	}
	return NormalizeScheduler(cfg), diag, nil
}

// readDocument returns nil data when the file does not exist.
func readDocument(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}
	return data, nil
}

func writeDocument(path string, doc any) error {
	blob, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("CFG_ENCODE: %w", err)
	}
	blob = append(blob, '\n')
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &IOError{Op: "mkdir", Path: filepath.Dir(path), Err: err}
	}
	if err := fsutil.ReplaceWithBackup(path, blob, 0o644); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}
