// Package store persists per-module kiosk state as a single JSON document
// keyed by module name. Values are opaque to the store; modules define their
// own shapes. Writes are atomic via temp-file-then-rename so a crash between
// writes leaves the last successful save intact.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// lastSavedKey is the reserved top-level key holding the save timestamp.
// It lives alongside the module entries, as the durable format requires.
const lastSavedKey = "last_saved"

// Store is a durable name -> opaque-JSON mapping backed by one file.
// The UI goroutine is the only writer; background workers never touch it.
type Store struct {
	path   string
	logger *slog.Logger

	mu   sync.Mutex
	data map[string]json.RawMessage
	nowFn func() time.Time
}

// Open loads the backing file at path. A missing or corrupt file degrades to
// an empty mapping; corruption is logged, never fatal.
func Open(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		path:   path,
		logger: logger,
		data:   make(map[string]json.RawMessage),
		nowFn:  time.Now,
	}
	s.load()
	return s
}

func (s *Store) load() {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("store: read failed, starting empty", "path", s.path, "error", err)
		}
		return
	}

	var data map[string]json.RawMessage
	if err := json.Unmarshal(raw, &data); err != nil {
		s.logger.Warn("store: corrupt data file, starting empty", "path", s.path, "error", err)
		return
	}
	s.data = data
}

// Get returns the raw stored value for name, or (nil, false) if absent.
func (s *Store) Get(name string) (json.RawMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.data[name]
	if !ok {
		return nil, false
	}
	out := make(json.RawMessage, len(v))
	copy(out, v)
	return out, true
}

// Set marshals value under name and saves immediately.
func (s *Store) Set(name string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("store: marshal %q: %w", name, err)
	}

	s.mu.Lock()
	s.data[name] = raw
	s.mu.Unlock()

	return s.Save()
}

// Save serializes the whole mapping plus a fresh timestamp and writes it
// atomically. Callers coalesce saves (screen transitions, shutdown) rather
// than calling per-tick.
func (s *Store) Save() error {
	s.mu.Lock()
	stamp, _ := json.Marshal(s.nowFn().Format(time.RFC3339))
	s.data[lastSavedKey] = stamp

	raw, err := json.MarshalIndent(s.data, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("store: marshal document: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("store: create data directory: %w", err)
	}
	if err := atomicWrite(s.path, raw); err != nil {
		return fmt.Errorf("store: write %s: %w", s.path, err)
	}
	return nil
}

// LastSaved returns the timestamp of the most recent save, if any.
func (s *Store) LastSaved() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.data[lastSavedKey]
	if !ok {
		return time.Time{}, false
	}
	var stamp string
	if err := json.Unmarshal(raw, &stamp); err != nil {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Backup writes a copy of the current document to path. If path is empty a
// timestamped sibling of the data file is used. Returns the backup path.
func (s *Store) Backup(path string) (string, error) {
	if path == "" {
		stamp := s.nowFn().Format("20060102_150405")
		path = filepath.Join(filepath.Dir(s.path), fmt.Sprintf("kiosk_backup_%s.json", stamp))
	}

	s.mu.Lock()
	raw, err := json.MarshalIndent(s.data, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("store: marshal backup: %w", err)
	}

	if err := atomicWrite(path, raw); err != nil {
		return "", fmt.Errorf("store: write backup %s: %w", path, err)
	}
	return path, nil
}

// Restore replaces the current document with the contents of a backup file
// and saves it to the primary path.
func (s *Store) Restore(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("store: read backup %s: %w", path, err)
	}

	var data map[string]json.RawMessage
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("store: parse backup %s: %w", path, err)
	}

	s.mu.Lock()
	s.data = data
	s.mu.Unlock()

	return s.Save()
}

// atomicWrite writes data to path via a temporary file in the same directory
// and a rename, so readers only ever see a complete document.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	success = true
	return nil
}
