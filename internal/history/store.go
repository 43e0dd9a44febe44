// SPDX-License-Identifier: MPL-2.0

package history

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultFile is the history location relative to the launch directory.
const DefaultFile = ".flowrun/history"

type (
	// Clock supplies the current time.
	Clock interface {
		Now() time.Time
	}

	realClock struct{}

	// Store reads and writes a history file.
	Store struct {
		path  string
		clock Clock
		pick  func(n int) int

		// mu serializes writers within the process; the lock file covers
		// other processes.
		mu sync.Mutex
	}

	// Option configures a Store.
	Option func(*Store)
)

func (realClock) Now() time.Time { return time.Now() }

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithPicker replaces the random source used for generated names.
func WithPicker(pick func(n int) int) Option {
	return func(s *Store) { s.pick = pick }
}

// NewStore creates a store for the history file at path. The file and its
// directory are created on first write.
func NewStore(path string, opts ...Option) *Store {
	s := &Store{path: path, clock: realClock{}, pick: rand.IntN}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the history file path.
func (s *Store) Path() string { return s.path }

// Records returns every record in file order. A missing file is an empty history.
func (s *Store) Records() ([]Record, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, err := decodeRecord(line, lineNo)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return records, nil
}

// ExistsByName reports whether a run called name is recorded.
func (s *Store) ExistsByName(name string) (bool, error) {
	_, found, err := s.FindByName(name)
	return found, err
}

// FindByName returns the most recent record called name.
func (s *Store) FindByName(name string) (Record, bool, error) {
	return s.findLast(func(r Record) bool { return r.RunName == name })
}

// FindBySession returns the most recent record of a session.
func (s *Store) FindBySession(id uuid.UUID) (Record, bool, error) {
	return s.findLast(func(r Record) bool { return r.SessionID == id })
}

// Last returns the most recent record.
func (s *Store) Last() (Record, bool, error) {
	return s.findLast(func(Record) bool { return true })
}

func (s *Store) findLast(match func(Record) bool) (Record, bool, error) {
	records, err := s.Records()
	if err != nil {
		return Record{}, false, err
	}
	for i := len(records) - 1; i >= 0; i-- {
		if match(records[i]) {
			return records[i], true, nil
		}
	}
	return Record{}, false, nil
}

// Lookup finds the record a resume request refers to: the last run for an
// empty key, otherwise a session id or a run name.
func (s *Store) Lookup(key string) (Record, bool, error) {
	if key == "" {
		return s.Last()
	}
	if id, err := uuid.Parse(key); err == nil {
		if rec, found, err := s.FindBySession(id); err != nil || found {
			return rec, found, err
		}
	}
	return s.FindByName(key)
}

// GenerateNextName returns a random adjective_scientist name that is not
// in the history yet.
func (s *Store) GenerateNextName() (string, error) {
	records, err := s.Records()
	if err != nil {
		return "", err
	}

	used := make(map[string]bool, len(records))
	for _, r := range records {
		used[r.RunName] = true
	}
	return nextName(s.pick, func(name string) bool { return used[name] }), nil
}

// Start appends an in-progress record and returns it. A zero timestamp is
// filled from the store clock.
func (s *Store) Start(rec Record) (Record, error) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = s.clock.Now()
	}
	rec.Status = StatusRunning
	rec.Duration = 0

	err := s.withLock(func() error {
		f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		if _, err := f.WriteString(rec.encode() + "\n"); err != nil {
			f.Close()
			return fmt.Errorf("failed to append history: %w", err)
		}
		return f.Close()
	})
	return rec, err
}

// Finish sets the status and duration of the in-progress record of a run.
func (s *Store) Finish(runName string, session uuid.UUID, status Status) error {
	return s.withLock(func() error {
		records, err := s.Records()
		if err != nil {
			return err
		}

		found := false
		for i := len(records) - 1; i >= 0; i-- {
			r := &records[i]
			if r.RunName == runName && r.SessionID == session && r.Status == StatusRunning {
				r.Status = status
				r.Duration = s.clock.Now().Sub(r.Timestamp)
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("no running record for %s", runName)
		}
		return s.rewrite(records)
	})
}

// rewrite replaces the history file atomically.
func (s *Store) rewrite(records []Record) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".history-*")
	if err != nil {
		return fmt.Errorf("failed to rewrite history: %w", err)
	}
	defer os.Remove(tmp.Name()) // No-op after a successful rename

	w := bufio.NewWriter(tmp)
	for _, r := range records {
		if _, err := w.WriteString(r.encode() + "\n"); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to rewrite history: %w", err)
		}
	}
	if err := errors.Join(w.Flush(), tmp.Close()); err != nil {
		return fmt.Errorf("failed to rewrite history: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to rewrite history: %w", err)
	}
	return nil
}

func (s *Store) withLock(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	lock, err := acquireLock(s.path + ".lock")
	if err != nil && !errors.Is(err, errFlockUnavailable) {
		return err
	}
	if err == nil {
		defer lock.Release()
	} else {
		slog.Debug("history lock unavailable, relying on in-process lock", "path", s.path)
	}

	return fn()
}
