// Package docstore is the single-writer document backend: all three
// collections live in one JSON file rewritten whole on every mutation.
// Atomicity comes from a process-wide mutex plus a temp-file rename, under a
// single-process assumption; it is not safe for concurrent processes without
// external locking. With no path configured the store is memory-only and
// nothing survives a restart, which is the fallback mode used by tests and
// local development.
package docstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"jobpilot/internal/common"
	"jobpilot/internal/domain/model"
)

type state struct {
	Jobs       []*model.Job       `json:"jobs"`
	Steps      []*model.Step      `json:"steps"`
	LocalTasks []*model.LocalTask `json:"local_tasks"`
}

type Store struct {
	mu    sync.Mutex
	path  string // empty means memory-only
	state state
}

// Open loads (or creates) a file-backed store at path.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("docstore: read %s: %v: %w", path, err, common.ErrStorage)
	}
	if err := json.Unmarshal(data, &s.state); err != nil {
		return nil, fmt.Errorf("docstore: parse %s: %v: %w", path, err, common.ErrStorage)
	}
	return s, nil
}

// NewMemory returns a store with no backing file. Each call builds an
// independent instance, so test runs never share state.
func NewMemory() *Store {
	return &Store{}
}

// Ping reports backend reachability for the health endpoint: the backing file
// location must be writable (memory-only stores are always reachable).
func (s *Store) Ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path == "" {
		return nil
	}
	dir := filepath.Dir(s.path)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("docstore: %v: %w", err, common.ErrStorage)
	}
	return nil
}

// persist must be called with the mutex held.
func (s *Store) persist() error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(&s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("docstore: marshal: %v: %w", err, common.ErrStorage)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("docstore: write %s: %v: %w", tmp, err, common.ErrStorage)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("docstore: rename %s: %v: %w", tmp, err, common.ErrStorage)
	}
	return nil
}

func now() time.Time {
	return time.Now().UTC()
}

func cloneJob(j *model.Job) *model.Job {
	c := *j
	return &c
}

func cloneStep(st *model.Step) *model.Step {
	c := *st
	c.Logs = cloneStr(st.Logs)
	c.Evidence = cloneStr(st.Evidence)
	return &c
}

func cloneTask(t *model.LocalTask) *model.LocalTask {
	c := *t
	c.StepID = cloneStr(t.StepID)
	c.Result = cloneStr(t.Result)
	c.Logs = cloneStr(t.Logs)
	return &c
}

func cloneStr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func (s *Store) findJob(id string) *model.Job {
	for _, j := range s.state.Jobs {
		if j.ID == id {
			return j
		}
	}
	return nil
}

func (s *Store) findStep(id string) *model.Step {
	for _, st := range s.state.Steps {
		if st.ID == id {
			return st
		}
	}
	return nil
}

func (s *Store) findTask(id string) *model.LocalTask {
	for _, t := range s.state.LocalTasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}
