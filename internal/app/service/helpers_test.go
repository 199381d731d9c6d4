package service

import (
	"path/filepath"
	"testing"

	"jobpilot/internal/storage/docstore"
)

type testEnv struct {
	jobs  *JobService
	steps *StepService
	tasks *LocalTaskService
}

// backends builds the full service stack over each interchangeable store so
// every behavioral test also checks backend parity. The Postgres
// implementation satisfies the same repository contract; it needs a live
// database and is exercised by the schema plus these shared semantics.
func backends(t *testing.T) map[string]testEnv {
	t.Helper()

	fileStore, err := docstore.Open(filepath.Join(t.TempDir(), "store.json"))
	if err != nil {
		t.Fatalf("failed to open file store: %v", err)
	}

	stores := map[string]*docstore.Store{
		"memory": docstore.NewMemory(),
		"file":   fileStore,
	}

	envs := map[string]testEnv{}
	for name, store := range stores {
		notifier := NewNotifierService("", "events", nil)
		envs[name] = testEnv{
			jobs:  NewJobService(store.Jobs(), store.Steps(), notifier, nil),
			steps: NewStepService(store.Steps(), store.Jobs(), nil),
			tasks: NewLocalTaskService(store.LocalTasks(), store.Jobs(), store.Steps(), notifier, nil),
		}
	}
	return envs
}
