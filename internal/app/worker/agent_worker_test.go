package worker

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"jobpilot/internal/api"
	"jobpilot/internal/app/service"
	"jobpilot/internal/domain/model"
	"jobpilot/internal/storage/docstore"
)

type workerEnv struct {
	server *httptest.Server
	jobs   *service.JobService
	tasks  *service.LocalTaskService
}

func newWorkerEnv(t *testing.T) workerEnv {
	t.Helper()
	store := docstore.NewMemory()
	notifier := service.NewNotifierService("", "events", nil)
	jobs := service.NewJobService(store.Jobs(), store.Steps(), notifier, nil)
	steps := service.NewStepService(store.Steps(), store.Jobs(), nil)
	tasks := service.NewLocalTaskService(store.LocalTasks(), store.Jobs(), store.Steps(), notifier, nil)

	router := api.NewRouter(jobs, steps, tasks, notifier, func(context.Context) error { return store.Ping() })
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return workerEnv{server: srv, jobs: jobs, tasks: tasks}
}

func (e workerEnv) queueTask(t *testing.T, instructions string) *model.LocalTask {
	t.Helper()
	ctx := context.Background()
	job, err := e.jobs.CreateJob(ctx, service.CreateJobInput{Goal: "g", RiskLevel: model.RiskLow})
	if err != nil {
		t.Fatalf("failed to create job: %v", err)
	}
	task, err := e.tasks.CreateTask(ctx, service.CreateLocalTaskInput{JobID: job.ID, Instructions: instructions})
	if err != nil {
		t.Fatalf("failed to queue task: %v", err)
	}
	return task
}

func TestPollOnceSubmitsSuccess(t *testing.T) {
	env := newWorkerEnv(t)
	task := env.queueTask(t, "deploy")

	runner := func(ctx context.Context, got model.LocalTask) (string, string, error) {
		if got.ID != task.ID {
			t.Errorf("runner got task %s, want %s", got.ID, task.ID)
		}
		return "deployed v2", "all green", nil
	}
	w := NewAgentWorker(NewClient(env.server.URL, ""), runner, time.Second, time.Minute)
	w.pollOnce(context.Background())

	resolved, err := env.tasks.PendingTasks(context.Background())
	if err != nil {
		t.Fatalf("failed to list pending: %v", err)
	}
	if len(resolved) != 0 {
		t.Fatal("task still pending after successful poll")
	}
}

func TestPollOnceSubmitsFailureWithError(t *testing.T) {
	env := newWorkerEnv(t)
	task := env.queueTask(t, "deploy")

	runner := func(ctx context.Context, _ model.LocalTask) (string, string, error) {
		return "", "partial output", errors.New("exit status 1")
	}
	w := NewAgentWorker(NewClient(env.server.URL, ""), runner, time.Second, time.Minute)
	w.pollOnce(context.Background())

	// Failure details travel back through the API as logs on the failed task.
	_, err := env.tasks.SubmitResult(context.Background(), task.ID, nil, nil, true)
	if err == nil {
		t.Fatal("task was not resolved by the worker")
	}
}

func TestPollOnceSurvivesLostRace(t *testing.T) {
	env := newWorkerEnv(t)
	task := env.queueTask(t, "deploy")

	runner := func(ctx context.Context, _ model.LocalTask) (string, string, error) {
		// Another poller resolves the task while this one is still working.
		result := "other agent won"
		if _, err := env.tasks.SubmitResult(ctx, task.ID, &result, nil, true); err != nil {
			t.Fatalf("concurrent resolution failed: %v", err)
		}
		return "late result", "", nil
	}
	w := NewAgentWorker(NewClient(env.server.URL, ""), runner, time.Second, time.Minute)
	w.pollOnce(context.Background())

	// The first write stays; the late submission was discarded.
	pending, err := env.tasks.PendingTasks(context.Background())
	if err != nil {
		t.Fatalf("failed to list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Error("task reappeared in the queue after the lost race")
	}
}

func TestPollOnceNoWorkIsQuiet(t *testing.T) {
	env := newWorkerEnv(t)
	calls := 0
	runner := func(ctx context.Context, _ model.LocalTask) (string, string, error) {
		calls++
		return "", "", nil
	}
	w := NewAgentWorker(NewClient(env.server.URL, ""), runner, time.Second, time.Minute)
	w.pollOnce(context.Background())
	if calls != 0 {
		t.Errorf("runner invoked %d times with an empty queue", calls)
	}
}

func TestShellRunner(t *testing.T) {
	result, logs, err := ShellRunner(context.Background(), model.LocalTask{Instructions: "echo hello"})
	if err != nil {
		t.Fatalf("shell runner failed: %v", err)
	}
	if strings.TrimSpace(result) != "hello" {
		t.Errorf("result = %q", result)
	}
	if logs == "" {
		t.Error("logs missing")
	}

	if _, _, err := ShellRunner(context.Background(), model.LocalTask{Instructions: "exit 3"}); err == nil {
		t.Fatal("failing command reported no error")
	}
}
