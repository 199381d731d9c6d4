package worker

import (
	"context"
	"log"
	"os/exec"
	"strings"
	"time"

	"jobpilot/internal/domain/model"
)

// TaskRunner executes one local task and returns its result and logs. The
// context carries the per-task timeout; a runner must stop when it fires.
type TaskRunner func(ctx context.Context, task model.LocalTask) (result string, logs string, err error)

// AgentWorker is the polling consumer of the local-task queue: fetch the
// pending list, process the oldest task, submit the result, sleep, repeat.
// At most one task runs at a time; the next poll does not start until the
// current task resolves or its timeout fires.
type AgentWorker struct {
	client      *Client
	runner      TaskRunner
	interval    time.Duration
	taskTimeout time.Duration
}

func NewAgentWorker(client *Client, runner TaskRunner, interval, taskTimeout time.Duration) *AgentWorker {
	return &AgentWorker{client: client, runner: runner, interval: interval, taskTimeout: taskTimeout}
}

func (w *AgentWorker) Start(ctx context.Context) {
	log.Printf("Local executor agent started, polling every %s", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Local executor agent stopping...")
			return
		case <-ticker.C:
			w.pollOnce(ctx)
		}
	}
}

func (w *AgentWorker) pollOnce(ctx context.Context) {
	tasks, err := w.client.PendingTasks(ctx)
	if err != nil {
		log.Printf("ERROR: Failed to fetch pending tasks: %v", err)
		return
	}
	if len(tasks) == 0 {
		return
	}

	// Oldest first, one at a time. The rest of the list stays pending and
	// shows up again on the next poll.
	task := tasks[0]
	log.Printf("INFO: Agent picked up local task %s (job %s)", task.ID, task.JobID)

	taskCtx, cancel := context.WithTimeout(ctx, w.taskTimeout)
	result, logs, runErr := w.runner(taskCtx, task)
	cancel()

	success := runErr == nil
	if runErr != nil {
		logs = strings.TrimSpace(logs + "\n" + runErr.Error())
		log.Printf("WARN: Local task %s failed: %v", task.ID, runErr)
	}

	if err := w.client.SubmitResult(ctx, task.ID, result, logs, success); err != nil {
		// A concurrent poller may have resolved it first; delivery is
		// at-least-once but resolution is exactly-once, so losing the race is
		// normal and the work is simply discarded.
		log.Printf("WARN: Could not submit result for task %s: %v", task.ID, err)
		return
	}
	log.Printf("INFO: Local task %s submitted (success: %t)", task.ID, success)
}

// ShellRunner executes task instructions through the shell and reports the
// combined output.
func ShellRunner(ctx context.Context, task model.LocalTask) (string, string, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", task.Instructions)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", string(output), err
	}
	return string(output), "command completed", nil
}
