package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"jobpilot/internal/app/worker"
	"jobpilot/internal/platform/config"
)

// The local executor agent: polls the server for pending local tasks, runs
// the instructions through the shell, and submits results. Timeout and retry
// policy live here, on the consumer side, not in the server's state machine.
func main() {
	config.Load()

	client := worker.NewClient(config.AppConfig.APIBaseURL, config.AppConfig.AgentToken)
	agent := worker.NewAgentWorker(
		client,
		worker.ShellRunner,
		config.AppConfig.AgentPollInterval,
		config.AppConfig.AgentTaskTimeout,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("Agent polling %s", config.AppConfig.APIBaseURL)
	agent.Start(ctx)
}
