package service

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"jobpilot/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

// Event types forwarded to the external workflow engine.
const (
	EventJobApproved      = "job.approved"
	EventChangesRequested = "job.changes_requested"
	EventJobRejected      = "job.rejected"
	EventTaskResolved     = "local_task.resolved"
)

type WorkflowEvent struct {
	Type       string          `json:"type"`
	JobID      string          `json:"job_id"`
	Status     model.JobStatus `json:"status,omitempty"`
	Detail     string          `json:"detail,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// NotifierService is the best-effort side channel to the external workflow
// engine. It is dispatched only after the durable write has committed, and
// every failure is logged and swallowed: a dead workflow engine must never
// abort or roll back a local state change.
type NotifierService struct {
	webhookURL string
	queueName  string
	rdb        *redis.Client
	client     *http.Client
}

func NewNotifierService(webhookURL, queueName string, rdb *redis.Client) *NotifierService {
	return &NotifierService{
		webhookURL: webhookURL,
		queueName:  queueName,
		rdb:        rdb,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify posts the event to the workflow webhook and, when Redis is wired,
// pushes it onto the events list as a secondary channel. Fire-and-forget:
// there is no retry queue and no error return.
func (s *NotifierService) Notify(ctx context.Context, ev WorkflowEvent) {
	ev.OccurredAt = time.Now().UTC()
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("WARN: Notifier could not marshal event %s for job %s: %v", ev.Type, ev.JobID, err)
		return
	}

	if s.webhookURL != "" {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(payload))
		if err != nil {
			log.Printf("WARN: Notifier could not build webhook request for job %s: %v", ev.JobID, err)
		} else {
			req.Header.Set("Content-Type", "application/json")
			resp, err := s.client.Do(req)
			if err != nil {
				log.Printf("WARN: Notifier webhook call failed for job %s (%s): %v", ev.JobID, ev.Type, err)
			} else {
				resp.Body.Close()
				if resp.StatusCode >= http.StatusMultipleChoices {
					log.Printf("WARN: Notifier webhook for job %s returned status %d", ev.JobID, resp.StatusCode)
				}
			}
		}
	}

	if s.rdb != nil {
		if err := s.rdb.LPush(ctx, s.queueName, payload).Err(); err != nil {
			log.Printf("WARN: Notifier could not push event %s to Redis: %v", ev.Type, err)
		}
	}
}

type NotifierHealth struct {
	WebhookConfigured bool `json:"webhook_configured"`
	RedisConnected    bool `json:"redis_connected"`
}

// Health is non-authoritative: it reports configuration and a Redis ping,
// not whether the workflow engine would actually accept an event.
func (s *NotifierService) Health(ctx context.Context) NotifierHealth {
	h := NotifierHealth{WebhookConfigured: s.webhookURL != ""}
	if s.rdb != nil {
		h.RedisConnected = s.rdb.Ping(ctx).Err() == nil
	}
	return h
}
