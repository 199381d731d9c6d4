package handler

import (
	"context"
	"net/http"

	"jobpilot/internal/app/service"
	"jobpilot/internal/common"
)

type HealthHandler struct {
	storagePing func(ctx context.Context) error
	notifier    *service.NotifierService
}

func NewHealthHandler(storagePing func(ctx context.Context) error, notifier *service.NotifierService) *HealthHandler {
	return &HealthHandler{storagePing: storagePing, notifier: notifier}
}

type healthResponse struct {
	Status   string                 `json:"status"`
	Storage  string                 `json:"storage"`
	Notifier service.NotifierHealth `json:"notifier"`
}

// Health reports storage and notifier reachability. Non-authoritative: a
// passing check does not guarantee the next write will succeed.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Storage: "ok"}
	code := http.StatusOK

	if err := h.storagePing(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.Storage = err.Error()
		code = http.StatusServiceUnavailable
	}
	resp.Notifier = h.notifier.Health(r.Context())

	common.RespondWithJSON(w, code, resp)
}
