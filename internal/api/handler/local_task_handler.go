package handler

import (
	"net/http"

	"jobpilot/internal/app/service"
	"jobpilot/internal/common"

	"github.com/go-chi/chi/v5"
)

type LocalTaskHandler struct {
	taskService *service.LocalTaskService
}

func NewLocalTaskHandler(ts *service.LocalTaskService) *LocalTaskHandler {
	return &LocalTaskHandler{taskService: ts}
}

func (h *LocalTaskHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.createTask)          // POST /api/v1/local-tasks
	r.Get("/pending", h.pendingTasks)  // GET  /api/v1/local-tasks/pending
	r.Post("/{taskID}/result", h.submitResult)
}

func (h *LocalTaskHandler) createTask(w http.ResponseWriter, r *http.Request) {
	var req service.CreateLocalTaskInput
	if err := common.DecodeJSONBody(r, &req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	task, err := h.taskService.CreateTask(r.Context(), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, task)
}

func (h *LocalTaskHandler) pendingTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.taskService.PendingTasks(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, tasks)
}

func (h *LocalTaskHandler) submitResult(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Result  *string `json:"result"`
		Logs    *string `json:"logs"`
		Success *bool   `json:"success"`
	}
	if err := common.DecodeJSONBody(r, &req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	// success must be an explicit boolean, not merely absent-and-defaulted.
	if req.Success == nil {
		common.RespondWithError(w, http.StatusBadRequest, "success must be a boolean")
		return
	}

	task, err := h.taskService.SubmitResult(r.Context(), chi.URLParam(r, "taskID"), req.Result, req.Logs, *req.Success)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, task)
}
