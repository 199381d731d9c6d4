package handler

import (
	"net/http"

	"jobpilot/internal/app/service"
	"jobpilot/internal/common"
	"jobpilot/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type JobHandler struct {
	jobService *service.JobService
}

func NewJobHandler(js *service.JobService) *JobHandler {
	return &JobHandler{jobService: js}
}

func (h *JobHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.createJob)  // POST /api/v1/jobs
	r.Get("/", h.listJobs)    // GET  /api/v1/jobs
	r.Get("/{jobID}", h.getJob)
	r.Patch("/{jobID}/status", h.updateStatus)
	r.Post("/{jobID}/approve", h.approveJob)
	r.Post("/{jobID}/request-changes", h.requestChanges)
	r.Post("/{jobID}/reject", h.rejectJob)
}

func (h *JobHandler) createJob(w http.ResponseWriter, r *http.Request) {
	var req service.CreateJobInput
	if err := common.DecodeJSONBody(r, &req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	job, err := h.jobService.CreateJob(r.Context(), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, job)
}

func (h *JobHandler) listJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.jobService.ListJobs(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, jobs)
}

func (h *JobHandler) getJob(w http.ResponseWriter, r *http.Request) {
	detail, err := h.jobService.GetJob(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, detail)
}

func (h *JobHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status model.JobStatus `json:"status"`
	}
	if err := common.DecodeJSONBody(r, &req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	job, err := h.jobService.UpdateStatus(r.Context(), chi.URLParam(r, "jobID"), req.Status)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, job)
}

func (h *JobHandler) approveJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobService.Approve(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, job)
}

func (h *JobHandler) requestChanges(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Feedback string `json:"feedback"`
	}
	if err := common.DecodeJSONBody(r, &req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	job, err := h.jobService.RequestChanges(r.Context(), chi.URLParam(r, "jobID"), req.Feedback)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]any{
		"job":     job,
		"message": "changes requested, job returned to planning",
	})
}

func (h *JobHandler) rejectJob(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := common.DecodeJSONBody(r, &req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	job, err := h.jobService.Reject(r.Context(), chi.URLParam(r, "jobID"), req.Reason)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, job)
}
