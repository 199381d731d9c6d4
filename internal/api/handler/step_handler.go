package handler

import (
	"net/http"

	"jobpilot/internal/app/service"
	"jobpilot/internal/common"

	"github.com/go-chi/chi/v5"
)

type StepHandler struct {
	stepService *service.StepService
}

func NewStepHandler(ss *service.StepService) *StepHandler {
	return &StepHandler{stepService: ss}
}

// RegisterJobRoutes mounts the job-scoped routes under /jobs/{jobID}/steps.
func (h *StepHandler) RegisterJobRoutes(r chi.Router) {
	r.Post("/", h.createSteps)
	r.Get("/", h.listSteps)
	r.Get("/next", h.nextPendingStep)
}

// RegisterRoutes mounts the step-scoped routes under /steps.
func (h *StepHandler) RegisterRoutes(r chi.Router) {
	r.Patch("/{stepID}", h.updateStep)
	r.Post("/{stepID}/fix-attempts", h.incrementFixAttempts)
}

func (h *StepHandler) createSteps(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Steps []service.StepInput `json:"steps"`
	}
	if err := common.DecodeJSONBody(r, &req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	steps, err := h.stepService.CreateStepsForJob(r.Context(), chi.URLParam(r, "jobID"), req.Steps)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, steps)
}

func (h *StepHandler) listSteps(w http.ResponseWriter, r *http.Request) {
	steps, err := h.stepService.ListSteps(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, steps)
}

func (h *StepHandler) nextPendingStep(w http.ResponseWriter, r *http.Request) {
	step, err := h.stepService.NextPendingStep(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	// step is nil when the job has no pending work; the body is the JSON null
	// sentinel, not an error.
	common.RespondWithJSON(w, http.StatusOK, step)
}

func (h *StepHandler) updateStep(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateStepInput
	if err := common.DecodeJSONBody(r, &req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	step, err := h.stepService.UpdateStep(r.Context(), chi.URLParam(r, "stepID"), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, step)
}

func (h *StepHandler) incrementFixAttempts(w http.ResponseWriter, r *http.Request) {
	step, err := h.stepService.IncrementFixAttempts(r.Context(), chi.URLParam(r, "stepID"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, step)
}
