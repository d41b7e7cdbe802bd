package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/kartoza/precast-yard/internal/models"
	"github.com/kartoza/precast-yard/internal/scenarios"
)

// ScenarioStore persists named scenarios
type ScenarioStore interface {
	List() ([]*scenarios.Saved, error)
	Get(id string) (*scenarios.Saved, error)
	Create(saved *scenarios.Saved) (*scenarios.Saved, error)
	Update(id string, updates *scenarios.Saved) (*scenarios.Saved, error)
	Delete(id string) error
}

// savedRequest is the body of a create or update call. Missing scenario
// fields take the default scenario's values.
type savedRequest struct {
	scenarios.Saved
}

func newSavedRequest() *savedRequest {
	req := &savedRequest{}
	req.Scenario = models.NewScenarioRequest().Scenario
	return req
}

func (r *savedRequest) Validate() error {
	return r.Saved.Validate()
}

func (h *Handler) registerScenarioRoutes(p *mux.Router) {
	p.HandleFunc("/scenarios", h.handleListScenarios).Methods("GET")
	p.HandleFunc("/scenarios", h.handleCreateScenario).Methods("POST")
	p.HandleFunc("/scenarios/{id}", h.handleGetScenario).Methods("GET")
	p.HandleFunc("/scenarios/{id}", h.handleUpdateScenario).Methods("PUT")
	p.HandleFunc("/scenarios/{id}", h.handleDeleteScenario).Methods("DELETE")
	p.HandleFunc("/scenarios/{id}/evaluate", h.handleEvaluateScenario).Methods("POST")
}

// scenarioStoreOr404 answers 404 when saving scenarios is disabled
func (h *Handler) scenarioStoreOr404(w http.ResponseWriter) bool {
	if h.scenarioStore == nil {
		respondError(w, http.StatusNotFound, "saved scenarios not available")
		return false
	}
	return true
}

// handleListScenarios returns saved scenarios, newest first
func (h *Handler) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	if h.scenarioStore == nil {
		respondJSON(w, http.StatusOK, []*scenarios.Saved{})
		return
	}
	list, err := h.scenarioStore.List()
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// handleCreateScenario saves a new named scenario
func (h *Handler) handleCreateScenario(w http.ResponseWriter, r *http.Request) {
	if !h.scenarioStoreOr404(w) {
		return
	}
	req := newSavedRequest()
	if !decodeRequest(w, r, req) {
		return
	}
	saved, err := h.scenarioStore.Create(&req.Saved)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, saved)
}

// handleGetScenario returns one saved scenario
func (h *Handler) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	if !h.scenarioStoreOr404(w) {
		return
	}
	saved, err := h.scenarioStore.Get(mux.Vars(r)["id"])
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

// handleUpdateScenario replaces a saved scenario's contents
func (h *Handler) handleUpdateScenario(w http.ResponseWriter, r *http.Request) {
	if !h.scenarioStoreOr404(w) {
		return
	}
	id := mux.Vars(r)["id"]
	current, err := h.scenarioStore.Get(id)
	if err != nil {
		respondErr(w, err)
		return
	}

	// omitted fields keep their stored values
	req := &savedRequest{Saved: *current}
	if !decodeRequest(w, r, req) {
		return
	}
	saved, err := h.scenarioStore.Update(id, &req.Saved)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

// handleDeleteScenario removes a saved scenario
func (h *Handler) handleDeleteScenario(w http.ResponseWriter, r *http.Request) {
	if !h.scenarioStoreOr404(w) {
		return
	}
	if err := h.scenarioStore.Delete(mux.Vars(r)["id"]); err != nil {
		respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleEvaluateScenario runs every query a saved scenario carries targets for
func (h *Handler) handleEvaluateScenario(w http.ResponseWriter, r *http.Request) {
	if !h.scenarioStoreOr404(w) {
		return
	}
	saved, err := h.scenarioStore.Get(mux.Vars(r)["id"])
	if err != nil {
		respondErr(w, err)
		return
	}
	if err := h.ensureModel(r.Context()); err != nil {
		respondErr(w, err)
		return
	}

	resp := models.SavedEvaluationResponse{Saved: saved}
	if resp.Evaluation, err = h.sim.Evaluate(saved.Scenario); err != nil {
		respondErr(w, err)
		return
	}
	if saved.Budget != nil {
		if resp.PredictTime, err = h.sim.PredictTime(*saved.Budget, saved.Scenario); err != nil {
			respondErr(w, err)
			return
		}
	}
	if saved.Days != nil {
		if resp.PredictCost, err = h.sim.PredictCost(*saved.Days, saved.Scenario); err != nil {
			respondErr(w, err)
			return
		}
	}
	respondJSON(w, http.StatusOK, resp)
}
