package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/mux"

	"github.com/kartoza/precast-yard/internal/config"
	"github.com/kartoza/precast-yard/internal/models"
	"github.com/kartoza/precast-yard/internal/precast"
	"github.com/kartoza/precast-yard/internal/runs"
	"github.com/kartoza/precast-yard/internal/scenarios"
	"github.com/kartoza/precast-yard/internal/simulator"
)

const maxBodyBytes = 1 << 20

// RunStore is the read side of the training history
type RunStore interface {
	List(ctx context.Context, limit int) ([]*runs.Run, error)
	Get(ctx context.Context, id string) (*runs.Run, error)
}

// Handler provides HTTP API endpoints
type Handler struct {
	sim           *simulator.Simulator
	runStore      RunStore
	scenarioStore ScenarioStore
	cfg           config.Config

	saveMu sync.Mutex
}

// NewHandler creates a new API handler. Either store may be nil.
func NewHandler(
	sim *simulator.Simulator,
	runStore RunStore,
	scenarioStore ScenarioStore,
	cfg config.Config,
) *Handler {
	return &Handler{
		sim:           sim,
		runStore:      runStore,
		scenarioStore: scenarioStore,
		cfg:           cfg,
	}
}

// RegisterRoutes sets up all API routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	// Health and info
	r.HandleFunc("/health", h.handleHealth).Methods("GET")
	r.HandleFunc("/info", h.handleInfo).Methods("GET")

	p := r.PathPrefix("/precast").Subrouter()
	p.HandleFunc("/health", h.handlePrecastHealth).Methods("GET")
	p.HandleFunc("/signals", h.handleSignals).Methods("GET")
	p.HandleFunc("/evaluate", h.handleEvaluate).Methods("POST")
	p.HandleFunc("/predict/time", h.handlePredictTime).Methods("POST")
	p.HandleFunc("/predict/cost", h.handlePredictCost).Methods("POST")
	p.HandleFunc("/sensitivity/{signal}", h.handleSensitivity).Methods("POST")

	// Training lifecycle
	p.HandleFunc("/train", h.handleTrain).Methods("POST")
	p.HandleFunc("/runs", h.handleListRuns).Methods("GET")
	p.HandleFunc("/runs/{id}", h.handleGetRun).Methods("GET")

	// Saved scenarios
	h.registerScenarioRoutes(p)
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// respondError sends a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondErr maps a domain error onto its HTTP status
func respondErr(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "error", err)
	}
	respondError(w, status, err.Error())
}

func statusFor(err error) int {
	var ve *precast.ValidationError
	switch {
	case errors.As(err, &ve),
		errors.Is(err, simulator.ErrUnknownSignal),
		errors.Is(err, simulator.ErrInvalidArgument):
		return http.StatusUnprocessableEntity
	case errors.Is(err, simulator.ErrNotTrained):
		return http.StatusServiceUnavailable
	case errors.Is(err, runs.ErrNotFound), errors.Is(err, scenarios.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// validator is implemented by every request body
type validator interface {
	Validate() error
}

// decodeRequest reads a JSON body into dst and validates it. An empty body
// leaves dst at its defaults.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst validator) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err))
		return false
	}
	if err := dst.Validate(); err != nil {
		respondErr(w, err)
		return false
	}
	return true
}

// ensureModel trains on first use and persists the result
func (h *Handler) ensureModel(ctx context.Context) error {
	if h.sim.IsTrained() {
		return nil
	}
	// training outlives a cancelled first request
	if err := h.sim.EnsureTrained(context.WithoutCancel(ctx), h.cfg.TrainOptions()); err != nil {
		return err
	}
	h.persist()
	return nil
}

func (h *Handler) persist() {
	if h.cfg.ModelPath == "" {
		return
	}
	h.saveMu.Lock()
	defer h.saveMu.Unlock()
	if err := h.sim.Save(h.cfg.ModelPath); err != nil {
		slog.Warn("Failed to save model", "path", h.cfg.ModelPath, "error", err)
	}
}

// handleHealth returns server health status
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleInfo returns server information
func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"version":           h.cfg.Version,
		"model_trained":     h.sim.IsTrained(),
		"model_path":        h.cfg.ModelPath,
		"runs_enabled":      h.runStore != nil,
		"scenarios_enabled": h.scenarioStore != nil,
		"training": map[string]interface{}{
			"samples": h.cfg.Training.Samples,
			"seed":    h.cfg.Training.Seed,
			"alpha":   h.cfg.Training.Alpha,
			"degree":  h.cfg.Training.Degree,
		},
	}
	if report := h.sim.Report(); report != nil {
		info["run_id"] = report.ID
	}
	respondJSON(w, http.StatusOK, info)
}

// handlePrecastHealth trains the model if needed and reports readiness
func (h *Handler) handlePrecastHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.ensureModel(r.Context()); err != nil {
		respondErr(w, err)
		return
	}
	resp := models.HealthResponse{Status: "ok", ModelTrained: h.sim.IsTrained()}
	if report := h.sim.Report(); report != nil {
		resp.TrainingTimeSeconds = report.Seconds()
	}
	respondJSON(w, http.StatusOK, resp)
}

// handleSignals returns the signal table for form building
func (h *Handler) handleSignals(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.SignalsResponse{
		Signals:       precast.Signals(),
		CuringMethods: precast.MethodLabels(),
	})
}

// handleEvaluate predicts and ground-truths every curing method
func (h *Handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	req := models.NewScenarioRequest()
	if !decodeRequest(w, r, req) {
		return
	}
	if err := h.ensureModel(r.Context()); err != nil {
		respondErr(w, err)
		return
	}

	results, err := h.sim.Evaluate(req.Scenario)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, models.EvaluateResponse{Results: results, Scenario: req.Scenario})
}

// handlePredictTime maps a budget to a schedule per curing method
func (h *Handler) handlePredictTime(w http.ResponseWriter, r *http.Request) {
	req := models.NewPredictTimeRequest()
	if !decodeRequest(w, r, req) {
		return
	}
	if err := h.ensureModel(r.Context()); err != nil {
		respondErr(w, err)
		return
	}

	results, err := h.sim.PredictTime(*req.Budget, req.Scenario)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, models.PredictTimeResponse{
		InputBudget: *req.Budget,
		Results:     results,
		Scenario:    req.Scenario,
	})
}

// handlePredictCost maps a deadline to a cost per curing method
func (h *Handler) handlePredictCost(w http.ResponseWriter, r *http.Request) {
	req := models.NewPredictCostRequest()
	if !decodeRequest(w, r, req) {
		return
	}
	if err := h.ensureModel(r.Context()); err != nil {
		respondErr(w, err)
		return
	}

	results, err := h.sim.PredictCost(*req.Days, req.Scenario)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, models.PredictCostResponse{
		InputDays: *req.Days,
		Results:   results,
		Scenario:  req.Scenario,
	})
}

// handleSensitivity sweeps one signal across its range
func (h *Handler) handleSensitivity(w http.ResponseWriter, r *http.Request) {
	signal := mux.Vars(r)["signal"]
	if _, ok := precast.LookupSignal(signal); !ok {
		respondError(w, http.StatusUnprocessableEntity,
			fmt.Sprintf("Unknown signal '%s'. Valid: %s", signal, strings.Join(precast.SignalNames(), ", ")))
		return
	}

	req := models.NewSensitivityRequest()
	if !decodeRequest(w, r, req) {
		return
	}
	if err := h.ensureModel(r.Context()); err != nil {
		respondErr(w, err)
		return
	}

	points, err := h.sim.Sensitivity(signal, req.NPoints, req.Scenario)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, models.SensitivityResponse{
		Signal:   signal,
		Points:   points,
		Scenario: req.Scenario,
	})
}

// handleTrain retrains the simulator and replaces the saved model
func (h *Handler) handleTrain(w http.ResponseWriter, r *http.Request) {
	var req models.TrainRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	report, err := h.sim.Train(context.WithoutCancel(r.Context()), req.Apply(h.cfg.TrainOptions()))
	if err != nil {
		respondErr(w, err)
		return
	}
	h.persist()

	respondJSON(w, http.StatusCreated, models.TrainResponse{
		TrainingReport:      report,
		TrainingTimeSeconds: report.Seconds(),
	})
}

// handleListRuns returns recorded training runs, newest first
func (h *Handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if h.runStore == nil {
		respondJSON(w, http.StatusOK, []*runs.Run{})
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	list, err := h.runStore.List(r.Context(), limit)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// handleGetRun returns a single training run
func (h *Handler) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if h.runStore == nil {
		respondError(w, http.StatusNotFound, "training history not available")
		return
	}

	run, err := h.runStore.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, run)
}
