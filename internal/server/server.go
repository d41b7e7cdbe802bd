package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"

	"github.com/kartoza/precast-yard/internal/api"
	"github.com/kartoza/precast-yard/internal/config"
	"github.com/kartoza/precast-yard/internal/runs"
	"github.com/kartoza/precast-yard/internal/scenarios"
	"github.com/kartoza/precast-yard/internal/simulator"
)

// Server holds all the components for the web application
type Server struct {
	cfg        config.Config
	httpServer *http.Server
	router     *mux.Router
	sim        *simulator.Simulator
	runStore   *runs.Store

	scenarioStore *scenarios.Store
}

// New creates a new Server with all components initialized
func New(cfg config.Config) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		router: mux.NewRouter(),
	}

	// Training history is optional; the API works without it
	runStore, err := runs.NewStore(cfg.DataDir)
	if err != nil {
		slog.Warn("Training history not available", "error", err)
	} else {
		s.runStore = runStore
	}

	scenarioStore, err := scenarios.NewStore(cfg.DataDir)
	if err != nil {
		slog.Warn("Saved scenarios not available", "error", err)
	} else {
		s.scenarioStore = scenarioStore
	}

	var opts []simulator.Option
	if s.runStore != nil {
		opts = append(opts, simulator.WithRecorder(s.runStore))
	}
	sim, err := simulator.New(cfg.SimulatorOptions(), opts...)
	if err != nil {
		s.closeStores()
		return nil, fmt.Errorf("create simulator: %w", err)
	}
	s.sim = sim

	// A saved model skips training; otherwise the first request trains
	if _, err := os.Stat(cfg.ModelPath); err == nil {
		if _, err := sim.Load(cfg.ModelPath); err != nil {
			slog.Warn("Could not load saved model, will retrain on first use", "path", cfg.ModelPath, "error", err)
		}
	}

	s.setupRoutes()

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	apiRouter := s.router.PathPrefix("/api").Subrouter()

	// typed nil pointers must not leak into the interfaces
	var runStore api.RunStore
	if s.runStore != nil {
		runStore = s.runStore
	}
	var scenarioStore api.ScenarioStore
	if s.scenarioStore != nil {
		scenarioStore = s.scenarioStore
	}
	apiHandler := api.NewHandler(s.sim, runStore, scenarioStore, s.cfg)
	apiHandler.RegisterRoutes(apiRouter)
}

// Handler returns the router wrapped in request logging and CORS
func (s *Server) Handler() http.Handler {
	return logRequest(cors(s.cfg.CORSAllowedOrigins)(s.router))
}

// Simulator exposes the server's simulator
func (s *Server) Simulator() *simulator.Simulator {
	return s.sim
}

// Warm trains (or keeps a loaded model) before serving and saves the result
func (s *Server) Warm(ctx context.Context) error {
	if s.sim.IsTrained() {
		return nil
	}
	if err := s.sim.EnsureTrained(ctx, s.cfg.TrainOptions()); err != nil {
		return err
	}
	if err := s.sim.Save(s.cfg.ModelPath); err != nil {
		slog.Warn("Failed to save model", "path", s.cfg.ModelPath, "error", err)
	}
	return nil
}

// Start begins listening for HTTP connections
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	slog.Info("Server listening", "url", fmt.Sprintf("http://localhost:%d", s.cfg.Port))
	if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	s.closeStores()
	return err
}

func (s *Server) closeStores() {
	if s.runStore != nil {
		if err := s.runStore.Close(); err != nil {
			slog.Error("Error closing training history", "error", err)
		}
		s.runStore = nil
	}
}
