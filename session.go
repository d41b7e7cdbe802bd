package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/kartoza/precast-yard/internal/config"
	"github.com/kartoza/precast-yard/internal/runs"
	"github.com/kartoza/precast-yard/internal/simulator"
)

// session is a simulator together with the training history it records
// into. The history stays open until Close.
type session struct {
	*simulator.Simulator
	store *runs.Store
}

// newSession creates an untrained simulator that records its training runs
// when the history store can be opened.
func newSession(cfg *config.Config) (*session, error) {
	s := &session{}
	var opts []simulator.Option
	store, err := runs.NewStore(cfg.DataDir)
	if err != nil {
		slog.Warn("Training history not available", "error", err)
	} else {
		s.store = store
		opts = append(opts, simulator.WithRecorder(store))
	}

	sim, err := simulator.New(cfg.SimulatorOptions(), opts...)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Simulator = sim
	return s, nil
}

// Close releases the training history
func (s *session) Close() error {
	if s.store == nil {
		return nil
	}
	err := s.store.Close()
	s.store = nil
	return err
}

// openSimulator returns a ready session. A saved model is loaded when
// present; otherwise the simulator is trained, recorded and saved.
func openSimulator(ctx context.Context, cfg *config.Config) (*session, error) {
	s, err := newSession(cfg)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(cfg.ModelPath); err == nil {
		report, err := s.Load(cfg.ModelPath)
		if err == nil {
			slog.Debug("Loaded model", "path", cfg.ModelPath, "run_id", report.ID)
			return s, nil
		}
		slog.Warn("Could not load saved model, retraining", "path", cfg.ModelPath, "error", err)
	}

	report, err := s.Train(ctx, cfg.TrainOptions())
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("training: %w", err)
	}
	slog.Info("Trained model", "samples", report.Samples, "seconds", report.Seconds())

	if err := s.Save(cfg.ModelPath); err != nil {
		slog.Warn("Failed to save model", "path", cfg.ModelPath, "error", err)
	}
	return s, nil
}
