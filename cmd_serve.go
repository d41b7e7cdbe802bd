package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kartoza/precast-yard/internal/logging"
	"github.com/kartoza/precast-yard/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the simulator over HTTP under /api/precast.

A saved model is loaded at startup. Without one the first request trains
the model, unless --warm trains it before the listener opens.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port, _ = cmd.Flags().GetInt("port")
			}

			// service logs go to stdout in the configured format
			level := cfg.Logging.Level
			if l, _ := cmd.Flags().GetString("log-level"); l != "" {
				level = l
			}
			logging.Init(level, cfg.Logging.Format)

			attempts, _ := cmd.Flags().GetInt("port-attempts")
			availablePort, err := findAvailablePort(cfg.Port, attempts)
			if err != nil {
				return fmt.Errorf("failed to find available port: %w", err)
			}
			if availablePort != cfg.Port {
				slog.Warn("Port in use, using another", "requested", cfg.Port, "port", availablePort)
			}
			cfg.Port = availablePort

			slog.Info("Precast Yard starting", "version", version, "port", cfg.Port, "data_dir", cfg.DataDir)

			srv, err := server.New(*cfg)
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if warm, _ := cmd.Flags().GetBool("warm"); warm {
				if err := srv.Warm(ctx); err != nil {
					srv.Stop()
					return fmt.Errorf("training before start: %w", err)
				}
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			select {
			case err := <-errCh:
				srv.Stop()
				if err != nil {
					return fmt.Errorf("server error: %w", err)
				}
			case <-ctx.Done():
				slog.Info("Received signal, shutting down")
				if err := srv.Stop(); err != nil {
					slog.Error("Error during shutdown", "error", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().Int("port", 8080, "HTTP server port (overrides config)")
	cmd.Flags().Int("port-attempts", 10, "Ports to try when the requested one is busy")
	cmd.Flags().Bool("warm", false, "Train or load the model before accepting requests")

	return cmd
}

// findAvailablePort finds an available port, starting from the given port.
// If the port is in use, it tries subsequent ports up to maxAttempts times.
func findAvailablePort(startPort int, maxAttempts int) (int, error) {
	for i := 0; i < maxAttempts; i++ {
		port := startPort + i
		listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err == nil {
			listener.Close()
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available port found after %d attempts starting from %d", maxAttempts, startPort)
}
