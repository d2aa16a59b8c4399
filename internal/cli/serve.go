package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/maintd/internal/wire"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the periodic escalation sweeper until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := wire.Config()
			logger := wire.Logger()
			defer wire.Close()

			metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
			if metricsAddr == "" {
				metricsAddr = cfg.MetricsAddr
			}
			runNow, _ := cmd.Flags().GetBool("run-now")

			ctx, stop := signal.NotifyContext(NewContext(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			scheduler := wire.Scheduler()

			var server *http.Server
			if metricsAddr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", wire.Metrics().Handler())
				server = &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
				go func() {
					if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logger.Error("metrics server failed", zap.Error(err))
					}
				}()
				logger.Info("serving metrics", zap.String("addr", metricsAddr))
			}

			if runNow {
				if _, err := scheduler.TriggerNow(ctx, wire.Clock().Now()); err != nil {
					logger.Warn("startup sweep failed", zap.Error(err))
				}
			}

			if err := scheduler.Start(ctx); err != nil {
				return fmt.Errorf("failed to start scheduler: %w", err)
			}
			logger.Info("sweeper started",
				zap.Duration("interval", cfg.SweepInterval()),
				zap.Int("threshold_hours", cfg.EscalationThresholdHours),
				zap.Int("max_level", cfg.MaxEscalationLevel),
				zap.String("escalated_policy", cfg.EscalatedPolicy),
			)

			<-ctx.Done()
			logger.Info("shutting down")

			scheduler.Stop()
			if server != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					logger.Warn("metrics server shutdown", zap.Error(err))
				}
			}
			logger.Info("stopped", zap.Int64("dropped_ticks", scheduler.DroppedTicks()))
			return nil
		},
	}

	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address (overrides metrics_addr)")
	cmd.Flags().Bool("run-now", false, "Run one sweep immediately before the first tick")
	return cmd
}
