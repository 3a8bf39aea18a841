package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

type ServeMetricsCmd struct{}

func NewServeMetricsCmd() *ServeMetricsCmd {
	return &ServeMetricsCmd{}
}

func (c *ServeMetricsCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve-metrics",
		Short: "Reload the extracts periodically and expose Prometheus metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := cmd.Flags().GetString("metrics-addr")
			if err != nil {
				return fmt.Errorf("failed to get metrics-addr flag: %w", err)
			}
			interval, err := cmd.Flags().GetDuration("interval")
			if err != nil {
				return fmt.Errorf("failed to get interval flag: %w", err)
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			a, err := newApp(ctx, cmd, prometheus.DefaultRegisterer)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.cfg.MetricsAddr
			}
			if interval == 0 {
				interval = a.cfg.ReloadInterval
			}
			return serveMetrics(ctx, a, addr, interval)
		},
	}
	cmd.Flags().String("metrics-addr", "", "listen address (overrides PLM_METRICS_ADDR)")
	cmd.Flags().Duration("interval", 0, "reload interval (overrides PLM_RELOAD_INTERVAL)")
	return cmd
}

// serveMetrics serves /metrics and recomputes every section after each
// reload, so the section and fallback counters track the live extracts.
func serveMetrics(ctx context.Context, a *app, addr string, interval time.Duration) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("Prometheus metrics server listening", "address", listener.Addr().String())
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	refresh(a)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case err := <-errCh:
			return fmt.Errorf("metrics server failed: %w", err)
		case <-ticker.C:
			snap, report, err := a.store.Reload(ctx)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				a.log.Error("Failed to reload tables", "error", err)
				continue
			}
			a.report = report
			a.log.Info("Tables reloaded", "snapshot", snap.ID, "loaded", report.LoadedCount(), "failures", len(report.Failures()))
			refresh(a)
		}
	}
}

// refresh computes every section of the current snapshot.
func refresh(a *app) {
	a.provider.KPIs()
	a.provider.Resources()
	a.provider.SupplyChain()
	a.provider.Insights()
	a.provider.Graph()
}
