package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zero-day-ai/memrouter/internal/backend"
	"github.com/zero-day-ai/memrouter/internal/config"
	"github.com/zero-day-ai/memrouter/internal/health"
	"github.com/zero-day-ai/memrouter/internal/observability"
	"github.com/zero-day-ai/memrouter/internal/types"
)

const shutdownTimeout = 5 * time.Second

func newWatchCmd(c *cli) *cobra.Command {
	var (
		interval time.Duration
		listen   string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll backend health and serve /healthz and /metrics until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := watchConfig(c.cfg, listen)
			if interval <= 0 {
				interval = cfg.Router.HealthInterval
			}

			a, err := newApp(cmd.Context(), cfg, c.log())
			if err != nil {
				return err
			}
			defer func() {
				if cerr := a.Close(context.Background()); cerr != nil {
					c.log().Warn("failed to close router", "error", cerr)
				}
			}()

			ln, err := net.Listen("tcp", cfg.Metrics.ListenAddress)
			if err != nil {
				return err
			}
			return runWatch(cmd.Context(), a, ln, interval, c.log())
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "probe interval (default: router.health_interval)")
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (default: metrics.listen_address)")
	return cmd
}

// watchConfig forces the prometheus provider on so /metrics always has a
// handler. An explicit otlp configuration is kept and /metrics is omitted.
func watchConfig(base *config.Config, listen string) *config.Config {
	cfg := *base
	if !cfg.Metrics.Enabled {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Provider = "prometheus"
	}
	if listen != "" {
		cfg.Metrics.ListenAddress = listen
	}
	if cfg.Metrics.ListenAddress == "" {
		cfg.Metrics.ListenAddress = config.DefaultConfig().Metrics.ListenAddress
	}
	return &cfg
}

// runWatch serves on ln and polls both backends every interval until ctx is
// cancelled, then shuts the server down gracefully.
func runWatch(ctx context.Context, a *app, ln net.Listener, interval time.Duration, logger *slog.Logger) error {
	monitor := a.router.Monitor()
	if err := observability.ObserveBackendHealth(a.metrics.Meter(instrumentationName), aliveSnapshot(monitor)); err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           newWatchMux(a),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		monitor.Watch(gctx, interval)
		return nil
	})
	g.Go(func() error {
		logger.Info("watch serving", "addr", ln.Addr().String(), "interval", interval.String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown error", "error", err)
		}
		return nil
	})

	err := g.Wait()
	logger.Info("watch stopped")
	return err
}

func aliveSnapshot(monitor *health.Monitor) func() map[string]bool {
	return func() map[string]bool {
		out := make(map[string]bool, 2)
		for id, st := range monitor.Snapshot() {
			out[id.String()] = st.State == health.Alive.String()
		}
		return out
	}
}

// newWatchMux serves /healthz, which is 200 while the primary store is alive
// and 503 otherwise, and /metrics when a scrape handler exists.
func newWatchMux(a *app) *http.ServeMux {
	monitor := a.router.Monitor()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		backends := make(map[string]types.HealthStatus, 2)
		for _, id := range []backend.ID{backend.Primary, backend.Secondary} {
			backends[id.String()] = monitor.Health(id)
		}
		code := http.StatusOK
		if !monitor.IsAlive(backend.Primary) {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":       code == http.StatusOK,
			"backends": backends,
		})
	})
	if h := a.metrics.Handler(); h != nil {
		mux.Handle("GET /metrics", h)
	}
	return mux
}
