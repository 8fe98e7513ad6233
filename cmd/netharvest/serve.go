package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	internalhttp "github.com/EternisAI/netharvest/internal/api/http"
	"github.com/EternisAI/netharvest/internal/metrics"
	"github.com/EternisAI/netharvest/internal/scheduler"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// Serve returns the daemon command: scheduled runs plus the status API.
func Serve() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the pipeline on a schedule and expose a status API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := runContext(cmd.Context())
			defer stop()
			return serve(ctx, config)
		},
	}
}

func newEngine(cfg Config, sched *scheduler.Scheduler, reg *prometheus.Registry) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "X-API-Key"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(gin.Recovery())
	internalhttp.SetupRoute(engine, &internalhttp.Services{
		Scheduler:      sched,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		AdminAPIKey:    cfg.Http.AdminAPIKey,
	})
	return engine
}

func serve(ctx context.Context, cfg Config) error {
	slog.Info("netharvest daemon", "version", AppVersion)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	runMetrics := metrics.New(reg)

	sched := scheduler.NewScheduler(newPipeline(cfg, newExecutor()), runMetrics, cfg.Schedule)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Http.Port),
		Handler:           newEngine(cfg, sched, reg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	schedCtx, cancelSched := context.WithCancel(ctx)
	defer cancelSched()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sched.Start(schedCtx)
	}()

	errChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	var serveErr error
	select {
	case serveErr = <-errChan:
		slog.Error("Server error", "error", serveErr)
	case <-ctx.Done():
		slog.Info("Received shutdown signal")
	}

	slog.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	cancelSched()
	wg.Wait()
	slog.Info("Shutdown complete")
	return serveErr
}
