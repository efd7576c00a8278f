package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dan9191/web-banking/internal/config"
	"github.com/Dan9191/web-banking/internal/handler"
	"github.com/Dan9191/web-banking/internal/jobs"
	"github.com/Dan9191/web-banking/internal/metrics"
	"github.com/Dan9191/web-banking/internal/repository"
	"github.com/Dan9191/web-banking/internal/service"
	"github.com/Dan9191/web-banking/internal/utils/email"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Initialize layers
	opts := []service.Option{service.WithMetrics(m)}
	if cfg.NotificationsEnabled() {
		opts = append(opts, service.WithNotifier(email.NewSender(cfg, logger)))
		logger.Infof("Transfer notifications enabled via %s", cfg.SMTPHost)
	}
	svc := service.NewService(store, logger, cfg, opts...)
	h := handler.NewHandler(svc, logger)

	scheduler := cron.New()
	if cfg.ReconcileSchedule != "" {
		reconciler := jobs.NewReconciler(store, logger, m)
		if _, err := reconciler.Schedule(scheduler, cfg.ReconcileSchedule); err != nil {
			logger.Fatalf("Failed to schedule reconciliation: %v", err)
		}
		scheduler.Start()
		logger.Infof("Ledger reconciliation scheduled: %s", cfg.ReconcileSchedule)
	}

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler.NewRouter(h, cfg, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Infof("Starting server on %s", addr)
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Server failed: %v", err)
		}
	case sig := <-quit:
		logger.Infof("Signal %v received, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Graceful shutdown failed: %v", err)
	}
	<-scheduler.Stop().Done()
	svc.Close()
	logger.Info("Server stopped")
}

func openStore(cfg *config.Config, logger *logrus.Logger) (repository.Store, error) {
	if cfg.Store == config.StoreMemory {
		logger.Warn("Using the in-memory store, data is lost on restart")
		return repository.NewMemoryRepository(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return repository.Open(ctx, cfg.DBConn, logger)
}
