package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dan9191/loan-ledger/internal/config"
	"github.com/Dan9191/loan-ledger/internal/handler"
	"github.com/Dan9191/loan-ledger/internal/integrations/cbr"
	"github.com/Dan9191/loan-ledger/internal/ledger"
	"github.com/Dan9191/loan-ledger/internal/middleware"
	"github.com/Dan9191/loan-ledger/internal/repository"
	"github.com/Dan9191/loan-ledger/internal/scheduler"
	"github.com/Dan9191/loan-ledger/internal/service"
	"github.com/Dan9191/loan-ledger/internal/utils/email"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Snapshot export is optional
	var snapshots service.SnapshotWriter
	if cfg.DBConn != "" {
		db, err := sql.Open("postgres", cfg.DBConn)
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Fatalf("Failed to ping database: %v", err)
		}
		repo := repository.NewRepository(db)
		if err := repo.Migrate(context.Background()); err != nil {
			logger.Fatalf("Failed to migrate database: %v", err)
		}
		snapshots = repo
		logger.Info("Accrual snapshots will be exported to Postgres")
	}

	// Initialize layers
	store := ledger.NewStore()
	svc := service.NewService(store, snapshots, logger, cfg)
	cbrClient := cbr.NewCBRClient(cfg.CBRURL, logger)
	h := handler.NewHandler(svc, cbrClient)

	var sender scheduler.StatementSender
	if cfg.MailEnabled() {
		sender = email.NewSender(cfg, logger)
	}
	sched := scheduler.New(svc, sender, logger)
	if err := sched.Schedule(cfg.RecomputeSchedule, cfg.StatementSchedule); err != nil {
		logger.Fatalf("Failed to schedule jobs: %v", err)
	}
	sched.Start()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      h.Router(middleware.AuthMiddleware(cfg.JWTSecret)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		logger.Errorf("Server failed: %v", err)
	case sig := <-quit:
		logger.Infof("Shutdown signal received: %v", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	select {
	case <-sched.Stop().Done():
	case <-ctx.Done():
		logger.Warn("Scheduled jobs did not finish before shutdown timeout")
	}
	logger.Info("Server exited")
}
