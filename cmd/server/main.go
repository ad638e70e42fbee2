package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/Rodrigocheo/Logistica-Inversa/internal/config"
	"github.com/Rodrigocheo/Logistica-Inversa/internal/repository/catalog"
	"github.com/Rodrigocheo/Logistica-Inversa/internal/repository/ledger"
	"github.com/Rodrigocheo/Logistica-Inversa/internal/repository/mongodb"
	"github.com/Rodrigocheo/Logistica-Inversa/internal/repository/sheets"
	"github.com/Rodrigocheo/Logistica-Inversa/internal/repository/xlsx"
	"github.com/Rodrigocheo/Logistica-Inversa/internal/scheduler"
	"github.com/Rodrigocheo/Logistica-Inversa/internal/server/handlers"
	"github.com/Rodrigocheo/Logistica-Inversa/internal/server/router"
	scansvc "github.com/Rodrigocheo/Logistica-Inversa/internal/service/scan"
	"github.com/Rodrigocheo/Logistica-Inversa/pkg/clients/webhook"
	"github.com/Rodrigocheo/Logistica-Inversa/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	if err := os.MkdirAll(cfg.Store.DataDir, 0o755); err != nil {
		baseLogger.Fatal("failed to create data dir", zap.Error(err))
	}

	store := xlsx.NewStore(baseLogger.Named("repo.xlsx"))
	catalogRepo := catalog.NewRepository(store, cfg.Store, baseLogger.Named("repo.catalog"))
	ledgerRepo := ledger.NewRepository(store, cfg.Store, baseLogger.Named("repo.ledger"))

	var sinks []scansvc.Sink

	if cfg.Mirror.WebhookURL != "" {
		sinks = append(sinks, webhook.NewClient(cfg.Mirror.WebhookURL))
		baseLogger.Info("scan webhook enabled", zap.String("url", cfg.Mirror.WebhookURL))
	}

	if cfg.Mirror.SheetsSpreadsheetID != "" {
		mirror, err := sheets.NewLedgerMirror(context.Background(), cfg.Mirror, cfg.Store.LedgerSheet, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets mirror", zap.Error(err))
		}
		sinks = append(sinks, mirror)
		baseLogger.Info("google sheets mirror enabled", zap.String("spreadsheet", cfg.Mirror.SheetsSpreadsheetID))
	}

	if cfg.Mirror.MongoURI != "" {
		auditRepo, err := mongodb.NewAuditRepository(context.Background(), cfg.Mirror.MongoURI, cfg.Mirror.MongoDBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb audit repository", zap.Error(err))
		}
		defer func() {
			if err := auditRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		sinks = append(sinks, auditRepo)
		baseLogger.Info("mongodb audit trail enabled", zap.String("db", cfg.Mirror.MongoDBName))
	}

	svc := scansvc.NewService(catalogRepo, ledgerRepo, cfg.Location, sinks, baseLogger.Named("svc.scan"))
	scanHandler := handlers.NewScanHandler(svc, cfg.Store.DataDir, cfg.Location, baseLogger.Named("handlers.scan"))
	adminHandler := handlers.NewAdminHandler(catalogRepo, ledgerRepo, baseLogger.Named("handlers.admin"))
	engine := router.New(scanHandler, adminHandler, cfg.Server.AllowOrigins, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.Backup, ledgerRepo, baseLogger.Named("scheduler"))
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("data_dir", cfg.Store.DataDir))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
