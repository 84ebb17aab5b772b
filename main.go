package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/medfinder/medfinder-api/config"
	"github.com/medfinder/medfinder-api/data"
	"github.com/medfinder/medfinder-api/handlers"
	"github.com/medfinder/medfinder-api/health"
	"github.com/medfinder/medfinder-api/inventory"
	"github.com/medfinder/medfinder-api/logging"
	"github.com/medfinder/medfinder-api/medicineparser"
	"github.com/medfinder/medfinder-api/recommendation"
	"github.com/medfinder/medfinder-api/scheduler"
	"github.com/medfinder/medfinder-api/server"
	"github.com/medfinder/medfinder-api/substitute"
	"github.com/medfinder/medfinder-api/validation"
)

func main() {
	// Read the env variables from the working directory, then from the
	// executable directory
	if err := godotenv.Load(); err != nil {
		ex, err := os.Executable()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to get executable path: %v\n", err)
			os.Exit(1)
		}
		exPath := filepath.Dir(ex)
		if err := os.Chdir(exPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to change directory: %v\n", err)
			os.Exit(1)
		}
		_ = godotenv.Load()
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logging.InitLoggerWithOptions(logging.Options{
		Dir:            "logs",
		Env:            cfg.Env,
		Level:          cfg.LogLevel,
		RetentionWeeks: cfg.LogRetentionWeeks,
		MaxFileSize:    cfg.MaxLogFileSize,
	})
	defer logging.Close()

	logging.Info("Configuration loaded",
		"env", cfg.Env.String(),
		"address", cfg.Address,
		"port", cfg.Port,
		"catalog", cfg.CatalogPath,
		"substitute_pricing", cfg.SubstitutePricing)

	store := data.NewDataContainer()
	store.SetServerStartTime(time.Now())

	parser := medicineparser.NewCatalogParser(cfg.CatalogPath, cfg.CatalogEncoding)
	seeder := inventory.NewSeeder(nil)

	sched := scheduler.NewScheduler(store, parser, seeder, cfg.CatalogReloadAt)
	if err := sched.Start(); err != nil {
		logging.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}

	oracle, err := substitute.NewOracle(cfg.SubstitutePricing, store)
	if err != nil {
		logging.Error("Invalid substitute pricing mode", "error", err)
		os.Exit(1)
	}

	handler := handlers.NewHTTPHandler(
		store,
		validation.NewDataValidator(),
		health.NewHealthChecker(store, cfg.CatalogReloadAt),
		recommendation.NewEngine(store, store),
		substitute.NewEngine(store, oracle, oracle, nil),
		seeder,
	)

	srv := server.NewServer(cfg, handler)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Server shutdown failed", "error", err)
	}
	sched.Stop()
}
