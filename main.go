package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/danielhkuo/voucher-vote/cache"
	"github.com/danielhkuo/voucher-vote/cliparse"
	"github.com/danielhkuo/voucher-vote/db"
	"github.com/danielhkuo/voucher-vote/handlers"
	"github.com/danielhkuo/voucher-vote/logger"
	"github.com/danielhkuo/voucher-vote/middleware"
	"github.com/danielhkuo/voucher-vote/router"
	"github.com/danielhkuo/voucher-vote/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var err error

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	log, err := logger.Setup(logger.Config{
		Level:     cfg.LogLevel,
		LogFile:   cfg.LogFile,
		ErrorFile: cfg.ErrorLogFile,
		Console:   true,
	})
	if err != nil {
		slog.Error("logger setup failed", "error", err)
		os.Exit(1)
	}

	err = run(cfg)
	if err != nil {
		slog.Error("Server stopped", "error", err)
	}
	log.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// run serves until SIGINT/SIGTERM. Resources it opens are released before it
// returns.
func run(cfg cliparse.Config) error {
	// Connect to the database
	dbConn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(dbConn, cfg.DatabaseType); err != nil {
		return fmt.Errorf("schema creation failed: %w", err)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	ctx := context.Background()
	if cfg.AdminEmail != "" {
		if err := handlers.BootstrapAdmin(ctx, dbConn, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return fmt.Errorf("admin bootstrap failed: %w", err)
		}
	}

	standings, err := cache.New(ctx, cfg.RedisURL, cfg.StandingsTTL)
	if err != nil {
		slog.Warn("redis unavailable, using in-memory standings cache", "error", err)
		standings = cache.NewMemory(cfg.StandingsTTL)
	}
	if closer, ok := standings.(*cache.Redis); ok {
		defer closer.Close()
	}

	store, err := storage.NewStore(cfg.UploadDir)
	if err != nil {
		return fmt.Errorf("upload store failed: %w", err)
	}

	// Create router
	mux := router.NewRouter(dbConn, cfg, standings, store)

	// Create server
	server := http.Server{
		Handler:           middleware.CORS(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		defer close(done)
		// Wait for Ctrl-C signal
		<-ctrlc
		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", "error", err)
			server.Close()
		}
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen failed: %w", err)
	}
	<-done
	slog.Info("Server closed")
	return nil
}
