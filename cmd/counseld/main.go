package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/worklaw/counsel/server"
)

// sweepInterval is how often idle sessions are checked against the
// retention window.
const sweepInterval = time.Hour

func main() {
	var (
		configFile  = flag.String("config", "", "Path to service config JSON file")
		listenAddr  = flag.String("listen", "", "Listen address (overrides config)")
		transcripts = flag.String("transcripts", "", "Path to transcript directory (overrides config)")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging to stderr")
	)
	flag.Parse()

	cfg := server.DefaultConfig()
	if *configFile != "" {
		loaded, err := server.LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = *loaded
	}

	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}
	if *transcripts != "" {
		cfg.Transcript.Path = *transcripts
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	svc, err := server.New(&cfg)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}
	if !cfg.Backend.Configured() {
		logger.Warn("backend credentials not fully configured; endpoint will report unconfigured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if evicted := svc.SweepIdle(time.Now()); len(evicted) > 0 {
					logger.Info("evicted idle sessions", "count", len(evicted))
				}
			}
		}
	}()

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: svc.Router(),
	}

	go func() {
		logger.Info("listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}
