package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/linksmith/matchlab/internal/config"
	"github.com/linksmith/matchlab/internal/db"
	dbRedis "github.com/linksmith/matchlab/internal/db/redis"
	"github.com/linksmith/matchlab/internal/domain/archetype"
	logpkg "github.com/linksmith/matchlab/internal/logger"
	"github.com/linksmith/matchlab/internal/metrics"
	algorithmrepo "github.com/linksmith/matchlab/internal/repository/algorithm"
	experimentrepo "github.com/linksmith/matchlab/internal/repository/experiment"
	profilerepo "github.com/linksmith/matchlab/internal/repository/profile"
	chiTransport "github.com/linksmith/matchlab/internal/transport/chi"
	experimentuc "github.com/linksmith/matchlab/internal/usecase/experiment"
	healthuc "github.com/linksmith/matchlab/internal/usecase/health"
	matchuc "github.com/linksmith/matchlab/internal/usecase/match"
	profileuc "github.com/linksmith/matchlab/internal/usecase/profile"
	registryuc "github.com/linksmith/matchlab/internal/usecase/registry"
	segmentuc "github.com/linksmith/matchlab/internal/usecase/segment"
	"github.com/linksmith/matchlab/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting matchlab API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	// The archetype catalog is package data; refuse to start on a bad edit.
	if err := archetype.Validate(); err != nil {
		logger.Fatal("Invalid archetype definitions", zap.Error(err))
	}

	// Create database store based on driver. Valkey speaks the same
	// protocol, so both drivers share the rueidis store.
	var store db.Store
	switch cfg.Database.Driver {
	case "redis", "valkey":
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
	default:
		logger.Fatal("Unknown database driver", zap.String("driver", cfg.Database.Driver))
	}
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register engine metrics explicitly (no init())
	metrics.RegisterEngineMetrics()

	// Create repositories
	profRepo := profilerepo.New(store)
	algoRepo := algorithmrepo.New(store)
	expRepo := experimentrepo.New(store)

	// Create use case services
	matchSvc := matchuc.New(profRepo).WithThresholds(matchuc.Thresholds{
		Start: cfg.Matching.ThresholdStart,
		Step:  cfg.Matching.ThresholdStep,
		Floor: cfg.Matching.ThresholdFloor,
	})
	profileSvc := profileuc.New(profRepo)
	segmentSvc := segmentuc.New(profRepo)
	registrySvc := registryuc.New(algoRepo)
	experimentSvc := experimentuc.New(expRepo, registrySvc, cfg.Experiment.SampleFloor)

	// Health service
	healthSvc := healthuc.New(store)

	// Create chi server
	server := chiTransport.NewServer(
		matchSvc, profileSvc, segmentSvc, registrySvc, experimentSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
