package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"booktrack/config"
	"booktrack/mockapi"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	// The server logs requests, so never below info.
	level := cfg.LogLevel
	if level == "warn" || level == "error" {
		level = "info"
	}
	logger, err := config.NewLogger(level)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	api := mockapi.NewServer(mockapi.Options{
		Secret: cfg.MockJWTSecret,
		Logger: logger,
	})

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Mount("/api", api.Handler())

	srv := &http.Server{
		Addr:              cfg.MockAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("mock api starting", zap.String("addr", cfg.MockAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced shutdown", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}
