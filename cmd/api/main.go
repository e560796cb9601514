package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/tabletop-engine/internal/config"
	"github.com/jwebster45206/tabletop-engine/internal/engine"
	"github.com/jwebster45206/tabletop-engine/internal/handlers"
	"github.com/jwebster45206/tabletop-engine/internal/logger"
	"github.com/jwebster45206/tabletop-engine/internal/middleware"
	"github.com/jwebster45206/tabletop-engine/internal/services"
	"github.com/jwebster45206/tabletop-engine/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Tabletop Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"model_name", cfg.ModelName)

	if cfg.OpenRouterAPIKey == "" {
		// The server still runs; turns surface the halt to the player.
		log.Warn("OPENROUTER_API_KEY not set, chat turns will halt")
	}
	llmService := services.NewOpenRouterService(cfg.OpenRouterAPIKey, cfg.ModelName, log)

	store, err := storage.NewRedisStorage(cfg.RedisURL, cfg.SessionTTL, log)
	if err != nil {
		log.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()
	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	processor := engine.NewTurnProcessor(store, llmService, log)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(store, llmService, log)
	mux.Handle("/health", healthHandler)

	chatHandler := handlers.NewChatHandler(processor, log)
	mux.Handle("/v1/chat", chatHandler)

	rollHandler := handlers.NewRollHandler(processor, log)
	mux.Handle("/v1/roll", rollHandler)

	sessionHandler := handlers.NewSessionHandler(log, cfg.ModelName, cfg.BaseURL, store)
	mux.Handle("/v1/session", sessionHandler)
	mux.Handle("/v1/session/", sessionHandler)

	modelsHandler := handlers.NewModelsHandler(llmService, cfg.ModelName, log)
	mux.Handle("/v1/models", modelsHandler)

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
