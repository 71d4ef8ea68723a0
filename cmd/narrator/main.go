package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/matchnarrator/internal/api/rest"
	"github.com/fortuna/matchnarrator/internal/api/websocket"
	"github.com/fortuna/matchnarrator/internal/cache"
	"github.com/fortuna/matchnarrator/internal/config"
	"github.com/fortuna/matchnarrator/internal/ingest/statsbomb"
	"github.com/fortuna/matchnarrator/internal/llm"
	"github.com/fortuna/matchnarrator/internal/logging"
	"github.com/fortuna/matchnarrator/internal/narrative"
	"github.com/fortuna/matchnarrator/internal/publisher"
	"github.com/fortuna/matchnarrator/internal/service"
)

const (
	serviceName    = "matchnarrator"
	serviceVersion = "1.0.0"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.IsDevelopment())
	log := logging.WithService(logger, serviceName)
	log.WithField("version", serviceVersion).Info("Starting match narrative service")

	// The cache store is opened on the first provider request
	opener, err := cache.NewStoreOpener(cache.BackendConfig{
		Backend:     cfg.CacheBackend,
		RedisURL:    cfg.RedisURL,
		DatabaseURL: cfg.DatabaseURL,
	}, logger)
	if err != nil {
		log.WithError(err).Fatal("Invalid cache configuration")
	}
	cacheManager := cache.NewManager(opener, cache.ManagerConfig{
		TTL:     cfg.CacheTTL,
		Timeout: cfg.ProviderTimeout,
	}, logger)
	defer cacheManager.Close()

	log.WithFields(logrus.Fields{
		"backend": cfg.CacheBackend,
		"ttl":     cfg.CacheTTL.String(),
	}).Info("✓ Response cache configured")

	provider := statsbomb.New(cfg.StatsBombBaseURL, cacheManager, logger)
	matches := service.NewMatchService(provider, cfg.ProviderTimeout, logger)

	if cfg.GeminiAPIKey == "" {
		log.Warn("GEMINI_API_KEY is empty; narrative endpoints will fail")
	}
	generator := llm.NewGeminiClient(llm.GeminiConfig{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		BaseURL: cfg.GeminiBaseURL,
		Timeout: cfg.GenerationTimeout,
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Live narrative feed
	hub := websocket.NewHub(logger)
	go hub.Run(ctx)
	announcers := []narrative.Announcer{hub}

	if cfg.NarrativeStream != "" {
		streamPublisher, err := publisher.NewRedisPublisher(cfg.RedisURL, cfg.NarrativeStream)
		if err != nil {
			log.WithError(err).Fatal("Failed to initialize Redis stream publisher")
		}
		defer streamPublisher.Close()
		announcers = append(announcers, streamPublisher)
		log.WithField("stream", streamPublisher.Stream()).Info("✓ Redis stream publisher initialized")
	}

	narrator := narrative.NewService(matches, generator, narrative.Config{
		Options:           llm.DefaultOptions(),
		GenerationTimeout: cfg.GenerationTimeout,
	}, logger, announcers...)

	// REST API
	handler := rest.NewHandler(matches, narrator, cacheManager, logger)
	restServer := rest.NewServer(cfg.Port, handler, cfg.CorsOrigins, logger)
	go func() {
		log.WithField("port", cfg.Port).Info("Starting REST API server")
		if err := restServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("REST server error")
		}
	}()

	// WebSocket feed
	wsServer := websocket.NewServer(cfg.WSPort, hub, cfg.CorsOrigins, logger)
	go func() {
		if err := wsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("WebSocket server error")
		}
	}()

	log.WithFields(logrus.Fields{
		"rest":      "http://0.0.0.0:" + cfg.Port,
		"websocket": "ws://0.0.0.0:" + cfg.WSPort + "/ws/narratives",
	}).Info("✓ Service started")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := restServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("REST API server shutdown error")
	}
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("WebSocket server shutdown error")
	}
	cancel()

	log.Info("Stopped")
}
