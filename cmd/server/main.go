package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"aqi-prediction-service/internal/adapters/primary/http/handlers"
	"aqi-prediction-service/internal/adapters/primary/http/middleware"
	"aqi-prediction-service/internal/adapters/secondary/cache"
	"aqi-prediction-service/internal/adapters/secondary/openmeteo"
	"aqi-prediction-service/internal/config"
	"aqi-prediction-service/internal/core/domain"
	ports "aqi-prediction-service/internal/core/ports/output"
	"aqi-prediction-service/internal/core/services"
	"aqi-prediction-service/internal/logging"
	"aqi-prediction-service/internal/metrics"
	"aqi-prediction-service/internal/model"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logCloser := logging.Init(cfg.Logger)
	defer logCloser.Close()

	// The service refuses to start without a valid artifact.
	artifact, err := model.Load(cfg.Model.Path)
	if err != nil {
		log.Fatalf("load model artifact: %v", err)
	}
	log.WithFields(log.Fields{
		"path":     cfg.Model.Path,
		"name":     artifact.Name,
		"kind":     artifact.Kind,
		"features": artifact.Features.Names(),
	}).Info("model artifact loaded")

	// ============================================================================
	// Hexagonal Architecture Wiring
	// ============================================================================

	// Metrics (Optional - based on config)
	var m *metrics.Metrics
	var recorder ports.PredictionRecorder
	if cfg.Metrics.Enabled {
		m = metrics.New()
		m.SetModel(artifact.Name, string(artifact.Kind))
		recorder = m
		log.Info("metrics enabled")
	} else {
		log.Info("metrics disabled")
	}

	// Live readings source (Optional - based on config)
	var source ports.AirQualitySource
	if cfg.Live.Enabled {
		source = openmeteo.NewClient(&cfg.Live)
		log.WithField("url", cfg.Live.URL).Info("live air quality source initialized")
	} else {
		log.Info("live predictions disabled")
	}

	// Reading cache (Optional - based on config)
	var readingCache ports.ReadingCache
	store, err := cache.New(&cfg.Cache)
	if err != nil {
		log.Warnf("reading cache init failed (continuing without cache): %v", err)
	} else if store != nil {
		readingCache = store
		defer store.Close()
		log.WithField("backend", cfg.Cache.Backend).Info("reading cache initialized")
	}

	// Core Services (Application Layer)
	defaultLocation := domain.Location{
		Latitude:  cfg.Live.Latitude,
		Longitude: cfg.Live.Longitude,
		Name:      cfg.Live.LocationName,
	}
	predictionSvc := services.NewPredictionService(artifact, source, readingCache, recorder, defaultLocation)

	// Primary Adapter (HTTP Handlers)
	h := handlers.New(predictionSvc)

	// Setup router
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logging(cfg.Metrics.Path), gin.Recovery())
	router.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	if m != nil {
		router.Use(middleware.Metrics(m))
		router.GET(cfg.Metrics.Path, gin.WrapH(m.Handler()))
	}

	h.RegisterRoutes(router)

	// Start server
	addr := cfg.Server.Addr()
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Infof("starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced shutdown: %v", err)
	}

	log.Info("server stopped")
}
