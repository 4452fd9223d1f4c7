package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aqi-prediction-service/internal/adapters/primary/http/middleware"
	"aqi-prediction-service/internal/apiclient"
	"aqi-prediction-service/internal/config"
	"aqi-prediction-service/internal/dashboard"
	"aqi-prediction-service/internal/logging"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.LoadDashboard()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logCloser := logging.Init(cfg.Logger)
	defer logCloser.Close()

	client := apiclient.NewClient(cfg.APIURL, cfg.APITimeout)
	d := dashboard.New(client, dashboard.Options{
		APIURL:          cfg.APIURL,
		RefreshInterval: cfg.RefreshInterval,
		HistorySize:     cfg.HistorySize,
		SampleMode:      cfg.SampleMode,
	})

	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logging("/healthz"), gin.Recovery())
	if err := d.RegisterRoutes(router); err != nil {
		log.Fatalf("register dashboard routes: %v", err)
	}

	addr := cfg.Addr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithFields(log.Fields{
			"addr":        addr,
			"api_url":     cfg.APIURL,
			"sample_mode": cfg.SampleMode,
		}).Info("starting dashboard")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down dashboard...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced shutdown: %v", err)
	}

	log.Info("dashboard stopped")
}
