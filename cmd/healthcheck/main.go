package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"aqi-prediction-service/internal/apiclient"
	"aqi-prediction-service/internal/config"
	"aqi-prediction-service/internal/healthcheck"
	"aqi-prediction-service/internal/logging"

	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.LoadHealthCheck(os.Args[1:])
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logCloser := logging.Init(cfg.Logger)

	targets := healthcheck.DefaultTargets(cfg.APIURL, cfg.DashboardURL)
	if cfg.TargetsFile != "" {
		targets, err = healthcheck.LoadTargets(cfg.TargetsFile)
		if err != nil {
			log.Fatalf("load targets: %v", err)
		}
	}
	log.WithFields(log.Fields{
		"targets":  len(targets),
		"once":     cfg.Once,
		"interval": cfg.Interval.String(),
	}).Info("starting health checks")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	checker := healthcheck.NewChecker(apiclient.NewClient(cfg.APIURL, cfg.Timeout), targets)
	err = checker.Run(ctx, cfg.Interval, cfg.Once)
	stop()
	logCloser.Close()

	if errors.Is(err, healthcheck.ErrRoundFailed) {
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("health check: %v", err)
	}
}
