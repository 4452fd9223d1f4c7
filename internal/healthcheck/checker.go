package healthcheck

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"aqi-prediction-service/internal/apiclient"
)

// Result is the outcome of probing one target.
type Result struct {
	Target     Target
	StatusCode int
	Latency    time.Duration
	Err        error
}

func (r Result) OK() bool {
	return r.Err == nil && r.StatusCode == r.Target.ExpectStatus
}

// Checker probes targets through the API client.
type Checker struct {
	client  *apiclient.Client
	targets []Target
}

func NewChecker(client *apiclient.Client, targets []Target) *Checker {
	return &Checker{client: client, targets: targets}
}

// Round probes every target once, in order, and logs one line per target
// plus a summary.
func (c *Checker) Round(ctx context.Context) []Result {
	results := make([]Result, 0, len(c.targets))
	failed := 0

	for _, t := range c.targets {
		r := c.probe(ctx, t)
		results = append(results, r)

		entry := log.WithFields(log.Fields{
			"target":     t.Name,
			"method":     t.Method,
			"url":        t.URL,
			"latency_ms": r.Latency.Milliseconds(),
		})
		switch {
		case r.Err != nil:
			failed++
			entry.WithError(r.Err).Error("target unreachable")
		case !r.OK():
			failed++
			entry.WithFields(log.Fields{
				"status": r.StatusCode,
				"expect": t.ExpectStatus,
			}).Warn("unexpected status")
		default:
			entry.WithField("status", r.StatusCode).Info("target ok")
		}
	}

	log.WithFields(log.Fields{
		"total":  len(results),
		"ok":     len(results) - failed,
		"failed": failed,
	}).Info("health check round complete")

	return results
}

func (c *Checker) probe(ctx context.Context, t Target) Result {
	var body io.Reader
	headers := http.Header{}
	if t.Body != nil {
		payload, err := json.Marshal(t.Body)
		if err != nil {
			return Result{Target: t, Err: fmt.Errorf("encode body: %w", err)}
		}
		body = bytes.NewReader(payload)
		headers.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.client.Forward(ctx, t.Method, t.URL, body, headers)
	latency := time.Since(start)
	if err != nil {
		return Result{Target: t, Latency: latency, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return Result{Target: t, StatusCode: resp.StatusCode, Latency: latency}
}

// ErrRoundFailed is returned by Run in once mode when any target fails.
var ErrRoundFailed = errors.New("health check failed")

// Run performs one round when once is set, returning ErrRoundFailed on any
// failure. Otherwise it repeats every interval until ctx is cancelled.
func (c *Checker) Run(ctx context.Context, interval time.Duration, once bool) error {
	results := c.Round(ctx)
	if once {
		for _, r := range results {
			if !r.OK() {
				return ErrRoundFailed
			}
		}
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.Round(ctx)
		}
	}
}
