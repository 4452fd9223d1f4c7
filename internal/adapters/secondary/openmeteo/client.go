// Package openmeteo reads the latest hourly pollutant values from the
// Open-Meteo air-quality API.
package openmeteo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"aqi-prediction-service/internal/config"
	"aqi-prediction-service/internal/core/domain"
	ports "aqi-prediction-service/internal/core/ports/output"
)

const hourLayout = "2006-01-02T15:04"

type client struct {
	baseURL   string
	variables map[string]string
	http      *http.Client
	now       func() time.Time
}

// NewClient creates an AirQualitySource backed by Open-Meteo. cfg.Variables
// maps feature names to upstream hourly variables.
func NewClient(cfg *config.LiveConfig) ports.AirQualitySource {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	vars := make(map[string]string, len(cfg.Variables))
	for feature, upstream := range cfg.Variables {
		vars[feature] = upstream
	}

	return &client{
		baseURL:   strings.TrimRight(cfg.URL, "/"),
		variables: vars,
		http:      &http.Client{Timeout: timeout},
		now:       time.Now,
	}
}

// Latest returns, per feature, the most recent non-null hourly value at or
// before the current hour. Features with no value are left out.
func (c *client) Latest(ctx context.Context, loc domain.Location) (*domain.Reading, error) {
	reqURL := c.buildURL(loc)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	log.WithField("url", reqURL).Debug("fetching live air quality readings")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrUpstreamUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		reason := gjson.GetBytes(body, "reason").String()
		if reason == "" {
			reason = truncate(string(body), 256)
		}
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrUpstreamUnavailable, resp.StatusCode, reason)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: response is not valid JSON", domain.ErrUpstreamUnavailable)
	}

	return c.parse(body, loc)
}

func (c *client) buildURL(loc domain.Location) string {
	upstream := make([]string, 0, len(c.variables))
	seen := make(map[string]struct{}, len(c.variables))
	for _, v := range c.variables {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		upstream = append(upstream, v)
	}
	sort.Strings(upstream)

	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', 4, 64))
	params.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', 4, 64))
	params.Set("hourly", strings.Join(upstream, ","))
	params.Set("timezone", "GMT")
	params.Set("past_days", "1")

	return fmt.Sprintf("%s/v1/air-quality?%s", c.baseURL, params.Encode())
}

func (c *client) parse(body []byte, loc domain.Location) (*domain.Reading, error) {
	times := gjson.GetBytes(body, "hourly.time").Array()
	if len(times) == 0 {
		return nil, fmt.Errorf("%w: response has no hourly timestamps", domain.ErrUpstreamUnavailable)
	}

	// Hourly arrays include forecast hours; stop at the current hour.
	now := c.now().UTC()
	last := -1
	for i, ts := range times {
		t, err := time.Parse(hourLayout, ts.String())
		if err != nil {
			return nil, fmt.Errorf("%w: bad timestamp %q", domain.ErrUpstreamUnavailable, ts.String())
		}
		if t.After(now) {
			break
		}
		last = i
	}
	if last < 0 {
		return nil, fmt.Errorf("%w: no readings at or before %s", domain.ErrUpstreamUnavailable, now.Format(hourLayout))
	}

	observedAt, _ := time.Parse(hourLayout, times[last].String())
	reading := &domain.Reading{
		Location: domain.Location{
			Latitude:  loc.Latitude,
			Longitude: loc.Longitude,
			Name:      loc.Name,
		},
		Values:     make(map[string]float64, len(c.variables)),
		ObservedAt: observedAt,
	}

	for feature, upstream := range c.variables {
		series := gjson.GetBytes(body, "hourly."+escape(upstream)).Array()
		for i := min(last, len(series)-1); i >= 0; i-- {
			if series[i].Type == gjson.Number {
				reading.Values[feature] = series[i].Float()
				break
			}
		}
	}

	if len(reading.Values) == 0 {
		return nil, fmt.Errorf("%w: no values for any configured variable", domain.ErrUpstreamUnavailable)
	}
	return reading, nil
}

// escape protects gjson path metacharacters in variable names.
func escape(s string) string {
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`, "|", `\|`, "#", `\#`, "@", `\@`)
	return r.Replace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
