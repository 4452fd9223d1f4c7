// Package healthcheck polls the prediction service and dashboard endpoints
// and reports their status. It never changes the state of what it probes.
package healthcheck

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Target is one endpoint to probe.
type Target struct {
	Name         string `yaml:"name"`
	Method       string `yaml:"method"`
	URL          string `yaml:"url"`
	Body         any    `yaml:"body,omitempty"`
	ExpectStatus int    `yaml:"expect_status,omitempty"`
}

type targetsFile struct {
	Targets []Target `yaml:"targets"`
}

// samplePayload matches the default training feature set.
var samplePayload = map[string]any{
	"pm2_5": 35.2,
	"pm10":  50.1,
	"no":    5.4,
	"no2":   12.3,
	"nh3":   8.1,
	"co":    0.9,
	"so2":   6.2,
	"o3":    40.5,
}

// DefaultTargets derives the standard probe list from the API base URL.
// dashboardURL may be empty.
func DefaultTargets(apiURL, dashboardURL string) []Target {
	apiURL = strings.TrimRight(apiURL, "/")
	targets := []Target{
		{Name: "api root", Method: http.MethodGet, URL: apiURL + "/"},
		{Name: "api health", Method: http.MethodGet, URL: apiURL + "/health"},
		{Name: "api model", Method: http.MethodGet, URL: apiURL + "/model"},
		{Name: "api predict live", Method: http.MethodGet, URL: apiURL + "/predict/live"},
		{Name: "api predict sample", Method: http.MethodPost, URL: apiURL + "/predict", Body: samplePayload},
	}
	if dashboardURL != "" {
		targets = append(targets, Target{
			Name:   "dashboard",
			Method: http.MethodGet,
			URL:    strings.TrimRight(dashboardURL, "/") + "/healthz",
		})
	}
	return normalize(targets)
}

// LoadTargets reads a YAML file of the form:
//
//	targets:
//	  - name: api health
//	    url: http://127.0.0.1:8000/health
//	    expect_status: 200
func LoadTargets(path string) ([]Target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read targets file: %w", err)
	}

	var f targetsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse targets file %s: %w", path, err)
	}
	if len(f.Targets) == 0 {
		return nil, fmt.Errorf("targets file %s lists no targets", path)
	}

	for i, t := range f.Targets {
		if t.URL == "" {
			return nil, fmt.Errorf("target %d (%q) has no url", i, t.Name)
		}
		if t.Body != nil {
			if _, err := json.Marshal(t.Body); err != nil {
				return nil, fmt.Errorf("target %q body is not JSON-encodable: %w", t.Name, err)
			}
		}
	}
	return normalize(f.Targets), nil
}

func normalize(targets []Target) []Target {
	out := make([]Target, len(targets))
	for i, t := range targets {
		if t.Method == "" {
			t.Method = http.MethodGet
		}
		t.Method = strings.ToUpper(t.Method)
		if t.ExpectStatus == 0 {
			t.ExpectStatus = http.StatusOK
		}
		if t.Name == "" {
			t.Name = t.Method + " " + t.URL
		}
		out[i] = t
	}
	return out
}
