// Package apiclient calls the prediction service over HTTP. It is used by
// the dashboard and the health-check client.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"aqi-prediction-service/internal/adapters/primary/http/dto"
	"aqi-prediction-service/internal/core/domain"
)

// APIError is a non-2xx reply from the service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api returned %d: %s", e.StatusCode, e.Message)
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not
// an *APIError.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Forward sends a raw request to path and returns the response unread.
// The caller closes the body.
func (c *Client) Forward(ctx context.Context, method, path string, body io.Reader, headers http.Header) (*http.Response, error) {
	target := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		target = fmt.Sprintf("%s%s", c.baseURL, path)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	// Copy headers
	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	log.WithFields(log.Fields{
		"method": method,
		"url":    target,
	}).Debug("sending request to prediction api")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api request: %w", err)
	}
	return resp, nil
}

func (c *Client) Health(ctx context.Context) (*dto.HealthResponse, error) {
	var out dto.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Model(ctx context.Context) (*dto.ModelResponse, error) {
	var out dto.ModelResponse
	if err := c.do(ctx, http.MethodGet, "/model", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Predict(ctx context.Context, values map[string]float64) (*dto.PredictionResponse, error) {
	payload, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("marshal features: %w", err)
	}

	var out dto.PredictionResponse
	if err := c.do(ctx, http.MethodPost, "/predict", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PredictLive asks for a prediction from live readings. A nil loc uses the
// service default location.
func (c *Client) PredictLive(ctx context.Context, loc *domain.Location) (*dto.PredictionResponse, error) {
	path := "/predict/live"
	if loc != nil {
		q := url.Values{}
		q.Set("lat", strconv.FormatFloat(loc.Latitude, 'f', -1, 64))
		q.Set("lon", strconv.FormatFloat(loc.Longitude, 'f', -1, 64))
		if loc.Name != "" {
			q.Set("name", loc.Name)
		}
		path += "?" + q.Encode()
	}

	var out dto.PredictionResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, out any) error {
	var body io.Reader
	headers := http.Header{"Accept": []string{"application/json"}}
	if payload != nil {
		body = bytes.NewReader(payload)
		headers.Set("Content-Type", "application/json")
	}

	resp, err := c.Forward(ctx, method, path, body, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody struct {
			Error  string `json:"error"`
			Status string `json:"status"`
		}
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &errBody) == nil {
			switch {
			case errBody.Error != "":
				msg = errBody.Error
			case errBody.Status != "":
				msg = errBody.Status
			}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
