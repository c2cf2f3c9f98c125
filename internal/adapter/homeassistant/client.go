// Package homeassistant talks to the Home Assistant REST API for forecast
// fetches and notification sends.
package homeassistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client implements the engine's ForecastService and Notifier against a
// Home Assistant instance.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Home Assistant API client.
func NewClient(baseURL, token string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// GetForecast calls the weather.get_forecasts service for one weather entity
// and returns the decoded response body. The payload shape varies across
// weather integrations, so decoding to a concrete type happens downstream.
func (c *Client) GetForecast(ctx context.Context, deviceID, granularity string) (any, error) {
	body := map[string]any{
		"type":   granularity,
		"target": map[string]any{"device_id": deviceID},
	}

	u := c.baseURL + "/api/services/weather/get_forecasts?return_response"
	raw, err := c.post(ctx, u, body)
	if err != nil {
		return nil, fmt.Errorf("get forecast: %w", err)
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode forecast response: %w", err)
	}
	return unwrapServiceResponse(decoded), nil
}

// Notify calls the notify service for the given target with a titled message.
func (c *Client) Notify(ctx context.Context, target, title, message string) error {
	body := map[string]any{
		"title":   title,
		"message": message,
	}

	u := c.baseURL + "/api/services/notify/" + url.PathEscape(target)
	if _, err := c.post(ctx, u, body); err != nil {
		return fmt.Errorf("notify %s: %w", target, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, fullURL string, body map[string]any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("home assistant API error: status %d: %s", resp.StatusCode, raw)
	}
	return raw, nil
}

// unwrapServiceResponse peels the envelope Home Assistant wraps service
// responses in: an optional "service_response" layer, then a map keyed by
// entity ID. A single-entity map is unwrapped to that entity's forecast
// object; anything else is returned as-is for downstream normalization.
func unwrapServiceResponse(decoded any) any {
	m, ok := decoded.(map[string]any)
	if !ok {
		return decoded
	}
	if inner, ok := m["service_response"].(map[string]any); ok {
		m = inner
	}
	if _, ok := m["forecast"]; ok {
		return m
	}
	if len(m) == 1 {
		for _, v := range m {
			if entity, ok := v.(map[string]any); ok {
				if _, ok := entity["forecast"]; ok {
					return entity
				}
			}
		}
	}
	return m
}
