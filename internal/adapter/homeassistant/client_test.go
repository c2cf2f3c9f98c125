package homeassistant

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "test-token"

func testClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      testToken,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestClient_GetForecast_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/services/weather/get_forecasts", r.URL.Path)
		assert.Contains(t, r.URL.RawQuery, "return_response")
		assert.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hourly", body["type"])
		target, ok := body["target"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "dev-1", target["device_id"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"service_response": {
				"weather.forecast_home": {
					"forecast": [
						{"datetime": "2024-04-26T15:00:00Z", "precipitation": 2.5}
					]
				}
			}
		}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	payload, err := c.GetForecast(context.Background(), "dev-1", "hourly")
	require.NoError(t, err)

	m, ok := payload.(map[string]any)
	require.True(t, ok, "envelope should unwrap to the entity forecast object")
	forecast, ok := m["forecast"].([]any)
	require.True(t, ok)
	require.Len(t, forecast, 1)
}

func TestClient_GetForecast_NoEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"forecast": [{"datetime": "2024-04-26T15:00:00Z", "temperature": 7}]}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	payload, err := c.GetForecast(context.Background(), "dev-1", "hourly")
	require.NoError(t, err)

	m, ok := payload.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, m, "forecast")
}

func TestClient_GetForecast_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.GetForecast(context.Background(), "dev-1", "hourly")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestClient_GetForecast_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.GetForecast(context.Background(), "dev-1", "hourly")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode forecast response")
}

func TestClient_Notify_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/services/notify/mobile_app_phone", r.URL.Path)
		assert.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Regn - Rain Warning", body["title"])
		assert.Equal(t, "Lite regn (2.5 mm/h)", body["message"])

		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	err := c.Notify(context.Background(), "mobile_app_phone", "Regn - Rain Warning", "Lite regn (2.5 mm/h)")
	require.NoError(t, err)
}

func TestClient_Notify_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unknown notify service", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	err := c.Notify(context.Background(), "mobile_app_missing", "t", "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mobile_app_missing")
	assert.Contains(t, err.Error(), "status 400")
}

func TestClient_Notify_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	c := testClient(srv.URL)
	err := c.Notify(context.Background(), "phone", "t", "m")
	assert.Error(t, err)
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	c := NewClient("http://ha.local:8123/", testToken, time.Second,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Equal(t, "http://ha.local:8123", c.baseURL)
}
