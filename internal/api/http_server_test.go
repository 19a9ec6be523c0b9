package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"pirouette/internal/config"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProcessor struct {
	updates []tgbotapi.Update
	err     error
}

func (f *fakeProcessor) ProcessUpdate(ctx context.Context, update tgbotapi.Update) error {
	f.updates = append(f.updates, update)
	return f.err
}

func newTestServer(processor *fakeProcessor) *HTTPServer {
	cfg := config.APIConfig{
		Enabled: true,
		Port:    0,
		RateLimit: config.APIRateLimitConfig{
			RPS:   100,
			Burst: 100,
		},
	}
	return NewHTTPServer(cfg, config.MonitoringConfig{PrometheusEnabled: true}, processor)
}

func TestWebhookProcessesUpdate(t *testing.T) {
	processor := &fakeProcessor{}
	srv := newTestServer(processor)

	update := tgbotapi.Update{UpdateID: 42}
	body, err := json.Marshal(update)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/bot", bytes.NewReader(body))
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp["ok"])

	require.Len(t, processor.updates, 1)
	assert.Equal(t, 42, processor.updates[0].UpdateID)
}

func TestWebhookHealthCheck(t *testing.T) {
	srv := newTestServer(&fakeProcessor{})

	req := httptest.NewRequest(http.MethodGet, "/api/bot", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Bot alive", resp["status"])
}

func TestWebhookInvalidBody(t *testing.T) {
	srv := newTestServer(&fakeProcessor{})

	req := httptest.NewRequest(http.MethodPost, "/api/bot", bytes.NewReader([]byte("{not json")))
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookProcessorError(t *testing.T) {
	srv := newTestServer(&fakeProcessor{err: errors.New("boom")})

	body, err := json.Marshal(tgbotapi.Update{UpdateID: 1})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/bot", bytes.NewReader(body))
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealthzEndpoint(t *testing.T) {
	srv := newTestServer(&fakeProcessor{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitExceeded(t *testing.T) {
	processor := &fakeProcessor{}
	cfg := config.APIConfig{
		Enabled: true,
		RateLimit: config.APIRateLimitConfig{
			RPS:   1,
			Burst: 1,
		},
	}
	srv := NewHTTPServer(cfg, config.MonitoringConfig{}, processor)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)

		if i == 0 {
			assert.Equal(t, http.StatusOK, rec.Code)
		} else {
			assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		}
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(&fakeProcessor{})

	req := httptest.NewRequest(http.MethodDelete, "/api/bot", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
