package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"pirouette/internal/config"
	"pirouette/internal/metrics"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// UpdateProcessor обрабатывает одно обновление Telegram.
type UpdateProcessor interface {
	ProcessUpdate(ctx context.Context, update tgbotapi.Update) error
}

// HTTPServer принимает вебхук Telegram и отдаёт служебные эндпоинты.
type HTTPServer struct {
	cfg        config.APIConfig
	monitoring config.MonitoringConfig
	processor  UpdateProcessor
	server     *http.Server
	limiter    *rateLimiter
}

func NewHTTPServer(cfg config.APIConfig, monitoring config.MonitoringConfig, processor UpdateProcessor) *HTTPServer {
	mux := http.NewServeMux()
	srv := &HTTPServer{
		cfg:        cfg,
		monitoring: monitoring,
		processor:  processor,
		limiter:    newRateLimiter(&cfg.RateLimit),
	}

	mux.HandleFunc("/api/bot", srv.handleBot)
	mux.HandleFunc("/healthz", srv.handleHealthz)
	if monitoring.PrometheusEnabled {
		mux.Handle("/metrics", promhttp.Handler())
	}

	handler := loggingMiddleware(srv.rateLimitMiddleware(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	log.Printf("HTTP API listening on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler отдаёт собранный обработчик, используется в тестах.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) handleBot(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("/api/bot")

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]string{"status": "Bot alive"})
	case http.MethodPost:
		var update tgbotapi.Update
		decoder := json.NewDecoder(r.Body)
		if err := decoder.Decode(&update); err != nil {
			writeError(w, http.StatusBadRequest, "invalid update body")
			return
		}
		if err := s.processor.ProcessUpdate(r.Context(), update); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to process update")
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("/healthz")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.RateLimit.RPS > 0 {
			if !s.limiter.getLimiter(clientKey(r)).Allow() {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return "unknown"
}

type rateLimiter struct {
	limiters sync.Map
	cfg      *config.APIRateLimitConfig
}

func newRateLimiter(cfg *config.APIRateLimitConfig) *rateLimiter {
	return &rateLimiter{cfg: cfg}
}

func (l *rateLimiter) getLimiter(key string) *rate.Limiter {
	if v, ok := l.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}

	burst := l.cfg.Burst
	if burst <= 0 {
		burst = 5
	}

	lim := rate.NewLimiter(rate.Limit(l.cfg.RPS), burst)
	actual, loaded := l.limiters.LoadOrStore(key, lim)
	if loaded {
		return actual.(*rate.Limiter)
	}
	return lim
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		dur := time.Since(start)
		log.Printf("http method=%s path=%s status=%d dur=%s", r.Method, r.URL.Path, recorder.status, dur)
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
