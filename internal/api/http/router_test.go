package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/EternisAI/netharvest/internal/pipeline"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubScheduler struct {
	report *pipeline.Report
}

func (s *stubScheduler) LastReport() (*pipeline.Report, bool) { return s.report, s.report != nil }
func (s *stubScheduler) Running() bool { return false }
func (s *stubScheduler) Trigger() error { return nil }

func newTestEngine() *gin.Engine {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "netharvest_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	engine := gin.New()
	SetupRoute(engine, &Services{
		Scheduler:      &stubScheduler{report: &pipeline.Report{RunID: "abc", Outcome: pipeline.OutcomeNoDelta}},
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		AdminAPIKey:    "secret",
	})
	return engine
}

func TestSetupRoute(t *testing.T) {
	engine := newTestEngine()

	tests := []struct {
		name       string
		method     string
		path       string
		apiKey     string
		wantStatus int
		wantBody   string
	}{
		{name: "health", method: http.MethodGet, path: "/health", wantStatus: http.StatusOK, wantBody: `"ok"`},
		{name: "status", method: http.MethodGet, path: "/status", wantStatus: http.StatusOK, wantBody: `"no-delta"`},
		{name: "metrics", method: http.MethodGet, path: "/metrics", wantStatus: http.StatusOK, wantBody: "netharvest_test_total 1"},
		{name: "run without key", method: http.MethodPost, path: "/run", wantStatus: http.StatusUnauthorized},
		{name: "run with key", method: http.MethodPost, path: "/run", apiKey: "secret", wantStatus: http.StatusAccepted},
		{name: "unknown route", method: http.MethodGet, path: "/nope", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.apiKey != "" {
				req.Header.Set("X-API-Key", tt.apiKey)
			}
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.Contains(t, w.Body.String(), tt.wantBody)
			}
		})
	}
}
