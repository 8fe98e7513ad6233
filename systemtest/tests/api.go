package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	internalhttp "github.com/EternisAI/netharvest/internal/api/http"
	"github.com/EternisAI/netharvest/internal/api/http/dto"
	"github.com/EternisAI/netharvest/internal/metrics"
	"github.com/EternisAI/netharvest/internal/scheduler"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminKey = "system-test-key"

func TestStatusAPI(t *testing.T, env *Env) {
	reg := prometheus.NewRegistry()
	sched := scheduler.NewScheduler(env.Pipeline, metrics.New(reg), scheduler.Config{Interval: time.Hour})

	router := gin.New()
	internalhttp.SetupRoute(router, &internalhttp.Services{
		Scheduler:      sched,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		AdminAPIKey:    adminKey,
	})

	t.Run("status before first run", func(t *testing.T) {
		rr := do(router, http.MethodGet, "/status", "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sched.Start(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	require.Eventually(t, func() bool {
		_, ok := sched.LastReport()
		return ok && !sched.Running()
	}, 5*time.Second, 10*time.Millisecond)

	t.Run("status after run", func(t *testing.T) {
		rr := do(router, http.MethodGet, "/status", "")
		require.Equal(t, http.StatusOK, rr.Code)

		var resp struct {
			Running bool `json:"running"`
			Report  struct {
				Outcome string `json:"outcome"`
				Merged  int    `json:"merged"`
			} `json:"report"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "no-delta", resp.Report.Outcome)
		assert.Equal(t, 3, resp.Report.Merged)
	})

	t.Run("trigger requires key", func(t *testing.T) {
		rr := do(router, http.MethodPost, "/run", "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("trigger run", func(t *testing.T) {
		rr := do(router, http.MethodPost, "/run", adminKey)
		require.Equal(t, http.StatusAccepted, rr.Code)

		var resp dto.RunTriggerResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Message)
	})

	t.Run("metrics", func(t *testing.T) {
		rr := do(router, http.MethodGet, "/metrics", "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `netharvest_runs_total{outcome="no-delta"}`)
		assert.Contains(t, rr.Body.String(), "netharvest_canonical_size 3")
	})
}

func do(router *gin.Engine, method, path, apiKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}
