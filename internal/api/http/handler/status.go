package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/EternisAI/netharvest/internal/api/http/dto"
	"github.com/EternisAI/netharvest/internal/pipeline"
	"github.com/EternisAI/netharvest/internal/scheduler"
	"github.com/gin-gonic/gin"
)

type RunScheduler interface {
	LastReport() (*pipeline.Report, bool)
	Running() bool
	Trigger() error
}

type StatusHandler struct {
	scheduler RunScheduler
}

func NewStatusHandler(s RunScheduler) *StatusHandler {
	return &StatusHandler{scheduler: s}
}

// LastReport returns the report of the most recent run
// GET /status
func (h *StatusHandler) LastReport(c *gin.Context) {
	report, ok := h.scheduler.LastReport()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no run has completed yet"})
		return
	}
	c.JSON(http.StatusOK, dto.StatusResponse{
		Running: h.scheduler.Running(),
		Report:  report,
	})
}

// TriggerRun queues an immediate pipeline run
// POST /run
func (h *StatusHandler) TriggerRun(c *gin.Context) {
	if err := h.scheduler.Trigger(); err != nil {
		if errors.Is(err, scheduler.ErrRunInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		slog.Error("Failed to trigger run", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to trigger run"})
		return
	}

	slog.Info("Run triggered via API", "client_ip", c.ClientIP())
	c.JSON(http.StatusAccepted, dto.RunTriggerResponse{Message: "run queued"})
}
