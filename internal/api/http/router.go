package http

import (
	"net/http"

	"github.com/EternisAI/netharvest/internal/api/http/handler"
	"github.com/EternisAI/netharvest/internal/api/http/middleware"
	"github.com/gin-gonic/gin"
)

type Services struct {
	Scheduler      handler.RunScheduler
	MetricsHandler http.Handler
	AdminAPIKey    string
}

func SetupRoute(engine *gin.Engine, srvs *Services) {
	engine.Use(middleware.RequestLogger())

	healthHandler := handler.NewHealthHandler()
	engine.GET("/health", healthHandler.Check)

	if srvs.MetricsHandler != nil {
		engine.GET("/metrics", gin.WrapH(srvs.MetricsHandler))
	}

	if srvs.Scheduler != nil {
		statusHandler := handler.NewStatusHandler(srvs.Scheduler)
		engine.GET("/status", statusHandler.LastReport)

		admin := engine.Group("/", middleware.APIKeyAuth(srvs.AdminAPIKey))
		admin.POST("/run", statusHandler.TriggerRun)
	}
}
