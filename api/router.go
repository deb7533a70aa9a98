package api

import (
	"context"

	"github.com/chambridge/pure-monitor/api/handlers"
	"github.com/chambridge/pure-monitor/internal/config"
	"github.com/chambridge/pure-monitor/internal/db"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CapacityStore is the capacity history as the API sees it.
type CapacityStore interface {
	QueryCapacitySamples(ctx context.Context, q db.CapacityQuery) ([]db.CapacitySample, int, error)
	InsertCapacitySample(ctx context.Context, sample db.CapacitySample) error
}

func SetupRouter(store CapacityStore, cfg *config.Config, log *zap.Logger) *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", handlers.HealthzHandler())
	r.GET("/status", handlers.StatusPageHandler(cfg.OutputPath))

	api := r.Group("/api")
	{
		api.POST("/capacity/v1/upload", handlers.UploadHandler(store, log))
		api.GET("/capacity/v1/samples", handlers.QueryCapacityHandler(store))
	}

	return r
}
