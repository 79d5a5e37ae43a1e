package server

import (
	"github.com/attendkit/presence/internal/config"
	"github.com/attendkit/presence/internal/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewEngine builds the gin engine with the shared middleware chain.
func NewEngine(cfg config.Config, log *zap.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.TestMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.GinMiddleware(log))
	return engine
}
