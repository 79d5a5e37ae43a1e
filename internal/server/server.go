package server

import (
	"context"
	"errors"
	"net/http"

	attendancedomain "github.com/attendkit/presence/internal/attendance/domain"
	"github.com/attendkit/presence/internal/cachestore"
	"github.com/attendkit/presence/internal/capture"
	"github.com/attendkit/presence/internal/config"
	"github.com/attendkit/presence/internal/location"
	"github.com/attendkit/presence/internal/tag"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Server is the local HTTP surface of the presence engine. It is the boundary
// a UI or device agent talks to; all capture semantics live below it.
type Server struct {
	cfg        config.Config
	log        *zap.Logger
	engine     *gin.Engine
	manager    *capture.Manager
	attendance attendancedomain.Service
	tags       *tag.Bridge
	fixes      *location.Bridge
	store      *cachestore.Store
	limiter    *rateLimiter
}

type Params struct {
	fx.In

	Config     config.Config
	Engine     *gin.Engine
	Manager    *capture.Manager
	Attendance attendancedomain.Service
	Tags       *tag.Bridge
	Fixes      *location.Bridge
	Store      *cachestore.Store
	Log        *zap.Logger
}

func NewServer(p Params) *Server {
	return &Server{
		cfg:        p.Config,
		log:        p.Log.Named("server"),
		engine:     p.Engine,
		manager:    p.Manager,
		attendance: p.Attendance,
		tags:       p.Tags,
		fixes:      p.Fixes,
		store:      p.Store,
		limiter:    newRateLimiter(p.Config.CaptureRateLimit, p.Config.CaptureRateWindow),
	}
}

// RegisterAPIRoutes mounts the local API under /api.
func (s *Server) RegisterAPIRoutes() {
	api := s.engine.Group("/api")

	api.POST("/capture", s.StartCapture)
	api.GET("/capture", s.CaptureStatus)
	api.DELETE("/capture", s.CancelCapture)

	api.POST("/tag", s.PushTag)
	api.POST("/location", s.PushFix)

	api.GET("/history", s.History)
	api.GET("/locations/:id", s.LocationMeta)

	api.GET("/cache/stats", s.CacheStats)
	api.POST("/signout", s.SignOut)
}

// RunHTTP starts the listener under the fx lifecycle.
func RunHTTP(lc fx.Lifecycle, cfg config.Config, engine *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
