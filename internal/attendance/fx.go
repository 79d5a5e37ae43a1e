package attendance

import (
	"github.com/attendkit/presence/internal/attendance/domain"
	"github.com/attendkit/presence/internal/attendance/service"
	"github.com/attendkit/presence/internal/cachestore"
	"github.com/attendkit/presence/internal/remote"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("attendance.service",
	fx.Provide(func(store *cachestore.Store, client *remote.Client, log *zap.Logger) domain.Service {
		return service.NewService(store, client, log)
	}),
)
