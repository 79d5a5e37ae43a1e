package capture

import (
	attendancedomain "github.com/attendkit/presence/internal/attendance/domain"
	"github.com/attendkit/presence/internal/config"
	"github.com/attendkit/presence/internal/location"
	"github.com/attendkit/presence/internal/remote"
	"github.com/attendkit/presence/internal/tag"
	"github.com/bwmarrin/snowflake"
	jujuclock "github.com/juju/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("capture",
	fx.Provide(tag.NewBridge),
	fx.Provide(location.NewBridge),
	fx.Provide(newManager),
)

type managerParams struct {
	fx.In

	Config   config.Config
	Tags     *tag.Bridge
	Location *location.Bridge
	Remote   *remote.Client
	History  attendancedomain.Service
	Clock    jujuclock.Clock
	GenID    *snowflake.Node
	Log      *zap.Logger
}

func newManager(p managerParams) *Manager {
	deps := Deps{
		Tags:     p.Tags,
		Location: p.Location,
		Remote:   p.Remote,
		History:  p.History,
	}
	cfg := Config{
		TagWaitTimeout:  p.Config.TagWaitTimeout,
		LocationTimeout: p.Config.LocationTimeout,
		RetryAttempts:   p.Config.RetryAttempts,
		RetryDelay:      p.Config.RetryDelay,
	}
	return NewManager(deps, cfg, p.Clock, p.GenID, p.Log)
}
