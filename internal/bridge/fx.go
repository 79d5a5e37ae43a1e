package bridge

import (
	"context"

	"github.com/attendkit/presence/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("bridge.mqtt",
	fx.Provide(NewIngest),
	fx.Invoke(register),
)

func register(lc fx.Lifecycle, cfg config.Config, ingest *Ingest, log *zap.Logger) {
	if !cfg.MQTT.Enabled {
		log.Debug("mqtt bridge disabled, tag and fix ingest via HTTP only")
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return ingest.Start()
		},
		OnStop: func(context.Context) error {
			ingest.Stop()
			return nil
		},
	})
}
