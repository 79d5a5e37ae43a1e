package cachestore

import "go.uber.org/fx"

var Module = fx.Module("cachestore",
	fx.Provide(New),
)
