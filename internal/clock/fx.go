package clock

import (
	jujuclock "github.com/juju/clock"
	"go.uber.org/fx"
)

var Module = fx.Module("clock",
	fx.Provide(func() jujuclock.Clock {
		return jujuclock.WallClock
	}),
)
