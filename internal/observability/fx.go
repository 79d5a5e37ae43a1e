package observability

import (
	"github.com/attendkit/presence/internal/observability/tracing"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Invoke(tracing.NewProvider),
)
