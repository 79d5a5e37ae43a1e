package pruner

import (
	"context"
	"time"

	"github.com/attendkit/presence/internal/cachestore"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Store  *cachestore.Store
	Log    *zap.Logger
	Config Config `optional:"true"`
}

// Worker periodically removes expired TTL-bearing cache entries. History is
// never pruned.
type Worker struct {
	store *cachestore.Store
	log   *zap.Logger
	cfg   Config
}

func NewWorker(p Params) *Worker {
	return &Worker{
		store: p.Store,
		log:   p.Log.Named("cachestore.pruner"),
		cfg:   p.Config.withDefaults(),
	}
}

func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		if err := w.RunOnce(ctx); err != nil {
			w.log.Warn("cache prune failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pruned, err := w.store.PruneExpired(ctx)
	if err != nil {
		return err
	}
	if pruned > 0 {
		w.log.Info("pruned expired cache entries", zap.Int64("count", pruned))
	}
	return nil
}
