package pruner

import "time"

// Config controls the cache prune loop.
type Config struct {
	Interval time.Duration
}

func DefaultConfig() Config {
	return Config{Interval: time.Hour}
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultConfig().Interval
	}
	return c
}
