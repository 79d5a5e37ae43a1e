package location

import (
	"context"
	"errors"

	"github.com/attendkit/presence/internal/fault"
	"github.com/attendkit/presence/internal/geo"
)

// Provider is the external location primitive: it blocks until a coordinate
// fix is available or the context ends.
type Provider interface {
	Acquire(ctx context.Context) (geo.Coordinate, error)
}

// Fix is a raw position report pushed by a device agent.
type Fix struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
}

// Bridge is a Provider fed by external transports (HTTP push, MQTT). Only
// the most recent unconsumed fix is kept.
type Bridge struct {
	ch chan geo.Coordinate
}

func NewBridge() *Bridge {
	return &Bridge{ch: make(chan geo.Coordinate, 1)}
}

// Push validates and delivers a fix. Out-of-range values are rejected at
// this boundary so the orchestrator only ever sees valid coordinates.
func (b *Bridge) Push(fix Fix) error {
	coord, err := geo.New(fix.Latitude, fix.Longitude, fix.Accuracy)
	if err != nil {
		return err
	}
	for {
		select {
		case b.ch <- coord:
			return nil
		default:
			select {
			case <-b.ch:
			default:
			}
		}
	}
}

// Drain discards any unconsumed fix.
func (b *Bridge) Drain() {
	select {
	case <-b.ch:
	default:
	}
}

func (b *Bridge) Acquire(ctx context.Context) (geo.Coordinate, error) {
	select {
	case coord := <-b.ch:
		return coord, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return geo.Coordinate{}, fault.Wrap(fault.LocationUnavailable, "no fix acquired before timeout", ctx.Err())
		}
		return geo.Coordinate{}, ctx.Err()
	}
}
