package tag

import (
	"context"
	"errors"

	"github.com/attendkit/presence/internal/fault"
)

// Reader is the external tag-capture primitive: it blocks until the hardware
// yields a raw text record or the context ends.
type Reader interface {
	Read(ctx context.Context) ([]byte, error)
}

// Bridge is a Reader fed by external transports. The HTTP API and the MQTT
// ingest both push scanned records here; the orchestrator's AwaitingTag step
// consumes them. Only the most recent unread scan is kept.
type Bridge struct {
	ch chan []byte
}

func NewBridge() *Bridge {
	return &Bridge{ch: make(chan []byte, 1)}
}

// Push delivers a scanned record. A scan arriving while an older one is
// still unread replaces it; stale scans must never satisfy a later flow.
func (b *Bridge) Push(raw []byte) {
	for {
		select {
		case b.ch <- raw:
			return
		default:
			select {
			case <-b.ch:
			default:
			}
		}
	}
}

// Drain discards any unread scan. Called when a flow starts so a leftover
// scan from a previous flow cannot leak in.
func (b *Bridge) Drain() {
	select {
	case <-b.ch:
	default:
	}
}

func (b *Bridge) Read(ctx context.Context) ([]byte, error) {
	select {
	case raw := <-b.ch:
		return raw, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fault.Wrap(fault.TagReadFailed, "no tag presented before timeout", ctx.Err())
		}
		return nil, ctx.Err()
	}
}
