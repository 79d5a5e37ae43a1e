package capture

import (
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
)

// StepEvent describes one state transition of a capture flow. Events are
// published to every subscriber; the orchestrator never depends on who, if
// anyone, is listening.
type StepEvent struct {
	FlowID snowflake.ID
	From   FlowState
	To     FlowState
	Err    error
	At     time.Time
}

const subscriberBuffer = 16

// broadcaster fans step events out to subscribers. Sends never block: a
// subscriber that falls behind loses events rather than stalling the flow.
type broadcaster struct {
	mu   sync.Mutex
	subs map[int]chan StepEvent
	next int
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[int]chan StepEvent)}
}

func (b *broadcaster) Subscribe() (<-chan StepEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan StepEvent, subscriberBuffer)
	b.subs[id] = ch
	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
}

func (b *broadcaster) publish(ev StepEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		select {
		case sub <- ev:
		default:
		}
	}
}
