package capture

import (
	"context"
	"sync"

	"github.com/attendkit/presence/internal/attendance/domain"
	"github.com/bwmarrin/snowflake"
	jujuclock "github.com/juju/clock"
	"go.uber.org/zap"
)

// Manager is the caller boundary for capture flows. It enforces the
// at-most-one-in-flight rule: a second start request is rejected, never
// queued, and the active flow is left untouched.
type Manager struct {
	deps  Deps
	cfg   Config
	clk   jujuclock.Clock
	genID *snowflake.Node
	log   *zap.Logger

	events *broadcaster

	mu          sync.Mutex
	active      *Orchestrator
	lastOutcome *domain.AttemptOutcome
	lastErr     error
}

func NewManager(deps Deps, cfg Config, clk jujuclock.Clock, genID *snowflake.Node, log *zap.Logger) *Manager {
	return &Manager{
		deps:   deps,
		cfg:    cfg.withDefaults(),
		clk:    clk,
		genID:  genID,
		log:    log,
		events: newBroadcaster(),
	}
}

type drainable interface{ Drain() }

// Start launches a new capture flow and returns its identifier. The flow
// runs detached from the caller's request lifetime.
func (m *Manager) Start() (snowflake.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil && !m.active.State().Terminal() {
		return 0, ErrCaptureInFlight
	}

	// Leftover pushes from a previous flow must not satisfy this one.
	if d, ok := m.deps.Tags.(drainable); ok {
		d.Drain()
	}
	if d, ok := m.deps.Location.(drainable); ok {
		d.Drain()
	}

	o := newOrchestrator(m.genID.Generate(), m.deps, m.cfg, m.clk, m.log, m.events)
	m.active = o
	go m.run(o)
	return o.ID(), nil
}

func (m *Manager) run(o *Orchestrator) {
	outcome, err := o.Run(context.Background())
	m.mu.Lock()
	m.lastOutcome = outcome
	m.lastErr = err
	m.mu.Unlock()
}

// Cancel requests cancellation of the active flow. Returns false when no
// flow is in progress.
func (m *Manager) Cancel() bool {
	m.mu.Lock()
	o := m.active
	m.mu.Unlock()

	if o == nil || o.State().Terminal() {
		return false
	}
	o.Cancel()
	return true
}

// State reports the active flow's state, or Idle when none is running.
func (m *Manager) State() (snowflake.ID, FlowState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return 0, StateIdle
	}
	return m.active.ID(), m.active.State()
}

// LastResult returns the most recent terminal flow's outcome and error.
func (m *Manager) LastResult() (*domain.AttemptOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastOutcome, m.lastErr
}

// Subscribe registers a step-event observer. The returned cancel func must
// be called to release the subscription.
func (m *Manager) Subscribe() (<-chan StepEvent, func()) {
	return m.events.Subscribe()
}
