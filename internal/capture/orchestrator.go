package capture

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/attendkit/presence/internal/attendance/domain"
	"github.com/attendkit/presence/internal/fault"
	"github.com/attendkit/presence/internal/geo"
	"github.com/attendkit/presence/internal/location"
	"github.com/attendkit/presence/internal/payload"
	"github.com/attendkit/presence/internal/tag"
	"github.com/bwmarrin/snowflake"
	jujuclock "github.com/juju/clock"
	"github.com/juju/retry"
	"go.uber.org/zap"
)

// Submitter sends one validation request to the remote validator.
type Submitter interface {
	SubmitAttempt(ctx context.Context, p payload.Payload, coord geo.Coordinate) (domain.AttemptOutcome, error)
}

// HistoryRefresher forces the cached attendance list to be refetched.
type HistoryRefresher interface {
	RefreshHistory(ctx context.Context) error
}

// Deps are the collaborators a capture flow drives. All injected; the
// orchestrator owns no globals.
type Deps struct {
	Tags     tag.Reader
	Location location.Provider
	Remote   Submitter
	History  HistoryRefresher
}

// Config controls step timeouts and the submission retry budget.
type Config struct {
	TagWaitTimeout  time.Duration
	LocationTimeout time.Duration
	RetryAttempts   int
	RetryDelay      time.Duration
}

func (c Config) withDefaults() Config {
	if c.TagWaitTimeout <= 0 {
		c.TagWaitTimeout = 30 * time.Second
	}
	if c.LocationTimeout <= 0 {
		c.LocationTimeout = 15 * time.Second
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 2 * time.Second
	}
	return c
}

var (
	// ErrCaptureInFlight is returned when a second flow is started while
	// one is active. The active flow is left untouched.
	ErrCaptureInFlight = errors.New("capture_in_flight")

	// ErrCancelled is the result of a cooperatively cancelled flow.
	ErrCancelled = errors.New("capture_cancelled")

	errSingleUse = errors.New("orchestrator instances are single-use")
)

// Orchestrator drives one capture attempt through the flow states. Instances
// are single-use: create a new one per attempt.
type Orchestrator struct {
	id     snowflake.ID
	deps   Deps
	cfg    Config
	clk    jujuclock.Clock
	log    *zap.Logger
	events *broadcaster

	started atomic.Bool

	mu    sync.Mutex
	state FlowState

	cancelOnce sync.Once
	cancelCh   chan struct{}
	done       chan struct{}
}

func newOrchestrator(id snowflake.ID, deps Deps, cfg Config, clk jujuclock.Clock, log *zap.Logger, events *broadcaster) *Orchestrator {
	return &Orchestrator{
		id:       id,
		deps:     deps,
		cfg:      cfg.withDefaults(),
		clk:      clk,
		log:      log.Named("capture").With(zap.Int64("flow_id", int64(id))),
		events:   events,
		state:    StateIdle,
		cancelCh: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// ID returns the flow identifier.
func (o *Orchestrator) ID() snowflake.ID { return o.id }

// State returns the currently active flow state.
func (o *Orchestrator) State() FlowState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Cancel requests cooperative cancellation. The flow transitions to
// Cancelled at the next step boundary; an in-flight submission is awaited
// and its result discarded.
func (o *Orchestrator) Cancel() {
	o.cancelOnce.Do(func() { close(o.cancelCh) })
}

func (o *Orchestrator) cancelled() bool {
	select {
	case <-o.cancelCh:
		return true
	default:
		return false
	}
}

// Run executes the flow to a terminal state. It returns the attempt outcome
// on Complete, ErrCancelled on Cancelled, and the originating fault on
// Failed.
func (o *Orchestrator) Run(ctx context.Context) (*domain.AttemptOutcome, error) {
	if !o.started.CompareAndSwap(false, true) {
		return nil, errSingleUse
	}
	defer close(o.done)

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	go func() {
		select {
		case <-o.cancelCh:
			cancelRun()
		case <-o.done:
		}
	}()

	// AwaitingTag
	o.transition(StateAwaitingTag, nil)
	if o.deps.Tags == nil {
		return o.fail(fault.New(fault.TagUnavailable, "tag subsystem not available"))
	}
	tagCtx, cancelTag := context.WithTimeout(runCtx, o.cfg.TagWaitTimeout)
	raw, err := o.deps.Tags.Read(tagCtx)
	cancelTag()
	if err != nil {
		return o.stepError(err)
	}
	if o.cancelled() {
		return o.cancelResult()
	}

	// Decoding
	o.transition(StateDecoding, nil)
	p, err := payload.Decode(raw)
	if err != nil {
		return o.stepError(err)
	}
	if o.cancelled() {
		return o.cancelResult()
	}

	// AcquiringLocation
	o.transition(StateAcquiringLocation, nil)
	if o.deps.Location == nil {
		return o.fail(fault.New(fault.LocationUnavailable, "location subsystem not available"))
	}
	locCtx, cancelLoc := context.WithTimeout(runCtx, o.cfg.LocationTimeout)
	coord, err := o.deps.Location.Acquire(locCtx)
	cancelLoc()
	if err != nil {
		return o.stepError(err)
	}
	if o.cancelled() {
		return o.cancelResult()
	}

	// Submitting / Retrying
	o.transition(StateSubmitting, nil)
	outcome, err := o.submit(ctx, p, coord)
	if o.cancelled() {
		// The round trip was awaited; the verdict is discarded.
		return o.cancelResult()
	}
	if err != nil {
		return o.stepError(err)
	}

	// Forced refresh so the new outcome is visible to the next history
	// read. Refresh failure never fails a completed attempt.
	if o.deps.History != nil {
		refreshCtx, cancelRefresh := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		if err := o.deps.History.RefreshHistory(refreshCtx); err != nil {
			o.log.Warn("history refresh after completion failed", zap.Error(err))
		}
		cancelRefresh()
	}

	o.transition(StateComplete, nil)
	o.log.Info("capture complete",
		zap.String("status", string(outcome.Status)),
		zap.String("reason_code", string(outcome.ReasonCode)),
	)
	return &outcome, nil
}

// submit performs the network round trip with the bounded retry budget.
// Only network faults retry; the cancel channel stops further retries while
// the in-flight attempt always runs to completion.
func (o *Orchestrator) submit(ctx context.Context, p payload.Payload, coord geo.Coordinate) (domain.AttemptOutcome, error) {
	submitCtx := context.WithoutCancel(ctx)

	var outcome domain.AttemptOutcome
	attempt := 0
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			attempt++
			if attempt > 1 {
				o.transition(StateSubmitting, nil)
			}
			var err error
			outcome, err = o.deps.Remote.SubmitAttempt(submitCtx, p, coord)
			return err
		},
		IsFatalError: func(err error) bool {
			return !fault.Retryable(err)
		},
		NotifyFunc: func(lastError error, attempt int) {
			if o.cancelled() {
				return
			}
			o.log.Warn("submission failed, retrying",
				zap.Int("attempt", attempt),
				zap.Error(lastError),
			)
			o.transition(StateRetrying, nil)
		},
		Attempts: o.cfg.RetryAttempts,
		Delay:    o.cfg.RetryDelay,
		Clock:    o.clk,
		Stop:     o.cancelCh,
	})
	if err == nil {
		return outcome, nil
	}
	if retry.IsAttemptsExceeded(err) || retry.IsRetryStopped(err) {
		if retry.IsAttemptsExceeded(err) {
			// The exhaustion check happens in Retrying.
			o.transition(StateRetrying, nil)
		}
		return domain.AttemptOutcome{}, retry.LastError(err)
	}
	return domain.AttemptOutcome{}, err
}

// stepError resolves a step failure into Cancelled or Failed.
func (o *Orchestrator) stepError(err error) (*domain.AttemptOutcome, error) {
	if o.cancelled() || errors.Is(err, context.Canceled) {
		return o.cancelResult()
	}
	return o.fail(err)
}

func (o *Orchestrator) fail(err error) (*domain.AttemptOutcome, error) {
	o.transition(StateFailed, err)
	o.log.Warn("capture failed", zap.Error(err))
	return nil, err
}

func (o *Orchestrator) cancelResult() (*domain.AttemptOutcome, error) {
	o.transition(StateCancelled, nil)
	o.log.Info("capture cancelled")
	return nil, ErrCancelled
}

func (o *Orchestrator) transition(to FlowState, err error) {
	o.mu.Lock()
	from := o.state
	if from == to || from.Terminal() {
		o.mu.Unlock()
		return
	}
	o.state = to
	o.mu.Unlock()

	o.events.publish(StepEvent{
		FlowID: o.id,
		From:   from,
		To:     to,
		Err:    err,
		At:     time.Now().UTC(),
	})
}
