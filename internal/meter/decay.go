// ABOUTME: Meter decay engine: live metering while playing, fall-off when stopped
// ABOUTME: Owns one cancellable decay ticker; all writes go through the Desk
package meter

import (
	"context"
	"sync"
	"time"

	"github.com/Mixdesk-Audio/mixdesk-go/internal/mixer"
	"github.com/Mixdesk-Audio/mixdesk-go/internal/protocol"
)

const (
	// DefaultTick approximates a 60 Hz meter refresh.
	DefaultTick = 16 * time.Millisecond

	// DefaultFactor is the per-tick fall-off multiplier.
	DefaultFactor = 0.85

	// DefaultFloor is the level under which the decay ticker stops
	// itself rather than idle forever.
	DefaultFloor = 0.001
)

// Config holds decay engine options. Zero values take the defaults.
type Config struct {
	Tick   time.Duration
	Factor float64
	Floor  float64
}

// Engine drives the desk's meters from two external streams: transport
// state and live metering. While the transport plays, frames overwrite
// the meters; when it stops, a periodic tick decays them toward silence.
type Engine struct {
	desk   *mixer.Desk
	tick   time.Duration
	factor float64
	floor  float64

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	playing     bool
	decayCancel context.CancelFunc // nil when the decay ticker is idle
}

// New creates a decay engine writing into desk.
func New(desk *mixer.Desk, config Config) *Engine {
	if config.Tick <= 0 {
		config.Tick = DefaultTick
	}
	if config.Factor <= 0 || config.Factor >= 1 {
		config.Factor = DefaultFactor
	}
	if config.Floor <= 0 {
		config.Floor = DefaultFloor
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		desk:   desk,
		tick:   config.Tick,
		factor: config.Factor,
		floor:  config.Floor,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Run consumes both streams until Stop or until both close. Call it on
// its own goroutine; it is the only context that touches the meters, so
// every write funnels through the desk's single mutation path.
func (e *Engine) Run(transport <-chan protocol.TransportState, metering <-chan protocol.MeteringState) {
	for {
		select {
		case <-e.ctx.Done():
			e.stopDecay()
			return

		case ts, ok := <-transport:
			if !ok {
				transport = nil
			} else {
				e.setPlaying(ts.IsPlaying)
			}

		case ms, ok := <-metering:
			if !ok {
				metering = nil
			} else if e.isPlaying() {
				// Stale frames can trail a stop; the decay ticker owns
				// the meters once the transport halts.
				e.desk.ApplyMetering(ms)
			}
		}

		if transport == nil && metering == nil {
			e.stopDecay()
			return
		}
	}
}

// Stop tears the engine down, cancelling the decay ticker on every path.
// Safe to call more than once.
func (e *Engine) Stop() {
	e.cancel()
	e.stopDecay()
}

// IsDecaying reports whether the fall-off ticker is currently running.
func (e *Engine) IsDecaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.decayCancel != nil
}

func (e *Engine) isPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

func (e *Engine) setPlaying(playing bool) {
	e.mu.Lock()
	e.playing = playing
	e.mu.Unlock()

	if playing {
		e.stopDecay()
	} else {
		e.startDecay()
	}
}

// startDecay launches the fall-off ticker. Idempotent: a second stop
// event while one ticker runs does not start another.
func (e *Engine) startDecay() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.decayCancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(e.ctx)
	e.decayCancel = cancel
	go e.decayLoop(ctx)
}

// stopDecay cancels the fall-off ticker. Idempotent: safe when idle.
func (e *Engine) stopDecay() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.decayCancel != nil {
		e.decayCancel()
		e.decayCancel = nil
	}
}

func (e *Engine) decayLoop(ctx context.Context) {
	ticker := time.NewTicker(e.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// A dispose can race the tick; never write after cancel.
			if ctx.Err() != nil {
				return
			}
			if e.desk.DecayStep(e.factor) < e.floor {
				e.clearDecay(ctx)
				return
			}
		}
	}
}

// clearDecay releases the ticker slot after a self-stop, but only if the
// slot still belongs to this loop.
func (e *Engine) clearDecay(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.decayCancel != nil && ctx.Err() == nil {
		e.decayCancel()
		e.decayCancel = nil
	}
}
