package scanner

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/san-kum/neurospin/internal/tissue"
)

// Options configures a Controller. Zero values select defaults.
type Options struct {
	Timing Timing
	Clock  Clock
	Logger zerolog.Logger
	// Initial overrides DefaultState when its FieldStrength is valid.
	Initial   *State
	Selection *Selection

	// OnSelect runs in its own goroutine after the selection changes.
	OnSelect func(Selection)
	// OnTick runs on the loop goroutine after every applied tick. It may
	// still see a scan's last tick after that scan was aborted; State.Scan
	// tells scans apart.
	OnTick func(State)
	// OnComplete runs on the loop goroutine once a scan finishes naturally.
	OnComplete func(State)
}

// Controller owns the simulation state and the single scan loop. Every
// command keeps the state invariants and reports whether it was applied.
type Controller struct {
	mu     sync.RWMutex
	state  State
	sel    Selection
	timing Timing
	clock  Clock
	log    zerolog.Logger

	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
	closed bool

	onSelect   func(Selection)
	onTick     func(State)
	onComplete func(State)
}

func NewController(opts Options) *Controller {
	c := &Controller{
		state:      DefaultState(),
		sel:        DefaultSelection(),
		timing:     opts.Timing.withDefaults(),
		clock:      opts.Clock,
		log:        opts.Logger,
		onSelect:   opts.OnSelect,
		onTick:     opts.OnTick,
		onComplete: opts.OnComplete,
	}
	if c.clock == nil {
		c.clock = SystemClock{}
	}
	if opts.Initial != nil && ValidFieldStrength(opts.Initial.FieldStrength) {
		c.state.FieldStrength = opts.Initial.FieldStrength
		if !opts.Initial.MagnetOn {
			c.state.MagnetOn = false
			c.state.Phase = PhaseRandom
		}
	}
	if opts.Selection != nil {
		if opts.Selection.Region.Valid() {
			c.sel.Region = opts.Selection.Region
		}
		if opts.Selection.Sequence.Valid() {
			c.sel.Sequence = opts.Selection.Sequence
		}
	}
	return c
}

func (c *Controller) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Controller) Selection() Selection {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sel
}

func (c *Controller) Timing() Timing { return c.timing }

// StartScan begins an acquisition. It is refused while the magnet is off,
// while a scan is running and after Close.
func (c *Controller) StartScan() bool {
	c.mu.Lock()
	if c.closed || !c.state.MagnetOn || c.state.Scanning {
		c.mu.Unlock()
		return false
	}
	c.state.Scanning = true
	c.state.Progress = 0
	c.state.ElapsedMs = 0
	c.state.SinceExcitationMs = 0
	c.state.Phase = PhaseExcitation

	c.gen++
	gen := c.gen
	c.state.Scan = gen
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	done := make(chan struct{})
	c.done = done
	start := c.clock.Now()
	sel := c.sel
	b0 := c.state.FieldStrength
	c.mu.Unlock()

	c.log.Info().
		Uint64("scan", gen).
		Str("region", string(sel.Region)).
		Str("sequence", string(sel.Sequence)).
		Float64("b0", b0).
		Msg("scan started")

	go c.loop(ctx, gen, start, done)
	return true
}

func (c *Controller) loop(ctx context.Context, gen uint64, start time.Time, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(c.timing.Frame)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if c.advance(gen, c.clock.Now().Sub(start)) {
				return
			}
		}
	}
}

// advance applies a tick and runs the hooks. It reports whether the loop
// for gen should exit.
func (c *Controller) advance(gen uint64, elapsed time.Duration) bool {
	st, applied, finished := c.tick(gen, elapsed)
	if !applied {
		return true
	}
	if c.onTick != nil {
		c.onTick(st)
	}
	if finished {
		c.log.Info().Uint64("scan", gen).Float64("elapsed_ms", st.ElapsedMs).Msg("scan complete")
		if c.onComplete != nil {
			c.onComplete(st)
		}
	}
	return finished
}

// tick advances the scan to elapsed. A tick from a cancelled or superseded
// loop is dropped without touching the state.
func (c *Controller) tick(gen uint64, elapsed time.Duration) (st State, applied, finished bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen || !c.state.Scanning {
		return c.state, false, true
	}
	next, finished := Advance(c.state, elapsed, c.timing)
	c.state = next
	if finished {
		c.releaseLocked()
	}
	return c.state, true, finished
}

// releaseLocked invalidates the running loop. Callers hold mu.
func (c *Controller) releaseLocked() {
	c.gen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// ToggleMagnet flips the main field and returns the new setting. Switching
// off is a quench: any scan is aborted and the spins fall into disorder.
func (c *Controller) ToggleMagnet() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.MagnetOn {
		aborted := c.state.Scanning
		c.state.MagnetOn = false
		c.state.Scanning = false
		c.state.Phase = PhaseRandom
		c.state.Progress = 0
		c.state.ElapsedMs = 0
		c.state.SinceExcitationMs = 0
		c.releaseLocked()
		c.log.Warn().Bool("scan_aborted", aborted).Msg("magnet quench")
		return false
	}

	c.state.MagnetOn = true
	if !c.state.Scanning {
		c.state.Phase = PhaseAlignment
	}
	c.log.Info().Float64("b0", c.state.FieldStrength).Msg("magnet energized")
	return true
}

// StopScan aborts a running scan without keeping partial progress.
func (c *Controller) StopScan() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.Scanning {
		return false
	}
	c.state.Scanning = false
	c.state.Phase = PhaseAlignment
	c.state.Progress = 0
	c.state.ElapsedMs = 0
	c.state.SinceExcitationMs = 0
	c.releaseLocked()
	c.log.Info().Msg("scan stopped")
	return true
}

func (c *Controller) SetFieldStrength(v float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Scanning {
		return false
	}
	if !ValidFieldStrength(v) {
		c.log.Debug().Float64("b0", v).Msg("rejected field strength")
		return false
	}
	c.state.FieldStrength = v
	return true
}

func (c *Controller) SetRegion(r tissue.Region) bool {
	if !r.Valid() {
		return false
	}
	return c.updateSelection(func(s *Selection) { s.Region = r })
}

func (c *Controller) SetSequence(s tissue.Sequence) bool {
	if !s.Valid() {
		return false
	}
	return c.updateSelection(func(sel *Selection) { sel.Sequence = s })
}

func (c *Controller) updateSelection(apply func(*Selection)) bool {
	c.mu.Lock()
	if c.state.Scanning {
		c.mu.Unlock()
		return false
	}
	prev := c.sel
	apply(&c.sel)
	sel := c.sel
	c.mu.Unlock()

	if sel != prev && c.onSelect != nil {
		go c.onSelect(sel)
	}
	return true
}

// Wait blocks until the current scan loop has exited or ctx is done.
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.RLock()
	done := c.done
	c.mu.RUnlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels any running scan and waits for its loop to exit. Later
// StartScan calls are refused.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.state.Scanning {
		c.state.Scanning = false
		c.state.Phase = PhaseAlignment
		c.state.Progress = 0
		c.state.ElapsedMs = 0
		c.state.SinceExcitationMs = 0
	}
	c.releaseLocked()
	done := c.done
	c.mu.Unlock()

	if done != nil {
		<-done
	}
}
