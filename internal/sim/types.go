package sim

import (
	"errors"
	"time"

	"github.com/san-kum/neurospin/internal/scanner"
	"github.com/san-kum/neurospin/internal/storage"
)

var (
	// ErrMagnetOff indicates a scan requested with the main field down.
	ErrMagnetOff = errors.New("sim: magnet is off")

	// ErrFrameStep indicates a non-positive frame interval.
	ErrFrameStep = errors.New("sim: frame step must be positive")
)

type Metric interface {
	Name() string
	Observe(f storage.Frame)
	Value() float64
	Reset()
}

type Observer interface {
	OnFrame(f storage.Frame, st scanner.State)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(storage.Frame, scanner.State)

func (fn ObserverFunc) OnFrame(f storage.Frame, st scanner.State) { fn(f, st) }

type Config struct {
	Timing    scanner.Timing
	FrameStep time.Duration
}

func DefaultConfig() Config {
	t := scanner.DefaultTiming()
	return Config{Timing: t, FrameStep: t.Frame}
}

type Result struct {
	Frames  []storage.Frame
	Final   scanner.State
	Metrics map[string]float64
}
