// Package sim runs scans headlessly on a virtual clock and samples the spin
// field into recorded frames.
package sim

import (
	"context"
	"time"

	"github.com/san-kum/neurospin/internal/kspace"
	"github.com/san-kum/neurospin/internal/scanner"
	"github.com/san-kum/neurospin/internal/spin"
	"github.com/san-kum/neurospin/internal/storage"
)

type Simulator struct {
	field     *spin.Field
	metrics   []Metric
	observers []Observer
}

func New(field *spin.Field) *Simulator {
	return &Simulator{
		field:     field,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Capture samples the field for a state. Scan elapsed time stands in for
// wall time so captures are reproducible.
func Capture(field *spin.Field, st scanner.State) storage.Frame {
	mxy, mz := spin.NetMagnetization(field.Frame(st, st.ElapsedMs/1000))
	return storage.Frame{
		ElapsedMs:         st.ElapsedMs,
		Progress:          st.Progress,
		Phase:             string(st.Phase),
		SinceExcitationMs: st.SinceExcitationMs,
		LinesFilled:       kspace.LinesFilled(st.Progress),
		Mxy:               mxy,
		Mz:                mz,
	}
}

// Run performs a complete scan from st, stepping the virtual clock by
// cfg.FrameStep until the acquisition finishes.
func (s *Simulator) Run(ctx context.Context, st scanner.State, cfg Config) (*Result, error) {
	if !st.MagnetOn {
		return nil, ErrMagnetOff
	}
	if cfg.FrameStep <= 0 {
		return nil, ErrFrameStep
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	steps := int(cfg.Timing.Duration/cfg.FrameStep) + 1
	result := &Result{
		Frames:  make([]storage.Frame, 0, steps),
		Metrics: make(map[string]float64),
	}

	st.Scanning = true
	st.Progress = 0
	st.ElapsedMs = 0
	st.SinceExcitationMs = 0

	for elapsed := time.Duration(0); ; elapsed += cfg.FrameStep {
		select {
		case <-ctx.Done():
			result.Final = st
			return result, ctx.Err()
		default:
		}

		next, finished := scanner.Advance(st, elapsed, cfg.Timing)
		st = next

		f := Capture(s.field, st)
		result.Frames = append(result.Frames, f)
		for _, m := range s.metrics {
			m.Observe(f)
		}
		for _, obs := range s.observers {
			obs.OnFrame(f, st)
		}

		if finished {
			break
		}
	}

	result.Final = st
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, nil
}
