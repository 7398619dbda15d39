// Package automation runs scripted scan sessions: a YAML list of protocols
// scanned one after another, the way a teaching session walks through
// contrasts.
package automation

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/neurospin/internal/config"
	"github.com/san-kum/neurospin/internal/scanner"
	"github.com/san-kum/neurospin/internal/sim"
	"github.com/san-kum/neurospin/internal/spin"
	"github.com/san-kum/neurospin/internal/storage"
	"github.com/san-kum/neurospin/internal/tissue"
)

// Scenario defines a scripted scan session
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step is one scan. A preset fills the protocol; explicit fields override
// it.
type Step struct {
	Preset        string  `yaml:"preset"`
	Region        string  `yaml:"region"`
	Sequence      string  `yaml:"sequence"`
	FieldStrength float64 `yaml:"field_strength"`
	FrameMs       float64 `yaml:"frame_ms"`
	Note          string  `yaml:"note"`
}

// StepResult is the outcome of one step. RunID is empty when runs are not
// stored.
type StepResult struct {
	Index         int
	Selection     scanner.Selection
	FieldStrength float64
	Result        *sim.Result
	RunID         string
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("%s: scenario has no steps", path)
	}
	return &scenario, nil
}

// Protocol resolves the step against base, which supplies anything the
// step leaves unset.
func (s Step) Protocol(base scanner.Selection, b0 float64) (scanner.Selection, float64, error) {
	sel := base
	if s.Preset != "" {
		p := config.GetPreset(s.Preset)
		if p == nil {
			return sel, 0, fmt.Errorf("unknown preset: %s", s.Preset)
		}
		sel = scanner.Selection{Region: p.Region, Sequence: p.Sequence}
		b0 = p.FieldStrength
	}
	if s.Region != "" {
		r, err := tissue.ParseRegion(s.Region)
		if err != nil {
			return sel, 0, err
		}
		sel.Region = r
	}
	if s.Sequence != "" {
		q, err := tissue.ParseSequence(s.Sequence)
		if err != nil {
			return sel, 0, err
		}
		sel.Sequence = q
	}
	if s.FieldStrength != 0 {
		b0 = s.FieldStrength
	}
	if !scanner.ValidFieldStrength(b0) {
		return sel, 0, fmt.Errorf("unsupported field strength: %v", b0)
	}
	return sel, b0, nil
}

// Runner executes scenarios headlessly.
type Runner struct {
	Field   spin.Config
	Timing  scanner.Timing
	Base    scanner.Selection
	B0      float64
	Metrics func() []sim.Metric
	// Store is optional; when set every step is saved as a run.
	Store *storage.Store
	Log   zerolog.Logger
	// OnStep runs after each completed step.
	OnStep func(StepResult)
}

// RunScenario executes all steps in order and stops at the first failure,
// returning the results gathered so far.
func (r *Runner) RunScenario(ctx context.Context, sc *Scenario) ([]StepResult, error) {
	results := make([]StepResult, 0, len(sc.Steps))
	field := spin.NewField(r.Field)

	for i, step := range sc.Steps {
		sel, b0, err := step.Protocol(r.Base, r.B0)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		s := sim.New(field)
		if r.Metrics != nil {
			for _, m := range r.Metrics() {
				s.AddMetric(m)
			}
		}
		cfg := sim.Config{Timing: r.Timing, FrameStep: r.Timing.Frame}
		if step.FrameMs > 0 {
			cfg.FrameStep = time.Duration(step.FrameMs * float64(time.Millisecond))
		}
		if cfg.FrameStep <= 0 {
			cfg.FrameStep = scanner.DefaultTiming().Frame
		}

		st := scanner.DefaultState()
		st.FieldStrength = b0
		res, err := s.Run(ctx, st, cfg)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		out := StepResult{Index: i, Selection: sel, FieldStrength: b0, Result: res}
		if r.Store != nil {
			id, err := r.Store.SaveRun(storage.RunMetadata{
				Region:        string(sel.Region),
				Sequence:      string(sel.Sequence),
				FieldStrength: b0,
				DurationMs:    res.Final.ElapsedMs,
				Completed:     true,
				Metrics:       res.Metrics,
			}, res.Frames)
			if err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
			out.RunID = id
		}

		r.Log.Info().
			Int("step", i+1).
			Str("region", string(sel.Region)).
			Str("sequence", string(sel.Sequence)).
			Float64("b0", b0).
			Str("run", out.RunID).
			Msg("session step complete")

		results = append(results, out)
		if r.OnStep != nil {
			r.OnStep(out)
		}
	}
	return results, nil
}
