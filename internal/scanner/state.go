// Package scanner owns the scan session: the simulation state, the current
// region/sequence selection and the acquisition loop that advances them.
package scanner

import (
	"fmt"
	"math"
	"time"

	"github.com/san-kum/neurospin/internal/tissue"
)

type Phase string

const (
	PhaseRandom     Phase = "random"
	PhaseAlignment  Phase = "alignment"
	PhaseExcitation Phase = "excitation"
	PhaseRelaxation Phase = "relaxation"
)

func (p Phase) String() string { return string(p) }

// Label is the status line caption for a phase.
func (p Phase) Label() string {
	switch p {
	case PhaseRandom:
		return "Thermal disorder (magnet off)"
	case PhaseAlignment:
		return "Aligned with B0, precessing"
	case PhaseExcitation:
		return "RF pulse: spins tipped 90°"
	case PhaseRelaxation:
		return "Relaxation: T1 recovery, T2 dephasing"
	}
	return string(p)
}

// FieldStrengths are the selectable B0 values in tesla.
var FieldStrengths = []float64{1.5, 3.0}

const DefaultFieldStrength = 3.0

// ValidFieldStrength reports whether v is one of FieldStrengths.
func ValidFieldStrength(v float64) bool {
	for _, f := range FieldStrengths {
		if f == v {
			return true
		}
	}
	return false
}

// NextFieldStrength cycles through FieldStrengths.
func NextFieldStrength(v float64) float64 {
	for i, f := range FieldStrengths {
		if f == v {
			return FieldStrengths[(i+1)%len(FieldStrengths)]
		}
	}
	return FieldStrengths[0]
}

// State is the simulation record read by every visual subsystem. Values are
// copied out of the controller; holding one never blocks a scan.
type State struct {
	Scanning          bool    `json:"scanning"`
	MagnetOn          bool    `json:"magnet_on"`
	FieldStrength     float64 `json:"field_strength"`
	Phase             Phase   `json:"phase"`
	Progress          float64 `json:"progress"`
	ElapsedMs         float64 `json:"elapsed_ms"`
	SinceExcitationMs float64 `json:"since_excitation_ms"`
	// Scan numbers acquisitions. It grows with every started scan and is
	// kept after the scan ends.
	Scan uint64 `json:"scan"`
}

func DefaultState() State {
	return State{
		MagnetOn:      true,
		FieldStrength: DefaultFieldStrength,
		Phase:         PhaseAlignment,
	}
}

// LarmorMHz is the hydrogen precession frequency at the current field.
func (s State) LarmorMHz() float64 {
	return tissue.LarmorMHz(s.FieldStrength)
}

// Validate checks the state invariants.
func (s State) Validate() error {
	if !s.MagnetOn && (s.Phase != PhaseRandom || s.Scanning) {
		return fmt.Errorf("magnet off requires random phase and no scan (phase=%s scanning=%v)", s.Phase, s.Scanning)
	}
	if s.Progress < 0 || s.Progress > 100 {
		return fmt.Errorf("progress out of range: %v", s.Progress)
	}
	if s.ElapsedMs < 0 {
		return fmt.Errorf("negative elapsed time: %v", s.ElapsedMs)
	}
	if !ValidFieldStrength(s.FieldStrength) {
		return fmt.Errorf("unsupported field strength: %v", s.FieldStrength)
	}
	return nil
}

type Selection struct {
	Region   tissue.Region   `json:"region" yaml:"region"`
	Sequence tissue.Sequence `json:"sequence" yaml:"sequence"`
}

func DefaultSelection() Selection {
	return Selection{Region: tissue.Brain, Sequence: tissue.T1Weighted}
}

// Timing holds the acquisition constants.
type Timing struct {
	Duration         time.Duration
	Repetition       time.Duration
	ExcitationWindow time.Duration
	Frame            time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		Duration:         5000 * time.Millisecond,
		Repetition:       500 * time.Millisecond,
		ExcitationWindow: 50 * time.Millisecond,
		Frame:            time.Second / 60,
	}
}

func (t Timing) withDefaults() Timing {
	d := DefaultTiming()
	if t.Duration <= 0 {
		t.Duration = d.Duration
	}
	if t.Repetition <= 0 {
		t.Repetition = d.Repetition
	}
	if t.ExcitationWindow <= 0 || t.ExcitationWindow >= t.Repetition {
		t.ExcitationWindow = d.ExcitationWindow
		if t.ExcitationWindow >= t.Repetition {
			t.ExcitationWindow = t.Repetition / 10
		}
	}
	if t.Frame <= 0 {
		t.Frame = d.Frame
	}
	return t
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Advance returns st moved to elapsed time into the scan and whether the
// scan has finished. Progress never moves backwards. Finishing leaves the
// spins aligned with Progress at 100.
func Advance(st State, elapsed time.Duration, t Timing) (State, bool) {
	t = t.withDefaults()
	if elapsed < 0 {
		elapsed = 0
	}
	e := ms(elapsed)
	st.ElapsedMs = e

	if elapsed >= t.Duration {
		st.Scanning = false
		st.Phase = PhaseAlignment
		st.Progress = 100
		st.SinceExcitationMs = 0
		return st, true
	}

	p := math.Min(100, e/ms(t.Duration)*100)
	if p > st.Progress {
		st.Progress = p
	}

	rep := math.Mod(e, ms(t.Repetition))
	window := ms(t.ExcitationWindow)
	if rep < window {
		st.Phase = PhaseExcitation
		st.SinceExcitationMs = 0
	} else {
		st.Phase = PhaseRelaxation
		st.SinceExcitationMs = rep - window
	}
	return st, false
}
