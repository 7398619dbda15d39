package scanner

import (
	"math"
	"testing"
	"time"
)

func TestAdvance(t *testing.T) {
	timing := DefaultTiming()
	start := DefaultState()
	start.Scanning = true

	tests := []struct {
		name     string
		elapsed  time.Duration
		phase    Phase
		progress float64
		since    float64
		finished bool
	}{
		{"start", 0, PhaseExcitation, 0, 0, false},
		{"inside window", 49 * time.Millisecond, PhaseExcitation, 0.98, 0, false},
		{"window edge", 50 * time.Millisecond, PhaseRelaxation, 1, 0, false},
		{"half", 2500 * time.Millisecond, PhaseRelaxation, 50, 0, false},
		{"late in repetition", 2990 * time.Millisecond, PhaseRelaxation, 59.8, 440, false},
		{"done", 5 * time.Second, PhaseAlignment, 100, 0, true},
		{"overrun", 9 * time.Second, PhaseAlignment, 100, 0, true},
		{"negative", -time.Second, PhaseExcitation, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, finished := Advance(start, tt.elapsed, timing)
			if finished != tt.finished || st.Phase != tt.phase {
				t.Errorf("got phase %s finished %v", st.Phase, finished)
			}
			if math.Abs(st.Progress-tt.progress) > 1e-9 || math.Abs(st.SinceExcitationMs-tt.since) > 1e-9 {
				t.Errorf("got progress %v since %v", st.Progress, st.SinceExcitationMs)
			}
			if finished && st.Scanning {
				t.Error("finished scan still scanning")
			}
		})
	}
}

func TestTimingDefaults(t *testing.T) {
	got := Timing{Repetition: 20 * time.Millisecond}.withDefaults()
	if got.Duration != 5*time.Second || got.ExcitationWindow != 2*time.Millisecond {
		t.Errorf("withDefaults = %+v", got)
	}
}

func TestValidate(t *testing.T) {
	if err := DefaultState().Validate(); err != nil {
		t.Fatal(err)
	}
	bad := []State{
		{MagnetOn: false, Phase: PhaseAlignment, FieldStrength: 3},
		{MagnetOn: false, Phase: PhaseRandom, Scanning: true, FieldStrength: 3},
		{MagnetOn: true, Phase: PhaseAlignment, Progress: 101, FieldStrength: 3},
		{MagnetOn: true, Phase: PhaseAlignment, FieldStrength: 2},
	}
	for i, st := range bad {
		if st.Validate() == nil {
			t.Errorf("case %d should be invalid", i)
		}
	}
}

func TestPhaseLabel(t *testing.T) {
	for _, p := range []Phase{PhaseRandom, PhaseAlignment, PhaseExcitation, PhaseRelaxation} {
		if p.Label() == string(p) {
			t.Errorf("phase %s has no label", p)
		}
	}
}
