package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/neurospin/internal/storage"
)

var frames = []storage.Frame{
	{Phase: "excitation", Mxy: 0.9, Mz: 0, LinesFilled: 0},
	{Phase: "excitation", Mxy: 1.0, Mz: 0, LinesFilled: 1},
	{Phase: "relaxation", Mxy: 0.5, Mz: 0.4, LinesFilled: 2},
	{Phase: "excitation", Mxy: 0.95, Mz: 0, LinesFilled: 6},
	{Phase: "alignment", Mxy: 0.1, Mz: 0.98, LinesFilled: 64},
}

type metric interface {
	Name() string
	Observe(storage.Frame)
	Value() float64
	Reset()
}

func TestMetrics(t *testing.T) {
	tests := []struct {
		m    metric
		want float64
	}{
		{NewPeakSignal(), 1.0},
		{NewMeanSignal(), (0.9 + 1.0 + 0.5 + 0.95 + 0.1) / 5},
		{NewRecovery(), 0.98},
		{NewExcitations(), 2},
		{NewCoverage(), 1},
	}
	for _, tt := range tests {
		t.Run(tt.m.Name(), func(t *testing.T) {
			for _, f := range frames {
				tt.m.Observe(f)
			}
			if math.Abs(tt.m.Value()-tt.want) > 1e-12 {
				t.Errorf("value = %v, want %v", tt.m.Value(), tt.want)
			}
			tt.m.Reset()
			if tt.m.Value() != 0 {
				t.Errorf("after reset = %v", tt.m.Value())
			}
		})
	}
}
