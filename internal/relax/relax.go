// Package relax computes the longitudinal recovery and transverse decay
// curves of a set of tissues over a fixed time window.
package relax

import (
	"math"

	"github.com/san-kum/neurospin/internal/tissue"
	"gonum.org/v1/gonum/floats"
)

const (
	DefaultWindowMs = 3000.0
	DefaultStepMs   = 50.0
)

// Domain is the sampled time axis in ms.
type Domain struct {
	WindowMs float64
	StepMs   float64
}

func DefaultDomain() Domain {
	return Domain{WindowMs: DefaultWindowMs, StepMs: DefaultStepMs}
}

// Samples returns the number of points on the axis, both ends included.
func (d Domain) Samples() int {
	if d.WindowMs <= 0 || d.StepMs <= 0 {
		return 1
	}
	return int(math.Floor(d.WindowMs/d.StepMs+1e-9)) + 1
}

// Times returns the sample instants.
func (d Domain) Times() []float64 {
	n := d.Samples()
	if n == 1 {
		return []float64{0}
	}
	return floats.Span(make([]float64, n), 0, float64(n-1)*d.StepMs)
}

// Curve holds both magnetization curves for one tissue.
type Curve struct {
	Tissue tissue.Tissue
	Times  []float64
	Mz     []float64
	Mxy    []float64
}

// Longitudinal returns Mz(t) = 1 - exp(-t/T1). Non-positive T1 gives 0.
func Longitudinal(tMs, t1 float64) float64 {
	if t1 <= 0 || tMs < 0 {
		return 0
	}
	return 1 - math.Exp(-tMs/t1)
}

// Transverse returns Mxy(t) = exp(-t/T2). Non-positive T2 gives 0.
func Transverse(tMs, t2 float64) float64 {
	if t2 <= 0 {
		return 0
	}
	if tMs < 0 {
		return 1
	}
	return math.Exp(-tMs / t2)
}

// Sample builds one curve per tissue over the domain.
func Sample(tissues []tissue.Tissue, d Domain) []Curve {
	times := d.Times()
	curves := make([]Curve, 0, len(tissues))
	for _, ti := range tissues {
		c := Curve{
			Tissue: ti,
			Times:  times,
			Mz:     make([]float64, len(times)),
			Mxy:    make([]float64, len(times)),
		}
		for i, t := range times {
			c.Mz[i] = Longitudinal(t, ti.T1)
			c.Mxy[i] = Transverse(t, ti.T2)
		}
		curves = append(curves, c)
	}
	return curves
}

// ForRegion samples the default domain for every tissue of a region.
func ForRegion(r tissue.Region) []Curve {
	return Sample(tissue.ForRegion(r), DefaultDomain())
}

// Cursor maps scan time onto the curve window for the live overlay.
func (d Domain) Cursor(elapsedMs float64) float64 {
	if d.WindowMs <= 0 || elapsedMs <= 0 {
		return 0
	}
	return math.Mod(elapsedMs, d.WindowMs)
}

// Cursor uses the default window.
func Cursor(elapsedMs float64) float64 {
	return DefaultDomain().Cursor(elapsedMs)
}

// CursorIndex returns the sample index nearest to the cursor.
func (d Domain) CursorIndex(elapsedMs float64) int {
	if d.StepMs <= 0 {
		return 0
	}
	idx := int(math.Round(d.Cursor(elapsedMs) / d.StepMs))
	if n := d.Samples(); idx >= n {
		idx = n - 1
	}
	return idx
}
