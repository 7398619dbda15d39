package spin

import "math"

// trigTable provides precomputed sin/cos values for the per-frame vector
// conversion. Values between entries are linearly interpolated.
type trigTable struct {
	sin []float64
	cos []float64
	n   int
}

// 4096 entries, ~0.0015 rad resolution
var defaultTrig = newTrigTable(4096)

func newTrigTable(n int) *trigTable {
	t := &trigTable{
		sin: make([]float64, n),
		cos: make([]float64, n),
		n:   n,
	}
	for i := 0; i < n; i++ {
		angle := float64(i) * 2 * math.Pi / float64(n)
		t.sin[i] = math.Sin(angle)
		t.cos[i] = math.Cos(angle)
	}
	return t
}

// sinCos returns both values for x. Non-finite input maps to angle 0 so a
// frame never carries NaN forward.
func (t *trigTable) sinCos(x float64) (sin, cos float64) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, 1
	}
	x = math.Mod(x, 2*math.Pi)
	if x < 0 {
		x += 2 * math.Pi
	}

	idx := x * float64(t.n) / (2 * math.Pi)
	i := int(idx)
	frac := idx - float64(i)

	i0 := i % t.n
	i1 := (i + 1) % t.n

	sin = t.sin[i0]*(1-frac) + t.sin[i1]*frac
	cos = t.cos[i0]*(1-frac) + t.cos[i1]*frac
	return
}
