package metrics

import (
	"math"

	"github.com/san-kum/neurospin/internal/storage"
)

// PeakSignal tracks the largest net transverse magnetization seen.
type PeakSignal struct {
	name string
	peak float64
}

func NewPeakSignal() *PeakSignal {
	return &PeakSignal{name: "peak_mxy"}
}

func (p *PeakSignal) Name() string { return p.name }

func (p *PeakSignal) Observe(f storage.Frame) {
	p.peak = math.Max(p.peak, f.Mxy)
}

func (p *PeakSignal) Value() float64 { return p.peak }

func (p *PeakSignal) Reset() { p.peak = 0 }

// MeanSignal averages net transverse magnetization, a proxy for the signal
// available to the receiver coil.
type MeanSignal struct {
	name    string
	sum     float64
	samples int
}

func NewMeanSignal() *MeanSignal {
	return &MeanSignal{name: "mean_mxy"}
}

func (m *MeanSignal) Name() string { return m.name }

func (m *MeanSignal) Observe(f storage.Frame) {
	m.sum += f.Mxy
	m.samples++
}

func (m *MeanSignal) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanSignal) Reset() {
	m.sum = 0
	m.samples = 0
}

// Recovery reports the longitudinal magnetization of the last frame.
type Recovery struct {
	name string
	last float64
	seen bool
}

func NewRecovery() *Recovery {
	return &Recovery{name: "final_mz"}
}

func (r *Recovery) Name() string { return r.name }

func (r *Recovery) Observe(f storage.Frame) {
	r.last = f.Mz
	r.seen = true
}

func (r *Recovery) Value() float64 {
	if !r.seen {
		return 0
	}
	return r.last
}

func (r *Recovery) Reset() {
	r.last = 0
	r.seen = false
}
