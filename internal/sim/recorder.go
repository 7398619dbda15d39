package sim

import (
	"sync"

	"github.com/san-kum/neurospin/internal/scanner"
	"github.com/san-kum/neurospin/internal/spin"
	"github.com/san-kum/neurospin/internal/storage"
)

// Recorder collects frames from a live controller. Record is safe to call
// from the scan loop goroutine while the UI reads Frames. A state from a
// newer scan starts a new recording and one from an older scan is dropped.
// Within a scan, a frame earlier than the last one also starts over.
type Recorder struct {
	mu      sync.Mutex
	field   *spin.Field
	scan    uint64
	frames  []storage.Frame
	metrics []Metric
}

func NewRecorder(field *spin.Field, metrics ...Metric) *Recorder {
	return &Recorder{field: field, metrics: metrics}
}

func (r *Recorder) Record(st scanner.State) {
	f := Capture(r.field, st)
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case st.Scan < r.scan:
		return
	case st.Scan > r.scan:
		r.resetLocked()
		r.scan = st.Scan
	default:
		if n := len(r.frames); n > 0 && f.ElapsedMs < r.frames[n-1].ElapsedMs {
			r.resetLocked()
		}
	}
	r.frames = append(r.frames, f)
	for _, m := range r.metrics {
		m.Observe(f)
	}
}

func (r *Recorder) Frames() []storage.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]storage.Frame, len(r.frames))
	copy(out, r.frames)
	return out
}

func (r *Recorder) Metrics() map[string]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]float64, len(r.metrics))
	for _, m := range r.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetLocked()
}

func (r *Recorder) resetLocked() {
	r.frames = r.frames[:0]
	for _, m := range r.metrics {
		m.Reset()
	}
}
