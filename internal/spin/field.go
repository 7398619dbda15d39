package spin

import (
	"math"
	"math/rand"

	"github.com/san-kum/neurospin/internal/scanner"
)

const (
	DefaultGridSize     = 5
	DefaultSpacing      = 45.0
	DefaultVectorLength = 25.0
	// visual recovery constant in seconds, not tissue accurate
	DefaultRecoverySec = 1.5

	// tip angle above which a spin is drawn as excited
	tippedThreshold = 1.0
)

type Config struct {
	GridSize     int
	Spacing      float64
	VectorLength float64
	RecoverySec  float64
	Seed         int64
}

func DefaultConfig() Config {
	return Config{
		GridSize:     DefaultGridSize,
		Spacing:      DefaultSpacing,
		VectorLength: DefaultVectorLength,
		RecoverySec:  DefaultRecoverySec,
		Seed:         1,
	}
}

// Proton is a fixed lattice site with a stable base phase.
type Proton struct {
	Index     int
	Row, Col  int
	Pos       Vec3
	BasePhase float64
}

// Orientation is a spin direction: Theta from the field axis, Phi the
// azimuthal precession angle.
type Orientation struct {
	Theta, Phi float64
}

// Vector is one rendered spin for a frame.
type Vector struct {
	Proton
	Orientation
	Tip        Vec3
	ScreenBase Point
	ScreenTip  Point
	Depth      float64
	Tipped     bool
}

// Field computes the spin vectors of the proton grid. Frame is a pure
// function of the simulation state and wall time; the only state the
// field keeps is the base phase of each proton.
type Field struct {
	cfg     Config
	protons []Proton
	proj    Projection
}

func NewField(cfg Config) *Field {
	if cfg.GridSize <= 0 {
		cfg.GridSize = DefaultGridSize
	}
	if cfg.Spacing <= 0 {
		cfg.Spacing = DefaultSpacing
	}
	if cfg.VectorLength <= 0 {
		cfg.VectorLength = DefaultVectorLength
	}
	if cfg.RecoverySec <= 0 {
		cfg.RecoverySec = DefaultRecoverySec
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	n := cfg.GridSize
	half := float64(n-1) / 2
	protons := make([]Proton, 0, n*n)
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			protons = append(protons, Proton{
				Index: len(protons),
				Row:   row,
				Col:   col,
				Pos: Vec3{
					X: (float64(col) - half) * cfg.Spacing,
					Y: (float64(row) - half) * cfg.Spacing,
				},
				BasePhase: rng.Float64() * 2 * math.Pi,
			})
		}
	}

	return &Field{cfg: cfg, protons: protons, proj: NewProjection(DefaultProjectionAngle)}
}

func (f *Field) Protons() []Proton {
	out := make([]Proton, len(f.protons))
	copy(out, f.protons)
	return out
}

func (f *Field) Projection() Projection { return f.proj }

func (f *Field) Config() Config { return f.cfg }

// VisualFrequency is the on-screen precession rate in turns per second. The
// real Larmor frequency is tens of MHz; this keeps the proportionality.
func VisualFrequency(b0 float64) float64 {
	if math.IsNaN(b0) || math.IsInf(b0, 0) || b0 < 0 {
		return 0
	}
	return b0 * 2
}

// Orient returns the orientation of proton p for the given state and wall
// time in seconds.
func (f *Field) Orient(p Proton, st scanner.State, t float64) Orientation {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		t = 0
	}
	freq := VisualFrequency(st.FieldStrength)
	precession := -(t * freq * 2 * math.Pi)

	phase := st.Phase
	if !st.MagnetOn {
		phase = scanner.PhaseRandom
	}

	switch phase {
	case scanner.PhaseAlignment:
		wobble := math.Sin(t*freq+p.BasePhase) * 0.1
		return Orientation{Theta: wobble + 0.1, Phi: precession + p.BasePhase}

	case scanner.PhaseExcitation:
		// RF pulse: full tip and forced phase coherence
		return Orientation{Theta: math.Pi / 2, Phi: precession}

	case scanner.PhaseRelaxation:
		s := st.SinceExcitationMs / 1000
		if math.IsNaN(s) || math.IsInf(s, 0) || s < 0 {
			s = 0
		}
		theta := math.Pi / 2 * math.Exp(-s/f.cfg.RecoverySec)
		return Orientation{Theta: theta, Phi: precession + Dephasing(p.Index, s)}

	default:
		// thermal disorder, no net vector
		return Orientation{
			Theta: math.Sin(t*0.5+p.BasePhase) * math.Pi,
			Phi:   math.Cos(t*0.2+float64(p.Index)) * math.Pi * 2,
		}
	}
}

// Dephasing is the phase offset a proton has accumulated s seconds after
// excitation. Sign and rate depend on the proton index.
func Dephasing(index int, s float64) float64 {
	sign := -1.0
	if index%3 == 0 {
		sign = 1
	}
	rate := sign * float64(index) * 0.1
	return rate * s * 5
}

// Direction converts an orientation to a unit vector.
func Direction(o Orientation) Vec3 {
	sinT, cosT := defaultTrig.sinCos(o.Theta)
	sinP, cosP := defaultTrig.sinCos(o.Phi)
	return Vec3{X: sinT * cosP, Y: sinT * sinP, Z: cosT}
}

// Frame computes every spin vector, projected and depth sorted.
func (f *Field) Frame(st scanner.State, t float64) []Vector {
	out := make([]Vector, len(f.protons))
	for i, p := range f.protons {
		o := f.Orient(p, st, t)
		tip := p.Pos.Add(Direction(o).Scale(f.cfg.VectorLength))
		out[i] = Vector{
			Proton:      p,
			Orientation: o,
			Tip:         tip,
			ScreenBase:  f.proj.Project(p.Pos),
			ScreenTip:   f.proj.Project(tip),
			Depth:       f.proj.Depth(p.Pos),
			Tipped:      o.Theta > tippedThreshold,
		}
	}
	DepthSort(out)
	return out
}

// NetMagnetization returns the transverse magnitude, in [0, 1], and the
// longitudinal component, in [-1, 1], of the mean spin direction.
func NetMagnetization(vs []Vector) (mxy, mz float64) {
	if len(vs) == 0 {
		return 0, 0
	}
	var sum Vec3
	for _, v := range vs {
		sum = sum.Add(Direction(v.Orientation))
	}
	sum = sum.Scale(1 / float64(len(vs)))
	return math.Hypot(sum.X, sum.Y), sum.Z
}
