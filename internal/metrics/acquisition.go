package metrics

import (
	"github.com/san-kum/neurospin/internal/kspace"
	"github.com/san-kum/neurospin/internal/storage"
)

// Excitations counts RF pulses, one per entry into the excitation phase.
type Excitations struct {
	name  string
	count int
	prev  string
}

func NewExcitations() *Excitations {
	return &Excitations{name: "excitations"}
}

func (e *Excitations) Name() string { return e.name }

func (e *Excitations) Observe(f storage.Frame) {
	if f.Phase == "excitation" && e.prev != "excitation" {
		e.count++
	}
	e.prev = f.Phase
}

func (e *Excitations) Value() float64 { return float64(e.count) }

func (e *Excitations) Reset() {
	e.count = 0
	e.prev = ""
}

// Coverage is the fraction of k-space lines acquired.
type Coverage struct {
	name  string
	lines int
}

func NewCoverage() *Coverage {
	return &Coverage{name: "kspace_coverage"}
}

func (c *Coverage) Name() string { return c.name }

func (c *Coverage) Observe(f storage.Frame) {
	if f.LinesFilled > c.lines {
		c.lines = f.LinesFilled
	}
}

func (c *Coverage) Value() float64 {
	return float64(c.lines) / kspace.TotalLines
}

func (c *Coverage) Reset() { c.lines = 0 }
