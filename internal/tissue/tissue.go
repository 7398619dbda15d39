// Package tissue holds the static relaxation table used by every visual
// subsystem: tissue constants, anatomical regions, pulse sequences and the
// contrast model that turns a tissue into a grey level for a sequence.
//
// All lookups are total. An unknown identifier yields a zero value rather
// than an error so the render path never has to handle a failure.
package tissue

import "sort"

// GyromagneticRatio of hydrogen in MHz/T.
const GyromagneticRatio = 42.58

type ID string

const (
	CSF    ID = "CSF"
	WM     ID = "WM"
	GM     ID = "GM"
	FAT    ID = "FAT"
	MUSCLE ID = "MUSCLE"
	BONE   ID = "BONE"
)

// Tissue carries relaxation constants at 1.5T. T1 and T2 are in ms.
type Tissue struct {
	ID    ID
	Name  string
	T1    float64
	T2    float64
	PD    float64
	Color string
}

var table = map[ID]Tissue{
	CSF:    {ID: CSF, Name: "Cerebrospinal fluid", T1: 2400, T2: 160, PD: 1.0, Color: "#60a5fa"},
	WM:     {ID: WM, Name: "White matter", T1: 600, T2: 80, PD: 0.7, Color: "#f1f5f9"},
	GM:     {ID: GM, Name: "Gray matter", T1: 950, T2: 100, PD: 0.8, Color: "#94a3b8"},
	FAT:    {ID: FAT, Name: "Fat", T1: 250, T2: 60, PD: 0.9, Color: "#fbbf24"},
	MUSCLE: {ID: MUSCLE, Name: "Muscle", T1: 900, T2: 50, PD: 0.75, Color: "#ef4444"},
	// signal void, approximated as near zero
	BONE: {ID: BONE, Name: "Cortical bone", T1: 1, T2: 1, PD: 0.05, Color: "#1e293b"},
}

// Lookup returns the tissue for id and whether it exists.
func Lookup(id ID) (Tissue, bool) {
	t, ok := table[id]
	return t, ok
}

// All returns every tissue sorted by identifier.
func All() []Tissue {
	out := make([]Tissue, 0, len(table))
	for _, t := range table {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LarmorMHz returns the hydrogen precession frequency at field strength b0.
func LarmorMHz(b0 float64) float64 {
	return GyromagneticRatio * b0
}
