package tissue

import (
	"fmt"
	"math"
	"strings"
)

type Sequence string

const (
	T1Weighted Sequence = "t1"
	T2Weighted Sequence = "t2"
	FLAIR      Sequence = "flair"
	PDWeighted Sequence = "pd"
)

var Sequences = []Sequence{T1Weighted, T2Weighted, FLAIR, PDWeighted}

type sequenceInfo struct {
	name  string
	short string
	trMs  float64
	teMs  float64
}

var sequenceTable = map[Sequence]sequenceInfo{
	T1Weighted: {name: "T1-weighted (anatomy)", short: "T1", trMs: 500, teMs: 15},
	T2Weighted: {name: "T2-weighted (pathology)", short: "T2", trMs: 2000, teMs: 100},
	FLAIR:      {name: "FLAIR", short: "FLAIR", trMs: 2000, teMs: 100},
	PDWeighted: {name: "Proton density", short: "PD", trMs: 2000, teMs: 100},
}

func (s Sequence) String() string {
	if info, ok := sequenceTable[s]; ok {
		return info.name
	}
	return string(s)
}

// Short returns the abbreviated label, e.g. "T1".
func (s Sequence) Short() string {
	if info, ok := sequenceTable[s]; ok {
		return info.short
	}
	return strings.ToUpper(string(s))
}

func (s Sequence) Valid() bool {
	_, ok := sequenceTable[s]
	return ok
}

// Timing returns the nominal repetition and echo times in ms.
func (s Sequence) Timing() (tr, te float64) {
	info := sequenceTable[s]
	return info.trMs, info.teMs
}

func ParseSequence(s string) (Sequence, error) {
	q := Sequence(strings.ToLower(strings.TrimSpace(s)))
	if !q.Valid() {
		return "", fmt.Errorf("unknown sequence: %s", s)
	}
	return q, nil
}

func NextSequence(s Sequence) Sequence {
	for i, x := range Sequences {
		if x == s {
			return Sequences[(i+1)%len(Sequences)]
		}
	}
	return Sequences[0]
}

// Brightness maps a tissue to a grey level in [0, 255] for a sequence.
// Unknown tissues and sequences give 0 so they render as inert black.
func Brightness(id ID, seq Sequence) float64 {
	t, ok := table[id]
	if !ok {
		return 0
	}

	var val float64
	switch seq {
	case T1Weighted:
		// short T1 is bright: fat bright, fluid dark
		switch id {
		case FAT:
			val = 240
		case CSF:
			val = 15
		case WM:
			val = 180
		case GM:
			val = 110
		case BONE:
			val = 0
		default:
			val = math.Max(0, 255-t.T1*0.2)
		}
	case T2Weighted:
		switch id {
		case CSF:
			val = 255
		case FAT:
			val = 100
		case WM:
			val = 80
		case GM:
			val = 120
		case BONE:
			val = 0
		default:
			val = t.T2 * 2.5
		}
	case FLAIR:
		// T2 with the fluid signal nulled
		switch id {
		case CSF, BONE:
			val = 0
		case WM:
			val = 70
		case GM:
			val = 100
		case FAT:
			val = 90
		default:
			val = t.T2 * 2.5
		}
	case PDWeighted:
		val = t.PD * 240
		if id == BONE {
			val = 0
		}
	default:
		return 0
	}
	return math.Min(255, math.Max(0, val))
}

// ImagePath returns the pre-rendered slice asset for a region and sequence.
func ImagePath(r Region, s Sequence) string {
	if !r.Valid() {
		r = Brain
	}
	if !s.Valid() {
		s = T1Weighted
	}
	return fmt.Sprintf("assets/%s_%s.png", r, s)
}
