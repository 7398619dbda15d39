package tissue

import (
	"fmt"
	"strings"
)

type Region string

const (
	Brain   Region = "brain"
	Spine   Region = "spine"
	Knee    Region = "knee"
	Abdomen Region = "abdomen"
)

var Regions = []Region{Brain, Spine, Knee, Abdomen}

var regionTissues = map[Region][]ID{
	Brain:   {CSF, WM, GM, FAT, BONE},
	Spine:   {CSF, FAT, MUSCLE, BONE, WM},
	Knee:    {FAT, MUSCLE, BONE, CSF},
	Abdomen: {FAT, MUSCLE, BONE, GM},
}

var regionNames = map[Region]string{
	Brain:   "Brain",
	Spine:   "Spine",
	Knee:    "Knee",
	Abdomen: "Abdomen",
}

func (r Region) String() string {
	if n, ok := regionNames[r]; ok {
		return n
	}
	return string(r)
}

// Valid reports whether r is a known region.
func (r Region) Valid() bool {
	_, ok := regionTissues[r]
	return ok
}

// ParseRegion matches a region name case-insensitively.
func ParseRegion(s string) (Region, error) {
	r := Region(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown region: %s", s)
	}
	return r, nil
}

// TissueIDs returns the identifiers listed for a region, including any
// that are not defined in the table.
func (r Region) TissueIDs() []ID {
	ids := regionTissues[r]
	out := make([]ID, len(ids))
	copy(out, ids)
	return out
}

// ForRegion returns the defined tissues of a region in display order.
// Unknown regions and undefined identifiers are filtered out.
func ForRegion(r Region) []Tissue {
	ids := regionTissues[r]
	out := make([]Tissue, 0, len(ids))
	for _, id := range ids {
		if t, ok := table[id]; ok {
			out = append(out, t)
		}
	}
	return out
}

// NextRegion cycles through Regions.
func NextRegion(r Region) Region {
	for i, x := range Regions {
		if x == r {
			return Regions[(i+1)%len(Regions)]
		}
	}
	return Regions[0]
}
