package phantom

import (
	"math"
	"strings"
	"testing"

	"github.com/san-kum/neurospin/internal/kspace"
	"github.com/san-kum/neurospin/internal/tissue"
)

func TestLabelsUseRegionTissues(t *testing.T) {
	for _, r := range tissue.Regions {
		allowed := map[tissue.ID]bool{"": true}
		for _, id := range r.TissueIDs() {
			allowed[id] = true
		}
		seen := map[tissue.ID]bool{}
		for _, row := range Labels(r, 40, 20) {
			for _, id := range row {
				if !allowed[id] {
					t.Errorf("%s: label %s not in region", r, id)
				}
				seen[id] = true
			}
		}
		if len(seen) < 3 {
			t.Errorf("%s: only %d labels drawn", r, len(seen))
		}
	}
	if Labels(tissue.Region("elbow"), 4, 4)[0][0] != "" {
		t.Error("unknown region should be empty")
	}
	if Labels(tissue.Brain, 0, 5) != nil {
		t.Error("zero width")
	}
}

func TestBrainContrast(t *testing.T) {
	labels := Labels(tissue.Brain, 41, 41)
	// ventricle sits left of centre
	vx, vy := 17, 19
	if labels[vy][vx] != tissue.CSF {
		t.Fatalf("expected ventricle at (%d,%d), got %s", vx, vy, labels[vy][vx])
	}
	t1 := Image(labels, tissue.T1Weighted)
	t2 := Image(labels, tissue.T2Weighted)
	if t1[vy][vx] >= t1[20][30] {
		t.Error("CSF should be darker than white matter on T1")
	}
	if t2[vy][vx] <= t2[20][30] {
		t.Error("CSF should be brighter than white matter on T2")
	}
}

func TestBoxBlur(t *testing.T) {
	img := [][]float64{
		{0, 0, 0},
		{0, 90, 0},
		{0, 0, 0},
	}
	if got := BoxBlur(img, 0); got[1][1] != 90 {
		t.Error("radius 0 should be identity")
	}
	out := BoxBlur(img, 1)
	if math.Abs(out[1][1]-10) > 1e-9 {
		t.Errorf("centre = %v, want 10", out[1][1])
	}
	if math.Abs(out[0][0]-22.5) > 1e-9 {
		t.Errorf("corner = %v, want 22.5", out[0][0])
	}

	var sum float64
	for _, row := range img {
		for _, v := range row {
			sum += v
		}
	}
	if sum != 90 {
		t.Error("input mutated")
	}
}

func TestSliceFollowsReconstruction(t *testing.T) {
	sharp := Slice(tissue.Brain, tissue.T2Weighted, kspace.Reconstruct(0, false), 40, 20)
	early := Slice(tissue.Brain, tissue.T2Weighted, kspace.Reconstruct(10, true), 40, 20)

	peak := func(img [][]float64) float64 {
		m := 0.0
		for _, row := range img {
			for _, v := range row {
				m = math.Max(m, v)
			}
		}
		return m
	}
	if peak(early) >= peak(sharp) {
		t.Errorf("early scan should be dimmer: %v >= %v", peak(early), peak(sharp))
	}
	if peak(sharp) != 255 {
		t.Errorf("idle T2 brain peak = %v", peak(sharp))
	}
}

func TestBlurCells(t *testing.T) {
	if BlurCells(0) != 0 || BlurCells(math.NaN()) != 0 || BlurCells(15) != 5 {
		t.Error("blur cell conversion")
	}
}

func TestString(t *testing.T) {
	s := String([][]float64{{0, 255}, {128, math.NaN()}})
	if s != " @\n+ " {
		t.Errorf("String = %q", s)
	}
	lines := strings.Split(String(Slice(tissue.Knee, tissue.PDWeighted, kspace.Reconstruct(100, false), 30, 12)), "\n")
	if len(lines) != 12 || len(lines[0]) != 30 {
		t.Errorf("shape %dx%d", len(lines[0]), len(lines))
	}
}
