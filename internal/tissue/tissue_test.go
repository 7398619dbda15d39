package tissue

import (
	"math"
	"testing"
)

func TestRegionsReferenceDefinedTissues(t *testing.T) {
	for _, r := range Regions {
		for _, id := range r.TissueIDs() {
			if _, ok := Lookup(id); !ok {
				t.Errorf("region %s references undefined tissue %s", r, id)
			}
		}
		if len(ForRegion(r)) != len(r.TissueIDs()) {
			t.Errorf("region %s: ForRegion dropped tissues", r)
		}
	}
}

func TestTissueConstants(t *testing.T) {
	for _, ti := range All() {
		if ti.T1 <= 0 || ti.T2 <= 0 {
			t.Errorf("%s: relaxation constants must be positive", ti.ID)
		}
		if ti.T2 > ti.T1 {
			t.Errorf("%s: T2 %.0f exceeds T1 %.0f", ti.ID, ti.T2, ti.T1)
		}
		if ti.PD < 0 || ti.PD > 1 {
			t.Errorf("%s: proton density %.2f out of range", ti.ID, ti.PD)
		}
	}
}

func TestForRegion_Unknown(t *testing.T) {
	if got := ForRegion(Region("elbow")); len(got) != 0 {
		t.Errorf("expected no tissues for unknown region, got %d", len(got))
	}
}

func TestParse(t *testing.T) {
	if r, err := ParseRegion(" Knee "); err != nil || r != Knee {
		t.Errorf("ParseRegion = %v, %v", r, err)
	}
	if _, err := ParseRegion("elbow"); err == nil {
		t.Error("expected error for unknown region")
	}
	if s, err := ParseSequence("FLAIR"); err != nil || s != FLAIR {
		t.Errorf("ParseSequence = %v, %v", s, err)
	}
	if _, err := ParseSequence("dwi"); err == nil {
		t.Error("expected error for unknown sequence")
	}
}

func TestBrightness(t *testing.T) {
	tests := []struct {
		name string
		id   ID
		seq  Sequence
		want float64
	}{
		{"fat bright on T1", FAT, T1Weighted, 240},
		{"csf dark on T1", CSF, T1Weighted, 15},
		{"csf bright on T2", CSF, T2Weighted, 255},
		{"csf nulled on FLAIR", CSF, FLAIR, 0},
		{"muscle on T2 from T2", MUSCLE, T2Weighted, 125},
		{"muscle on T1 from T1", MUSCLE, T1Weighted, 75},
		{"pd scales density", GM, PDWeighted, 192},
		{"bone void", BONE, PDWeighted, 0},
		{"unknown tissue", ID("LIVER"), T1Weighted, 0},
		{"unknown sequence", FAT, Sequence("dwi"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Brightness(tt.id, tt.seq); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Brightness(%s, %s) = %v, want %v", tt.id, tt.seq, got, tt.want)
			}
		})
	}
}

func TestImagePath(t *testing.T) {
	if got := ImagePath(Spine, FLAIR); got != "assets/spine_flair.png" {
		t.Errorf("got %s", got)
	}
	if got := ImagePath(Region("x"), Sequence("y")); got != "assets/brain_t1.png" {
		t.Errorf("fallback asset: got %s", got)
	}
}

func TestCycling(t *testing.T) {
	if NextRegion(Abdomen) != Brain {
		t.Error("region cycle should wrap")
	}
	if NextSequence(T1Weighted) != T2Weighted {
		t.Error("sequence cycle order")
	}
	if math.Abs(LarmorMHz(1.5)-63.87) > 1e-9 {
		t.Errorf("LarmorMHz(1.5) = %v", LarmorMHz(1.5))
	}
}
