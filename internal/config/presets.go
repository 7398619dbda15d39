package config

import (
	"sort"

	"github.com/san-kum/neurospin/internal/tissue"
)

// Protocol is a named scan setup.
type Protocol struct {
	Region        tissue.Region   `yaml:"region"`
	Sequence      tissue.Sequence `yaml:"sequence"`
	FieldStrength float64         `yaml:"field_strength"`
	Description   string          `yaml:"description"`
}

var Presets = map[string]Protocol{
	"brain-anatomy": {
		Region: tissue.Brain, Sequence: tissue.T1Weighted, FieldStrength: 3.0,
		Description: "grey/white matter contrast, dark CSF",
	},
	"brain-pathology": {
		Region: tissue.Brain, Sequence: tissue.T2Weighted, FieldStrength: 3.0,
		Description: "bright fluid, oedema screening",
	},
	"brain-lesion": {
		Region: tissue.Brain, Sequence: tissue.FLAIR, FieldStrength: 3.0,
		Description: "CSF suppressed, periventricular lesions stand out",
	},
	"spine-disc": {
		Region: tissue.Spine, Sequence: tissue.T2Weighted, FieldStrength: 1.5,
		Description: "bright CSF outlines the cord",
	},
	"knee-cartilage": {
		Region: tissue.Knee, Sequence: tissue.PDWeighted, FieldStrength: 3.0,
		Description: "proton density for cartilage and menisci",
	},
	"abdomen-survey": {
		Region: tissue.Abdomen, Sequence: tissue.T1Weighted, FieldStrength: 1.5,
		Description: "bright fat, quick overview",
	},
}

func GetPreset(name string) *Protocol {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return &p
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
