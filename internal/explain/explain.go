// Package explain produces the short tutor commentary shown next to the
// slice view for a region and sequence.
package explain

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/san-kum/neurospin/internal/tissue"
)

// Fallback is shown when no explanation can be produced.
const Fallback = "Explanation currently unavailable."

// Provider returns markdown-ish text for a region and sequence.
type Provider interface {
	Explain(ctx context.Context, r tissue.Region, s tissue.Sequence) (string, error)
}

// Fetch asks p for an explanation and degrades any failure to Fallback.
func Fetch(ctx context.Context, p Provider, r tissue.Region, s tissue.Sequence, log zerolog.Logger) string {
	if p == nil {
		return Fallback
	}
	text, err := p.Explain(ctx, r, s)
	if err != nil {
		log.Warn().Err(err).Str("region", string(r)).Str("sequence", string(s)).Msg("explanation unavailable")
		return Fallback
	}
	if strings.TrimSpace(text) == "" {
		return Fallback
	}
	return text
}

// Static builds explanations from the tissue table and canned notes.
type Static struct{}

var physics = map[tissue.Sequence]string{
	tissue.T1Weighted: "Short TR and TE. Tissues with **short T1** recover quickly between pulses and appear bright, so fat is bright and fluid is dark.",
	tissue.T2Weighted: "Long TR and TE. Tissues with **long T2** keep their transverse signal at echo time, so fluid is bright.",
	tissue.FLAIR:      "A T2-weighted sequence with an inversion pulse that **nulls free fluid**. CSF turns dark while oedema stays bright.",
	tissue.PDWeighted: "Long TR and short TE minimise T1 and T2 effects, so signal follows **proton density**.",
}

var utility = map[tissue.Region]map[tissue.Sequence]string{
	tissue.Brain: {
		tissue.T1Weighted: "Anatomy and contrast-enhanced studies.",
		tissue.T2Weighted: "Screening for oedema, inflammation and tumours.",
		tissue.FLAIR:      "Periventricular lesions such as MS plaques.",
		tissue.PDWeighted: "Grey/white matter differentiation.",
	},
	tissue.Spine: {
		tissue.T1Weighted: "Marrow signal and vertebral anatomy.",
		tissue.T2Weighted: "Myelogram effect: bright CSF outlines the cord and discs.",
	},
	tissue.Knee: {
		tissue.PDWeighted: "Cartilage and meniscal tears.",
		tissue.T2Weighted: "Joint effusion and bone bruise.",
	},
	tissue.Abdomen: {
		tissue.T1Weighted: "Fat planes and liver lesions.",
		tissue.T2Weighted: "Cysts and fluid collections.",
	},
}

func (Static) Explain(ctx context.Context, r tissue.Region, s tissue.Sequence) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !r.Valid() {
		return "", fmt.Errorf("unknown region %q", r)
	}
	if !s.Valid() {
		return "", fmt.Errorf("unknown sequence %q", s)
	}

	tr, te := s.Timing()
	var b strings.Builder
	fmt.Fprintf(&b, "**%s, %s** (TR %.0f ms, TE %.0f ms)\n", r, s, tr, te)
	b.WriteString(physics[s])
	b.WriteString("\n")
	for _, t := range tissue.ForRegion(r) {
		fmt.Fprintf(&b, "* %s: %s\n", t.Name, Appearance(tissue.Brightness(t.ID, s)))
	}
	if u, ok := utility[r][s]; ok {
		fmt.Fprintf(&b, "Use: %s", u)
	} else {
		b.WriteString("Use: general survey.")
	}
	return b.String(), nil
}

// Appearance names a grey level the way radiologists describe signal.
func Appearance(v float64) string {
	switch {
	case v >= 200:
		return "hyperintense (bright)"
	case v >= 90:
		return "intermediate"
	case v > 20:
		return "hypointense (dark)"
	default:
		return "signal void"
	}
}
