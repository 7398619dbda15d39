package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/neurospin/internal/kspace"
	"github.com/san-kum/neurospin/internal/phantom"
	"github.com/san-kum/neurospin/internal/relax"
	"github.com/san-kum/neurospin/internal/scanner"
	"github.com/san-kum/neurospin/internal/spin"
	"github.com/san-kum/neurospin/internal/tissue"
)

// SpinView maps projected spin coordinates onto a canvas. The bounds cover
// the whole grid with a full vector length of margin on every side, so the
// scale does not change between frames.
type SpinView struct {
	canvas     *Canvas
	minX, minY float64
	scale      float64
	offX, offY float64
}

func NewSpinView(cfg spin.Config, proj spin.Projection, w, h int) *SpinView {
	c := NewCanvas(w, h)
	half := float64(cfg.GridSize-1) / 2 * cfg.Spacing
	e := half + cfg.VectorLength
	l := cfg.VectorLength

	first := true
	var minX, maxX, minY, maxY float64
	for _, x := range []float64{-e, e} {
		for _, y := range []float64{-e, e} {
			for _, z := range []float64{-l, l} {
				p := proj.Project(spin.Vec3{X: x, Y: y, Z: z})
				if first {
					minX, maxX, minY, maxY = p.X, p.X, p.Y, p.Y
					first = false
					continue
				}
				minX, maxX = min(minX, p.X), max(maxX, p.X)
				minY, maxY = min(minY, p.Y), max(maxY, p.Y)
			}
		}
	}

	sw, sh := float64(c.SubWidth()-1), float64(c.SubHeight()-1)
	rx, ry := max(maxX-minX, 1), max(maxY-minY, 1)
	scale := min(sw/rx, sh/ry)
	return &SpinView{
		canvas: c,
		minX:   minX,
		minY:   minY,
		scale:  scale,
		offX:   (sw - rx*scale) / 2,
		offY:   (sh - ry*scale) / 2,
	}
}

func (v *SpinView) dot(p spin.Point) (int, int) {
	x := (p.X-v.minX)*v.scale + v.offX
	y := (p.Y-v.minY)*v.scale + v.offY
	return int(math.Round(x)), int(math.Round(y))
}

// Draw paints a depth-sorted frame. Protons are dim dots, aligned spins use
// the normal ink and tipped spins the hot ink.
func (v *SpinView) Draw(vs []spin.Vector) *Canvas {
	v.canvas.Clear()
	for _, vec := range vs {
		bx, by := v.dot(vec.ScreenBase)
		tx, ty := v.dot(vec.ScreenTip)
		ink := InkNormal
		if vec.Tipped {
			ink = InkHot
		}
		v.canvas.Set(bx, by, InkDim)
		v.canvas.DrawLine(bx, by, tx, ty, ink)
		v.canvas.DrawDot(tx, ty, ink)
	}
	return v.canvas
}

// KSpaceRows folds the phase-encode lines onto rows display rows. A row
// holds the intensity of its first line once that line is acquired, else 0.
func KSpaceRows(linesFilled, rows int) []float64 {
	if rows <= 0 {
		return nil
	}
	out := make([]float64, rows)
	for r := range out {
		line := r * kspace.TotalLines / rows
		if kspace.Acquired(line, linesFilled) {
			out[r] = kspace.LineIntensity(line)
		}
	}
	return out
}

var kspaceRamp = []rune{'░', '▒', '▓', '█'}

func kspaceShade(v float64) rune {
	idx := int(v * float64(len(kspaceRamp)))
	return kspaceRamp[min(max(idx, 0), len(kspaceRamp)-1)]
}

// GradientIndicator draws the phase-encode gradient amplitude as a marker
// on a [-1, 1] track.
func GradientIndicator(linesFilled, width int) string {
	if width < 3 {
		return ""
	}
	amp := kspace.PhaseEncodeStep(linesFilled)
	pos := int(math.Round((amp + 1) / 2 * float64(width-1)))
	track := []rune(strings.Repeat("─", width))
	track[width/2] = '┼'
	track[min(max(pos, 0), width-1)] = '●'
	return string(track)
}

func (s Styles) kspacePanel(linesFilled, w, h int) string {
	var b strings.Builder
	rows := KSpaceRows(linesFilled, h)
	centre := kspace.CenterLine * h / kspace.TotalLines
	for r, v := range rows {
		if v == 0 {
			b.WriteString(s.Muted.Render(strings.Repeat("·", w)))
		} else {
			line := strings.Repeat(string(kspaceShade(v)), w)
			if r == centre {
				b.WriteString(s.Active.Render(line))
			} else {
				b.WriteString(s.Value.Render(line))
			}
		}
		b.WriteByte('\n')
	}
	b.WriteString(s.Muted.Render(fmt.Sprintf("%2d/%d lines", linesFilled, kspace.TotalLines)) + "\n")
	b.WriteString("Gy " + GradientIndicator(linesFilled, max(w-3, 3)))
	return b.String()
}

func slicePanel(sel scanner.Selection, st scanner.State, w, h int) string {
	rec := kspace.Reconstruct(st.Progress, st.Scanning)
	return phantom.String(phantom.Slice(sel.Region, sel.Sequence, rec, w, h))
}

var curveColors = map[tissue.ID]asciigraph.AnsiColor{
	tissue.CSF:    asciigraph.Blue,
	tissue.WM:     asciigraph.White,
	tissue.GM:     asciigraph.Gray,
	tissue.FAT:    asciigraph.Yellow,
	tissue.MUSCLE: asciigraph.Red,
	tissue.BONE:   asciigraph.SlateGray,
}

// CursorRow draws a marker under an asciigraph plot at the sample index
// nearest to the scan cursor.
func CursorRow(plot string, index, samples, width int) string {
	first, _, _ := strings.Cut(plot, "\n")
	axis := 0
	for i, r := range []rune(first) {
		if r == '┤' || r == '┼' {
			axis = i + 1
			break
		}
	}
	col := 0
	if samples > 1 {
		col = int(math.Round(float64(index) / float64(samples-1) * float64(width-1)))
	}
	return strings.Repeat(" ", axis+min(max(col, 0), width-1)) + "▲"
}

func curvesPanel(region tissue.Region, elapsedMs float64, w, h int) string {
	d := relax.DefaultDomain()
	curves := relax.Sample(tissue.ForRegion(region), d)
	if len(curves) == 0 {
		return ""
	}
	mz := make([][]float64, len(curves))
	mxy := make([][]float64, len(curves))
	colors := make([]asciigraph.AnsiColor, len(curves))
	legend := make([]string, len(curves))
	for i, c := range curves {
		mz[i], mxy[i] = c.Mz, c.Mxy
		colors[i] = curveColors[c.Tissue.ID]
		legend[i] = colors[i].String() + "━ " + string(c.Tissue.ID) + asciigraph.Default.String()
	}

	opts := func(caption string) []asciigraph.Option {
		return []asciigraph.Option{
			asciigraph.Height(h),
			asciigraph.Width(w),
			asciigraph.LowerBound(0),
			asciigraph.UpperBound(1),
			asciigraph.Precision(1),
			asciigraph.SeriesColors(colors...),
			asciigraph.Caption(caption),
		}
	}

	var b strings.Builder
	longitudinal := asciigraph.PlotMany(mz, opts("Mz recovery (T1)")...)
	b.WriteString(longitudinal + "\n")
	if elapsedMs > 0 {
		b.WriteString(CursorRow(longitudinal, d.CursorIndex(elapsedMs), d.Samples(), w) + "\n")
	}
	b.WriteString(asciigraph.PlotMany(mxy, opts("Mxy decay (T2)")...) + "\n")
	b.WriteString(strings.Join(legend, "  "))
	return b.String()
}
