// Package export writes scan artifacts in portable formats: relaxation
// curves and spin field snapshots as SVG, recorded runs as JSON.
package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/neurospin/internal/relax"
	"github.com/san-kum/neurospin/internal/spin"
)

const (
	background   = "#0a0a0a"
	axisColor    = "#444466"
	cursorColor  = "#ffffff"
	spinColor    = "#00ffff"
	tippedColor  = "#ff00ff"
	protonColor  = "#666688"
	curvePadding = 0.1
)

func header(sb *strings.Builder, width, height int) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)
}

// CurvesToSVG plots Mz (solid) and Mxy (dashed) for every curve in the
// tissue's colour. A cursor line is drawn at cursorMs when it is positive.
func CurvesToSVG(curves []relax.Curve, width, height int, cursorMs float64) string {
	if len(curves) == 0 || len(curves[0].Times) < 2 || width <= 0 || height <= 0 {
		return ""
	}

	times := curves[0].Times
	span := times[len(times)-1] - times[0]
	if span == 0 {
		span = 1
	}
	// magnetization is normalized, pad the unit range
	minY, maxY := -curvePadding, 1+curvePadding

	xAt := func(t float64) float64 { return (t - times[0]) / span * float64(width) }
	yAt := func(v float64) float64 { return float64(height) - (v-minY)/(maxY-minY)*float64(height) }

	var sb strings.Builder
	header(&sb, width, height)

	fmt.Fprintf(&sb, `<line x1="0" y1="%.1f" x2="%d" y2="%.1f" stroke="%s"/>
`, yAt(0), width, yAt(0), axisColor)
	fmt.Fprintf(&sb, `<line x1="0" y1="%.1f" x2="%d" y2="%.1f" stroke="%s" stroke-dasharray="2,4"/>
`, yAt(1), width, yAt(1), axisColor)

	for _, c := range curves {
		writePath(&sb, c.Times, c.Mz, xAt, yAt, c.Tissue.Color, "")
		writePath(&sb, c.Times, c.Mxy, xAt, yAt, c.Tissue.Color, ` stroke-dasharray="6,3"`)
	}

	if cursorMs > 0 {
		x := xAt(cursorMs)
		fmt.Fprintf(&sb, `<line x1="%.1f" y1="0" x2="%.1f" y2="%d" stroke="%s" stroke-width="1"/>
`, x, x, height, cursorColor)
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func writePath(sb *strings.Builder, xs, ys []float64, xAt, yAt func(float64) float64, color, extra string) {
	n := min(len(xs), len(ys))
	if n < 2 {
		return
	}
	fmt.Fprintf(sb, `<path fill="none" stroke="%s" stroke-width="1.5"%s d="M`, color, extra)
	for i := 0; i < n; i++ {
		if i == 0 {
			fmt.Fprintf(sb, "%.1f,%.1f", xAt(xs[i]), yAt(ys[i]))
		} else {
			fmt.Fprintf(sb, " L%.1f,%.1f", xAt(xs[i]), yAt(ys[i]))
		}
	}
	sb.WriteString("\"/>\n")
}

// SpinsToSVG draws a spin field frame. Vectors are expected depth sorted,
// as spin.Field.Frame returns them, so nearer arrows paint last.
func SpinsToSVG(vs []spin.Vector, width, height int) string {
	if len(vs) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	minX, maxX := vs[0].ScreenBase.X, vs[0].ScreenBase.X
	minY, maxY := vs[0].ScreenBase.Y, vs[0].ScreenBase.Y
	for _, v := range vs {
		for _, p := range []spin.Point{v.ScreenBase, v.ScreenTip} {
			minX, maxX = min(minX, p.X), max(maxX, p.X)
			minY, maxY = min(minY, p.Y), max(maxY, p.Y)
		}
	}
	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * curvePadding
	minY -= rangeY * curvePadding
	rangeX *= 1 + 2*curvePadding
	rangeY *= 1 + 2*curvePadding

	// keep the aspect ratio so the projection is not distorted
	scale := min(float64(width)/rangeX, float64(height)/rangeY)
	at := func(p spin.Point) (float64, float64) {
		return (p.X - minX) * scale, (p.Y - minY) * scale
	}

	var sb strings.Builder
	header(&sb, width, height)
	for _, v := range vs {
		bx, by := at(v.ScreenBase)
		tx, ty := at(v.ScreenTip)
		color := spinColor
		if v.Tipped {
			color = tippedColor
		}
		fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="2" fill="%s"/>
`, bx, by, protonColor)
		fmt.Fprintf(&sb, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="2"/>
`, bx, by, tx, ty, color)
		fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="3" fill="%s"/>
`, tx, ty, color)
	}
	sb.WriteString("</svg>")
	return sb.String()
}
