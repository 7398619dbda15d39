// Package kspace maps scan progress to phase-encode line acquisition and to
// the fidelity of the reconstructed image.
//
// The centre of k-space carries contrast and the periphery carries detail,
// so contrast appears once the fill crosses the centre line and the image
// then sharpens as the remaining lines arrive.
package kspace

import "math"

const (
	TotalLines = 64
	CenterLine = TotalLines / 2

	baseBlurHigh   = 15.0
	blurDelta      = 5.0
	baseOpacityLow = 0.3
	opacityDelta   = 0.2
	blurRange      = 10.0
)

// Reconstruction is the display state of the image panel.
type Reconstruction struct {
	LinesFilled   int
	CrossedCenter bool
	Blur          float64
	Opacity       float64
}

// HighResolution reports whether enough periphery is sampled to show detail.
func (r Reconstruction) HighResolution() bool { return r.CrossedCenter }

// LinesFilled converts progress in percent to acquired lines, top to bottom.
func LinesFilled(progress float64) int {
	if math.IsNaN(progress) || progress <= 0 {
		return 0
	}
	if progress >= 100 {
		return TotalLines
	}
	n := int(math.Floor(progress / 100 * TotalLines))
	if n > TotalLines {
		n = TotalLines
	}
	return n
}

// Blur returns the blur radius for an active scan with n lines acquired.
func Blur(n int) float64 {
	n = clampLines(n)
	if n > CenterLine {
		remaining := TotalLines - n
		return float64(remaining) / CenterLine * blurRange
	}
	return baseBlurHigh - float64(n)/CenterLine*blurDelta
}

// Opacity returns the image contrast for an active scan with n lines acquired.
func Opacity(n int) float64 {
	n = clampLines(n)
	if n > CenterLine {
		return 1
	}
	return baseOpacityLow + float64(n)/CenterLine*opacityDelta
}

// Reconstruct derives the image state. A scan at rest, either untouched or
// complete, shows the full-quality image.
func Reconstruct(progress float64, scanning bool) Reconstruction {
	n := LinesFilled(progress)
	r := Reconstruction{
		LinesFilled:   n,
		CrossedCenter: n > CenterLine,
	}
	if !scanning && (progress <= 0 || progress >= 100) {
		r.Blur = 0
		r.Opacity = 1
		return r
	}
	r.Blur = Blur(n)
	r.Opacity = Opacity(n)
	return r
}

// Acquired reports whether line i has been filled.
func Acquired(i, linesFilled int) bool {
	return i >= 0 && i < linesFilled && i < TotalLines
}

// LineIntensity is the display brightness of an acquired line. Centre lines
// carry more signal energy and draw brighter.
func LineIntensity(i int) float64 {
	i = clampLines(i)
	d := math.Abs(float64(i-CenterLine)) / CenterLine
	return (1-d)*0.8 + 0.2
}

// PhaseEncodeStep is the normalized Gy gradient amplitude for the line
// currently being acquired, in [-1, 1].
func PhaseEncodeStep(linesFilled int) float64 {
	return float64(clampLines(linesFilled)-CenterLine) / CenterLine
}

func clampLines(n int) int {
	if n < 0 {
		return 0
	}
	if n > TotalLines {
		return TotalLines
	}
	return n
}
