// Package phantom draws a synthetic tissue slice for the terminal: a label
// map of simple shapes per region, shaded by sequence contrast and degraded
// by the current k-space reconstruction.
package phantom

import (
	"math"
	"strings"

	"github.com/san-kum/neurospin/internal/kspace"
	"github.com/san-kum/neurospin/internal/tissue"
)

// blurPerCell converts the reconstruction blur radius to grid cells.
const blurPerCell = 3.0

// Ramp maps brightness to characters, darkest first.
const Ramp = " .:-=+*#%@"

type shape struct {
	id     tissue.ID
	cx, cy float64
	rx, ry float64
	rect   bool
}

func (s shape) contains(x, y float64) bool {
	dx := (x - s.cx) / s.rx
	dy := (y - s.cy) / s.ry
	if s.rect {
		return math.Abs(dx) <= 1 && math.Abs(dy) <= 1
	}
	return dx*dx+dy*dy <= 1
}

// layouts are painted in order, later shapes on top, in a [-1, 1] square.
var layouts = map[tissue.Region][]shape{
	tissue.Brain: {
		{id: tissue.FAT, rx: 0.95, ry: 0.95},
		{id: tissue.BONE, rx: 0.88, ry: 0.88},
		{id: tissue.CSF, rx: 0.8, ry: 0.8},
		{id: tissue.GM, rx: 0.76, ry: 0.76},
		{id: tissue.WM, rx: 0.6, ry: 0.62},
		{id: tissue.CSF, cx: -0.14, cy: -0.05, rx: 0.08, ry: 0.24},
		{id: tissue.CSF, cx: 0.14, cy: -0.05, rx: 0.08, ry: 0.24},
	},
	tissue.Spine: {
		{id: tissue.FAT, rx: 0.7, ry: 1, rect: true},
		{id: tissue.MUSCLE, cx: 0.35, rx: 0.3, ry: 1, rect: true},
		{id: tissue.BONE, cx: -0.35, cy: -0.75, rx: 0.22, ry: 0.15, rect: true},
		{id: tissue.BONE, cx: -0.35, cy: -0.38, rx: 0.22, ry: 0.15, rect: true},
		{id: tissue.BONE, cx: -0.35, cy: 0, rx: 0.22, ry: 0.15, rect: true},
		{id: tissue.BONE, cx: -0.35, cy: 0.38, rx: 0.22, ry: 0.15, rect: true},
		{id: tissue.BONE, cx: -0.35, cy: 0.75, rx: 0.22, ry: 0.15, rect: true},
		{id: tissue.CSF, cx: 0, rx: 0.1, ry: 1, rect: true},
		{id: tissue.WM, cx: 0, rx: 0.045, ry: 0.95, rect: true},
	},
	tissue.Knee: {
		{id: tissue.FAT, rx: 0.8, ry: 1, rect: true},
		{id: tissue.MUSCLE, rx: 0.75, ry: 0.98},
		{id: tissue.BONE, cy: -0.55, rx: 0.4, ry: 0.5},
		{id: tissue.BONE, cy: 0.6, rx: 0.42, ry: 0.45},
		{id: tissue.CSF, cy: 0.02, rx: 0.45, ry: 0.06},
	},
	tissue.Abdomen: {
		{id: tissue.FAT, rx: 0.98, ry: 0.75},
		{id: tissue.MUSCLE, rx: 0.88, ry: 0.66},
		{id: tissue.FAT, rx: 0.82, ry: 0.6},
		{id: tissue.GM, cx: -0.35, cy: -0.1, rx: 0.4, ry: 0.38},
		{id: tissue.GM, cx: 0.45, cy: -0.05, rx: 0.18, ry: 0.22},
		{id: tissue.MUSCLE, cx: -0.2, cy: 0.45, rx: 0.12, ry: 0.1},
		{id: tissue.MUSCLE, cx: 0.2, cy: 0.45, rx: 0.12, ry: 0.1},
		{id: tissue.BONE, cy: 0.42, rx: 0.1, ry: 0.1},
	},
}

// Labels returns a w×h tissue map for r. Cells outside every shape are
// empty. Unknown regions yield an empty map.
func Labels(r tissue.Region, w, h int) [][]tissue.ID {
	if w <= 0 || h <= 0 {
		return nil
	}
	shapes := layouts[r]
	out := make([][]tissue.ID, h)
	for j := range out {
		out[j] = make([]tissue.ID, w)
		y := (float64(j)+0.5)/float64(h)*2 - 1
		for i := range out[j] {
			x := (float64(i)+0.5)/float64(w)*2 - 1
			for _, s := range shapes {
				if s.contains(x, y) {
					out[j][i] = s.id
				}
			}
		}
	}
	return out
}

// Image shades a label map with sequence contrast, in [0, 255].
func Image(labels [][]tissue.ID, seq tissue.Sequence) [][]float64 {
	out := make([][]float64, len(labels))
	for j, row := range labels {
		out[j] = make([]float64, len(row))
		for i, id := range row {
			if id != "" {
				out[j][i] = tissue.Brightness(id, seq)
			}
		}
	}
	return out
}

// BoxBlur averages each cell over a (2r+1)² window clipped to the image.
func BoxBlur(img [][]float64, radius int) [][]float64 {
	if radius <= 0 || len(img) == 0 {
		return img
	}
	h, w := len(img), len(img[0])

	// horizontal then vertical pass
	tmp := make([][]float64, h)
	for j := 0; j < h; j++ {
		tmp[j] = make([]float64, w)
		for i := 0; i < w; i++ {
			sum, n := 0.0, 0
			for k := max(0, i-radius); k <= min(w-1, i+radius); k++ {
				sum += img[j][k]
				n++
			}
			tmp[j][i] = sum / float64(n)
		}
	}
	out := make([][]float64, h)
	for j := 0; j < h; j++ {
		out[j] = make([]float64, w)
		for i := 0; i < w; i++ {
			sum, n := 0.0, 0
			for k := max(0, j-radius); k <= min(h-1, j+radius); k++ {
				sum += tmp[k][i]
				n++
			}
			out[j][i] = sum / float64(n)
		}
	}
	return out
}

// BlurCells converts a reconstruction blur radius to a cell radius.
func BlurCells(blur float64) int {
	if math.IsNaN(blur) || blur <= 0 {
		return 0
	}
	return int(math.Round(blur / blurPerCell))
}

// Slice renders the region under the sequence at the given reconstruction.
func Slice(r tissue.Region, seq tissue.Sequence, rec kspace.Reconstruction, w, h int) [][]float64 {
	img := BoxBlur(Image(Labels(r, w, h), seq), BlurCells(rec.Blur))
	op := rec.Opacity
	if math.IsNaN(op) || op < 0 {
		op = 0
	}
	if op > 1 {
		op = 1
	}
	for j := range img {
		for i := range img[j] {
			img[j][i] *= op
		}
	}
	return img
}

// Shade returns the ramp character for a grey level.
func Shade(v float64) byte {
	if math.IsNaN(v) || v <= 0 {
		return Ramp[0]
	}
	idx := int(v / 256 * float64(len(Ramp)))
	if idx >= len(Ramp) {
		idx = len(Ramp) - 1
	}
	return Ramp[idx]
}

// String renders an image as shade characters, one line per row.
func String(img [][]float64) string {
	var b strings.Builder
	for j, row := range img {
		if j > 0 {
			b.WriteByte('\n')
		}
		for _, v := range row {
			b.WriteByte(Shade(v))
		}
	}
	return b.String()
}
