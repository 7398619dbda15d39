package spin

import (
	"math"
	"sort"
)

type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Length() float64      { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }

// Point is a projected screen coordinate. Y grows downward.
type Point struct {
	X, Y float64
}

// Projection is a cabinet projection: x runs right, z runs up and y runs
// into the scene, drawn along a diagonal at Angle.
type Projection struct {
	Angle float64
	sin   float64
	cos   float64
}

const DefaultProjectionAngle = 30 * math.Pi / 180

func NewProjection(angle float64) Projection {
	return Projection{Angle: angle, sin: math.Sin(angle), cos: math.Cos(angle)}
}

func (p Projection) Project(v Vec3) Point {
	return Point{
		X: v.X - v.Y*p.cos,
		Y: -v.Z + v.Y*p.sin,
	}
}

// Depth orders points for the painter's algorithm. It grows toward the
// viewer, so the row with the largest y is the farthest.
func (p Projection) Depth(v Vec3) float64 {
	return -v.Y
}

// DepthSort orders vectors far to near so nearer arrows draw over farther
// ones. The sort is stable so equal depths keep grid order.
func DepthSort(vs []Vector) {
	sort.SliceStable(vs, func(i, j int) bool { return vs[i].Depth < vs[j].Depth })
}
