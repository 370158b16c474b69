// Package coords holds the affine matrices used for the current
// transformation matrix (CTM) of a page.
package coords

import (
	"errors"
	"math"
)

// Matrix is a PDF matrix [a b c d e f].
type Matrix [6]float64

func Identity() Matrix { return Matrix{1, 0, 0, 1, 0, 0} }

// Multiply returns m followed by o.
func (m Matrix) Multiply(o Matrix) Matrix {
	return Matrix{
		m[0]*o[0] + m[1]*o[2], m[0]*o[1] + m[1]*o[3],
		m[2]*o[0] + m[3]*o[2], m[2]*o[1] + m[3]*o[3],
		m[4]*o[0] + m[5]*o[2] + o[4], m[4]*o[1] + m[5]*o[3] + o[5],
	}
}

type Point struct{ X, Y float64 }

func (m Matrix) Transform(p Point) Point {
	return Point{X: m[0]*p.X + m[2]*p.Y + m[4], Y: m[1]*p.X + m[3]*p.Y + m[5]}
}

func (m Matrix) Inverse() (Matrix, error) {
	det := m[0]*m[3] - m[1]*m[2]
	if math.Abs(det) < 1e-10 {
		return Matrix{}, errors.New("matrix singular")
	}
	return Matrix{m[3] / det, -m[1] / det, -m[2] / det, m[0] / det, (m[2]*m[5] - m[3]*m[4]) / det, (m[1]*m[4] - m[0]*m[5]) / det}, nil
}

func (m Matrix) IsIdentity() bool { return m == Identity() }

// BoundingBox maps the rectangle (x1,y1)-(x2,y2) through m and returns the
// axis-aligned box around the result as llx, lly, urx, ury.
func (m Matrix) BoundingBox(x1, y1, x2, y2 float64) (float64, float64, float64, float64) {
	pts := [4]Point{
		m.Transform(Point{x1, y1}), m.Transform(Point{x2, y1}),
		m.Transform(Point{x1, y2}), m.Transform(Point{x2, y2}),
	}
	llx, lly, urx, ury := pts[0].X, pts[0].Y, pts[0].X, pts[0].Y
	for _, p := range pts[1:] {
		llx, urx = math.Min(llx, p.X), math.Max(urx, p.X)
		lly, ury = math.Min(lly, p.Y), math.Max(ury, p.Y)
	}
	return llx, lly, urx, ury
}

func Translate(tx, ty float64) Matrix { return Matrix{1, 0, 0, 1, tx, ty} }
func Scale(sx, sy float64) Matrix     { return Matrix{sx, 0, 0, sy, 0, 0} }

// Rotate returns a counter-clockwise rotation by angle radians.
func Rotate(angle float64) Matrix {
	c := math.Cos(angle)
	s := math.Sin(angle)
	return Matrix{c, s, -s, c, 0, 0}
}

// RotateAround rotates by angle radians around (x, y).
func RotateAround(angle, x, y float64) Matrix {
	return Translate(-x, -y).Multiply(Rotate(angle)).Multiply(Translate(x, y))
}

// Skew returns a skew by ax and ay radians.
func Skew(ax, ay float64) Matrix {
	return Matrix{1, math.Tan(ay), math.Tan(ax), 1, 0, 0}
}
