package coords

import (
	"math"
	"testing"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestMultiplyOrder(t *testing.T) {
	m := Scale(2, 2).Multiply(Translate(10, 0))
	p := m.Transform(Point{1, 1})
	if !near(p.X, 12) || !near(p.Y, 2) {
		t.Fatalf("scale then translate: got %+v", p)
	}
}

func TestInverse(t *testing.T) {
	m := RotateAround(math.Pi/3, 5, 7).Multiply(Scale(3, 0.5))
	inv, err := m.Inverse()
	if err != nil {
		t.Fatalf("inverse: %v", err)
	}
	p := inv.Transform(m.Transform(Point{4, -2}))
	if !near(p.X, 4) || !near(p.Y, -2) {
		t.Fatalf("round trip = %+v", p)
	}
	if _, err := Scale(0, 1).Inverse(); err == nil {
		t.Fatalf("singular matrix must fail")
	}
}

func TestBoundingBoxRotated(t *testing.T) {
	llx, lly, urx, ury := Rotate(math.Pi/2).BoundingBox(0, 0, 10, 20)
	if !near(llx, -20) || !near(lly, 0) || !near(urx, 0) || !near(ury, 10) {
		t.Fatalf("bbox = %v %v %v %v", llx, lly, urx, ury)
	}
	if !Identity().IsIdentity() {
		t.Fatalf("identity check")
	}
}
