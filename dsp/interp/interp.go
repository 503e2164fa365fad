package interp

import "fmt"

// Mode selects an interpolation kernel.
type Mode int

const (
	Point Mode = iota
	Linear
	Cubic
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case Point:
		return "point"
	case Linear:
		return "linear"
	case Cubic:
		return "cubic"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode returns the Mode named by s.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "point":
		return Point, nil
	case "linear":
		return Linear, nil
	case "cubic":
		return Cubic, nil
	default:
		return Point, fmt.Errorf("interp: unknown mode %q", s)
	}
}

// At interpolates between x0 and x1 at t in [0,1) with the selected kernel.
// xm1 and x2 are the outer neighbours; only [Cubic] reads them.
func (m Mode) At(t, xm1, x0, x1, x2 float64) float64 {
	switch m {
	case Linear:
		return Linear2(t, x0, x1)
	case Cubic:
		return Hermite4(t, xm1, x0, x1, x2)
	default:
		return x0
	}
}

// Linear2 computes 2-point linear interpolation.
func Linear2(t, x0, x1 float64) float64 {
	return x0 + t*(x1-x0)
}

// Hermite4 computes cubic 4-point interpolation.
// It interpolates from x0 to x1 using neighbor points xm1 and x2.
func Hermite4(t, xm1, x0, x1, x2 float64) float64 {
	c0 := x0
	c1 := 0.5 * (x1 - xm1)
	c2 := xm1 - 2.5*x0 + 2*x1 - 0.5*x2
	c3 := 0.5*(x2-xm1) + 1.5*(x0-x1)
	return ((c3*t+c2)*t+c1)*t + c0
}
