package raster

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Affine maps source (x, y) to destination
// (m[0][0]*x + m[0][1]*y + m[0][2], m[1][0]*x + m[1][1]*y + m[1][2]).
type Affine [2][3]float64

// Homography maps source points to destination points in homogeneous coordinates.
type Homography [3][3]float64

// Point is a sub-pixel image coordinate.
type Point struct {
	X, Y float64
}

// Size is an output buffer size for warps.
type Size struct {
	W, H int
}

// Interpolation selects how fractional source coordinates are sampled.
type Interpolation int

const (
	// Nearest picks the closest source pixel. It is the default.
	Nearest Interpolation = iota
	// Bilinear blends the four surrounding source pixels.
	Bilinear
)

// IdentityAffine leaves coordinates unchanged.
var IdentityAffine = Affine{{1, 0, 0}, {0, 1, 0}}

// RotationMatrix rotates by angle degrees about (cx, cy) and scales by scale.
// Positive angles turn the image counter-clockwise as displayed (y axis down).
func RotationMatrix(cx, cy, angle, scale float64) Affine {
	rad := angle * math.Pi / 180
	a := scale * math.Cos(rad)
	b := scale * math.Sin(rad)
	return Affine{
		{a, b, (1-a)*cx - b*cy},
		{-b, a, b*cx + (1-a)*cy},
	}
}

// TranslationMatrix shifts by (tx, ty).
func TranslationMatrix(tx, ty float64) Affine {
	return Affine{{1, 0, tx}, {0, 1, ty}}
}

// ScaleMatrix scales about the origin.
func ScaleMatrix(sx, sy float64) Affine {
	return Affine{{sx, 0, 0}, {0, sy, 0}}
}

// Apply maps p through m.
func (m Affine) Apply(p Point) Point {
	return Point{
		X: m[0][0]*p.X + m[0][1]*p.Y + m[0][2],
		Y: m[1][0]*p.X + m[1][1]*p.Y + m[1][2],
	}
}

// Invert returns the inverse mapping.
func (m Affine) Invert() (Affine, error) {
	det := m[0][0]*m[1][1] - m[0][1]*m[1][0]
	if det == 0 || math.IsNaN(det) {
		return Affine{}, fmt.Errorf("singular affine matrix: %w", ErrInvalidParameter)
	}
	a, b := m[1][1]/det, -m[0][1]/det
	d, e := -m[1][0]/det, m[0][0]/det
	c := -(a*m[0][2] + b*m[1][2])
	f := -(d*m[0][2] + e*m[1][2])
	return Affine{{a, b, c}, {d, e, f}}, nil
}

// Apply maps p through h. Points mapped to infinity return ok == false.
func (h Homography) Apply(p Point) (Point, bool) {
	w := h[2][0]*p.X + h[2][1]*p.Y + h[2][2]
	if w == 0 {
		return Point{}, false
	}
	return Point{
		X: (h[0][0]*p.X + h[0][1]*p.Y + h[0][2]) / w,
		Y: (h[1][0]*p.X + h[1][1]*p.Y + h[1][2]) / w,
	}, true
}

// Invert returns the inverse homography.
func (h Homography) Invert() (Homography, error) {
	m := mat.NewDense(3, 3, []float64{
		h[0][0], h[0][1], h[0][2],
		h[1][0], h[1][1], h[1][2],
		h[2][0], h[2][1], h[2][2],
	})
	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		return Homography{}, fmt.Errorf("singular homography: %v: %w", err, ErrInvalidParameter)
	}
	var out Homography
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r][c] = inv.At(r, c)
		}
	}
	return out, nil
}

// collinearEps bounds twice the triangle area, relative to the squared
// extent of the point set, below which points count as collinear.
const collinearEps = 1e-9

func anyCollinear(pts [4]Point) bool {
	minX, maxX, minY, maxY := pts[0].X, pts[0].X, pts[0].Y, pts[0].Y
	for _, p := range pts[1:] {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	extent := math.Max(maxX-minX, maxY-minY)
	tol := collinearEps * extent * extent
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			for k := j + 1; k < 4; k++ {
				a, b, c := pts[i], pts[j], pts[k]
				area := (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
				if math.Abs(area) <= tol {
					return true
				}
			}
		}
	}
	return false
}

// PerspectiveTransform solves for the homography taking each src point to the
// matching dst point. Any three collinear points on either side make the
// system degenerate.
func PerspectiveTransform(src, dst [4]Point) (Homography, error) {
	if anyCollinear(src) {
		return Homography{}, fmt.Errorf("source points: %w", ErrDegenerateCorrespondence)
	}
	if anyCollinear(dst) {
		return Homography{}, fmt.Errorf("destination points: %w", ErrDegenerateCorrespondence)
	}
	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y
		a.SetRow(i, []float64{x, y, 1, 0, 0, 0, -x * u, -y * u})
		a.SetRow(i+4, []float64{0, 0, 0, x, y, 1, -x * v, -y * v})
		b.SetVec(i, u)
		b.SetVec(i+4, v)
	}
	var sol mat.VecDense
	if err := sol.SolveVec(a, b); err != nil {
		// a finite condition number is only a precision warning
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return Homography{}, fmt.Errorf("solve: %v: %w", err, ErrDegenerateCorrespondence)
		}
	}
	for i := 0; i < 8; i++ {
		if v := sol.AtVec(i); math.IsNaN(v) || math.IsInf(v, 0) {
			return Homography{}, fmt.Errorf("solve: non-finite coefficient: %w", ErrDegenerateCorrespondence)
		}
	}
	return Homography{
		{sol.AtVec(0), sol.AtVec(1), sol.AtVec(2)},
		{sol.AtVec(3), sol.AtVec(4), sol.AtVec(5)},
		{sol.AtVec(6), sol.AtVec(7), 1},
	}, nil
}

// WarpAffine renders buf through m into a buffer of the given size. Each
// destination pixel is inverse-mapped into buf; coordinates outside buf
// produce 0.
func WarpAffine(buf *Buffer, m Affine, size Size, interp Interpolation) (*Buffer, error) {
	inv, err := m.Invert()
	if err != nil {
		return nil, err
	}
	return warp(buf, size, interp, func(x, y float64) (float64, float64, bool) {
		p := inv.Apply(Point{x, y})
		return p.X, p.Y, true
	})
}

// WarpPerspective renders buf through h into a buffer of the given size,
// with the same sampling rules as WarpAffine.
func WarpPerspective(buf *Buffer, h Homography, size Size, interp Interpolation) (*Buffer, error) {
	inv, err := h.Invert()
	if err != nil {
		return nil, err
	}
	return warp(buf, size, interp, func(x, y float64) (float64, float64, bool) {
		p, ok := inv.Apply(Point{x, y})
		return p.X, p.Y, ok
	})
}

func warp(buf *Buffer, size Size, interp Interpolation, inverse func(x, y float64) (float64, float64, bool)) (*Buffer, error) {
	out, err := New(size.W, size.H, buf.Channels)
	if err != nil {
		return nil, err
	}
	ch := buf.Channels
	parallelRows(size.H, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < size.W; x++ {
				sx, sy, ok := inverse(float64(x), float64(y))
				if !ok {
					continue
				}
				o := out.Offset(x, y)
				switch interp {
				case Bilinear:
					sampleBilinear(buf, sx, sy, out.Pix[o:o+ch])
				default:
					ix, iy := int(math.Floor(sx+0.5)), int(math.Floor(sy+0.5))
					if buf.In(ix, iy) {
						copy(out.Pix[o:o+ch], buf.Pix[buf.Offset(ix, iy):])
					}
				}
			}
		}
	})
	return out, nil
}

// sampleBilinear writes the interpolated pixel at (x, y) into dst. Neighbors
// outside buf contribute 0; points more than a pixel outside leave dst as is.
func sampleBilinear(buf *Buffer, x, y float64, dst []uint8) {
	if x <= -1 || y <= -1 || x >= float64(buf.Width) || y >= float64(buf.Height) {
		return
	}
	x0, y0 := int(math.Floor(x)), int(math.Floor(y))
	fx, fy := x-float64(x0), y-float64(y0)
	for c := range dst {
		v00 := float64(buf.At(x0, y0, c))
		v10 := float64(buf.At(x0+1, y0, c))
		v01 := float64(buf.At(x0, y0+1, c))
		v11 := float64(buf.At(x0+1, y0+1, c))
		top := v00*(1-fx) + v10*fx
		bot := v01*(1-fx) + v11*fx
		dst[c] = saturate(top*(1-fy) + bot*fy)
	}
}
