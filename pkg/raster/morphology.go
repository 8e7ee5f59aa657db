package raster

import (
	"fmt"
	"math"
)

// StructuringElement is an immutable binary mask with odd width and height,
// anchored at its center.
type StructuringElement struct {
	width, height int
	mask          []bool
}

func newElement(width, height int) (*StructuringElement, error) {
	if width <= 0 || height <= 0 || width%2 == 0 || height%2 == 0 {
		return nil, fmt.Errorf("structuring element %dx%d: %w", width, height, ErrInvalidKernelSize)
	}
	return &StructuringElement{width: width, height: height, mask: make([]bool, width*height)}, nil
}

// NewEllipse returns the ellipse inscribed in a width x height box.
func NewEllipse(width, height int) (*StructuringElement, error) {
	se, err := newElement(width, height)
	if err != nil {
		return nil, err
	}
	r := height / 2
	c := width / 2
	for y := 0; y < height; y++ {
		dy := y - r
		var x0, x1 int
		if r == 0 {
			x0, x1 = 0, width
		} else {
			dx := int(math.Round(float64(c) * math.Sqrt(float64(r*r-dy*dy)/float64(r*r))))
			x0 = max(c-dx, 0)
			x1 = min(c+dx+1, width)
		}
		for x := x0; x < x1; x++ {
			se.mask[y*width+x] = true
		}
	}
	return se, nil
}

// NewRect returns a fully set width x height element.
func NewRect(width, height int) (*StructuringElement, error) {
	se, err := newElement(width, height)
	if err != nil {
		return nil, err
	}
	for i := range se.mask {
		se.mask[i] = true
	}
	return se, nil
}

// NewCross returns an element with only the center row and column set.
func NewCross(width, height int) (*StructuringElement, error) {
	se, err := newElement(width, height)
	if err != nil {
		return nil, err
	}
	for x := 0; x < width; x++ {
		se.mask[(height/2)*width+x] = true
	}
	for y := 0; y < height; y++ {
		se.mask[y*width+width/2] = true
	}
	return se, nil
}

// Size returns the element's width and height.
func (se *StructuringElement) Size() (int, int) {
	return se.width, se.height
}

// Contains reports whether mask position (x, y) is set.
func (se *StructuringElement) Contains(x, y int) bool {
	if x < 0 || y < 0 || x >= se.width || y >= se.height {
		return false
	}
	return se.mask[y*se.width+x]
}

// offsets lists the set positions relative to the anchor.
func (se *StructuringElement) offsets() [][2]int {
	var offs [][2]int
	for y := 0; y < se.height; y++ {
		for x := 0; x < se.width; x++ {
			if se.mask[y*se.width+x] {
				offs = append(offs, [2]int{x - se.width/2, y - se.height/2})
			}
		}
	}
	return offs
}

// Erode replaces each sample with the minimum under the element, repeated
// iterations times. Element positions past the border read as 0, so
// foreground touching the border is eroded too.
func Erode(buf *Buffer, se *StructuringElement, iterations int) (*Buffer, error) {
	return morph(buf, se, iterations, true)
}

// Dilate replaces each sample with the maximum under the element, repeated
// iterations times. Element positions past the border are ignored.
func Dilate(buf *Buffer, se *StructuringElement, iterations int) (*Buffer, error) {
	return morph(buf, se, iterations, false)
}

// Open is an erosion followed by a dilation with the same element.
func Open(buf *Buffer, se *StructuringElement, iterations int) (*Buffer, error) {
	eroded, err := Erode(buf, se, iterations)
	if err != nil {
		return nil, err
	}
	return Dilate(eroded, se, iterations)
}

// Close is a dilation followed by an erosion with the same element.
func Close(buf *Buffer, se *StructuringElement, iterations int) (*Buffer, error) {
	dilated, err := Dilate(buf, se, iterations)
	if err != nil {
		return nil, err
	}
	return Erode(dilated, se, iterations)
}

func morph(buf *Buffer, se *StructuringElement, iterations int, erode bool) (*Buffer, error) {
	if se == nil {
		return nil, fmt.Errorf("nil structuring element: %w", ErrInvalidParameter)
	}
	if iterations < 1 {
		return nil, fmt.Errorf("iterations %d: %w", iterations, ErrInvalidParameter)
	}
	offs := se.offsets()
	cur := buf
	for n := 0; n < iterations; n++ {
		cur = morphPass(cur, offs, erode)
	}
	return cur, nil
}

// morphPass reads src only, so every output pixel sees the previous pass.
func morphPass(src *Buffer, offs [][2]int, erode bool) *Buffer {
	out := newLike(src)
	ch := src.Channels
	parallelRows(src.Height, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < src.Width; x++ {
				o := src.Offset(x, y)
				for c := 0; c < ch; c++ {
					var v uint8
					if erode {
						v = 255
					}
					for _, d := range offs {
						sx, sy := x+d[0], y+d[1]
						if !src.In(sx, sy) {
							if erode {
								v = 0
								break
							}
							continue
						}
						s := src.Pix[src.Offset(sx, sy)+c]
						if erode && s < v {
							v = s
						} else if !erode && s > v {
							v = s
						}
					}
					out.Pix[o+c] = v
				}
			}
		}
	})
	return out
}
