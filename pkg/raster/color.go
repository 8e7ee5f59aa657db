package raster

import (
	"fmt"
	"math"
	"strings"
)

// Space names the channel encoding of a buffer.
type Space int

const (
	Gray Space = iota
	BGR
	RGB
	HSV
)

func (s Space) String() string {
	switch s {
	case Gray:
		return "Gray"
	case BGR:
		return "BGR"
	case RGB:
		return "RGB"
	case HSV:
		return "HSV"
	}
	return fmt.Sprintf("Space(%d)", int(s))
}

// Channels returns the channel count a buffer in space s must have.
func (s Space) Channels() int {
	if s == Gray {
		return 1
	}
	return 3
}

// ParseSpace accepts the names printed by Space.String, case-insensitively.
func ParseSpace(name string) (Space, error) {
	for _, s := range []Space{Gray, BGR, RGB, HSV} {
		if strings.EqualFold(name, s.String()) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("color space %q: %w", name, ErrUnsupportedConversion)
}

// Luma weights (ITU-R BT.601).
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// Convert maps buf from one channel encoding to another. Supported pairs are
// BGR/RGB <-> Gray, BGR <-> RGB and BGR/RGB <-> HSV. HSV hue is stored as
// degrees/2 in [0,179]; saturation and value span [0,255].
func Convert(buf *Buffer, from, to Space) (*Buffer, error) {
	if buf.Channels != from.Channels() {
		return nil, fmt.Errorf("%s input with %d channels: %w", from, buf.Channels, ErrUnsupportedConversion)
	}
	if from == to {
		return buf.Clone(), nil
	}
	// r, g, b are the channel positions of the source (or target) layout.
	order := func(s Space) (r, g, b int) {
		if s == RGB {
			return 0, 1, 2
		}
		return 2, 1, 0
	}
	switch {
	case (from == BGR || from == RGB) && to == Gray:
		ri, gi, bi := order(from)
		return toGray(buf, ri, gi, bi), nil
	case from == Gray && (to == BGR || to == RGB):
		return fromGray(buf), nil
	case (from == BGR && to == RGB) || (from == RGB && to == BGR):
		return swapRB(buf), nil
	case (from == BGR || from == RGB) && to == HSV:
		ri, gi, bi := order(from)
		return toHSV(buf, ri, gi, bi), nil
	case from == HSV && (to == BGR || to == RGB):
		ri, gi, bi := order(to)
		return fromHSV(buf, ri, gi, bi), nil
	}
	return nil, fmt.Errorf("%s to %s: %w", from, to, ErrUnsupportedConversion)
}

func toGray(buf *Buffer, ri, gi, bi int) *Buffer {
	out := &Buffer{Width: buf.Width, Height: buf.Height, Channels: 1, Pix: make([]uint8, buf.Width*buf.Height)}
	parallelRows(buf.Height, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < buf.Width; x++ {
				i := buf.Offset(x, y)
				l := lumaR*float64(buf.Pix[i+ri]) + lumaG*float64(buf.Pix[i+gi]) + lumaB*float64(buf.Pix[i+bi])
				out.Pix[y*buf.Width+x] = saturate(l)
			}
		}
	})
	return out
}

func fromGray(buf *Buffer) *Buffer {
	out := &Buffer{Width: buf.Width, Height: buf.Height, Channels: 3, Pix: make([]uint8, len(buf.Pix)*3)}
	for i, v := range buf.Pix {
		out.Pix[3*i+0] = v
		out.Pix[3*i+1] = v
		out.Pix[3*i+2] = v
	}
	return out
}

func swapRB(buf *Buffer) *Buffer {
	out := newLike(buf)
	for i := 0; i < len(buf.Pix); i += 3 {
		out.Pix[i+0] = buf.Pix[i+2]
		out.Pix[i+1] = buf.Pix[i+1]
		out.Pix[i+2] = buf.Pix[i+0]
	}
	return out
}

func toHSV(buf *Buffer, ri, gi, bi int) *Buffer {
	out := newLike(buf)
	parallelRows(buf.Height, func(start, end int) {
		for i := start * buf.Stride(); i < end*buf.Stride(); i += 3 {
			h, s, v := rgbToHSV(buf.Pix[i+ri], buf.Pix[i+gi], buf.Pix[i+bi])
			out.Pix[i+0] = h
			out.Pix[i+1] = s
			out.Pix[i+2] = v
		}
	})
	return out
}

func fromHSV(buf *Buffer, ri, gi, bi int) *Buffer {
	out := newLike(buf)
	parallelRows(buf.Height, func(start, end int) {
		for i := start * buf.Stride(); i < end*buf.Stride(); i += 3 {
			r, g, b := hsvToRGB(buf.Pix[i+0], buf.Pix[i+1], buf.Pix[i+2])
			out.Pix[i+ri] = r
			out.Pix[i+gi] = g
			out.Pix[i+bi] = b
		}
	})
	return out
}

// rgbToHSV returns 8-bit HSV with hue halved to fit [0,179].
func rgbToHSV(r8, g8, b8 uint8) (h, s, v uint8) {
	r, g, b := float64(r8), float64(g8), float64(b8)
	mx := math.Max(r, math.Max(g, b))
	mn := math.Min(r, math.Min(g, b))
	d := mx - mn
	v = uint8(mx)
	if mx == 0 || d == 0 {
		return 0, 0, v
	}
	s = saturate(d * 255 / mx)
	var hue float64
	switch mx {
	case r:
		hue = 60 * (g - b) / d
	case g:
		hue = 120 + 60*(b-r)/d
	default:
		hue = 240 + 60*(r-g)/d
	}
	if hue < 0 {
		hue += 360
	}
	hh := int(math.Round(hue / 2))
	if hh >= 180 {
		hh -= 180
	}
	return uint8(hh), s, v
}

func hsvToRGB(h8, s8, v8 uint8) (r, g, b uint8) {
	if s8 == 0 {
		return v8, v8, v8
	}
	h := math.Mod(float64(h8)*2, 360) / 60
	s := float64(s8) / 255
	v := float64(v8)
	sector := math.Floor(h)
	f := h - sector
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))
	var rf, gf, bf float64
	switch int(sector) {
	case 0:
		rf, gf, bf = v, t, p
	case 1:
		rf, gf, bf = q, v, p
	case 2:
		rf, gf, bf = p, v, t
	case 3:
		rf, gf, bf = p, q, v
	case 4:
		rf, gf, bf = t, p, v
	default:
		rf, gf, bf = v, p, q
	}
	return saturate(rf), saturate(gf), saturate(bf)
}
