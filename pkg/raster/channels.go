package raster

import (
	"fmt"
	"math"
)

// Split returns one single-channel buffer per channel of buf, in order.
func Split(buf *Buffer) []*Buffer {
	n := buf.Width * buf.Height
	planes := make([]*Buffer, buf.Channels)
	for c := range planes {
		p := &Buffer{Width: buf.Width, Height: buf.Height, Channels: 1, Pix: make([]uint8, n)}
		for i := 0; i < n; i++ {
			p.Pix[i] = buf.Pix[i*buf.Channels+c]
		}
		planes[c] = p
	}
	return planes
}

// Merge interleaves single-channel planes of equal size into one buffer.
func Merge(planes []*Buffer) (*Buffer, error) {
	if len(planes) == 0 {
		return nil, fmt.Errorf("merge of no planes: %w", ErrInvalidParameter)
	}
	if len(planes) != 1 && len(planes) != 3 {
		return nil, fmt.Errorf("merge of %d planes: %w", len(planes), ErrInvalidChannelCount)
	}
	first := planes[0]
	for i, p := range planes {
		if p.Channels != 1 {
			return nil, fmt.Errorf("plane %d has %d channels: %w", i, p.Channels, ErrInvalidChannelCount)
		}
		if !p.SameSize(first) {
			return nil, fmt.Errorf("plane %d is %dx%d, plane 0 is %dx%d: %w",
				i, p.Width, p.Height, first.Width, first.Height, ErrChannelSizeMismatch)
		}
	}
	ch := len(planes)
	out := &Buffer{Width: first.Width, Height: first.Height, Channels: ch, Pix: make([]uint8, len(first.Pix)*ch)}
	for c, p := range planes {
		for i, v := range p.Pix {
			out.Pix[i*ch+c] = v
		}
	}
	return out, nil
}

// zip applies fn to matching samples of a and b.
func zip(a, b *Buffer, fn func(x, y uint8) uint8) (*Buffer, error) {
	if err := checkSameShape(a, b); err != nil {
		return nil, err
	}
	out := newLike(a)
	stride := a.Stride()
	parallelRows(a.Height, func(start, end int) {
		for i := start * stride; i < end*stride; i++ {
			out.Pix[i] = fn(a.Pix[i], b.Pix[i])
		}
	})
	return out, nil
}

// Add sums a and b sample by sample, saturating at 255.
func Add(a, b *Buffer) (*Buffer, error) {
	return zip(a, b, func(x, y uint8) uint8 {
		return saturateInt(int(x) + int(y))
	})
}

// Subtract computes a - b sample by sample, saturating at 0.
func Subtract(a, b *Buffer) (*Buffer, error) {
	return zip(a, b, func(x, y uint8) uint8 {
		return saturateInt(int(x) - int(y))
	})
}

// AddScalar adds k to every sample with saturation. Negative k darkens.
func AddScalar(buf *Buffer, k int) *Buffer {
	var lut [256]uint8
	for i := range lut {
		lut[i] = saturateInt(i + k)
	}
	return applyLUT(buf, &lut)
}

// Blend computes saturate(alpha*a + beta*b + gamma) per sample, rounded to
// the nearest integer. a and b must share dimensions and channel count.
func Blend(a, b *Buffer, alpha, beta, gamma float64) (*Buffer, error) {
	if math.IsNaN(alpha) || math.IsNaN(beta) || math.IsNaN(gamma) {
		return nil, fmt.Errorf("blend weights: %w", ErrInvalidParameter)
	}
	return zip(a, b, func(x, y uint8) uint8 {
		return saturate(alpha*float64(x) + beta*float64(y) + gamma)
	})
}
