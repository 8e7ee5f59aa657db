// Package raster implements pixel-level image operations over 8-bit raster
// buffers: color conversion, thresholding, morphology, smoothing filters,
// gradient edge detectors, geometric warps, histograms and channel arithmetic.
//
// Every operation reads its inputs without modifying them and returns a newly
// allocated Buffer owned by the caller.
package raster

import (
	"bytes"
	"fmt"
)

// Buffer is a row-major grid of 8-bit samples with 1 or 3 interleaved channels.
// Three-channel buffers are BGR unless a conversion says otherwise.
type Buffer struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// New allocates a zeroed buffer.
func New(width, height, channels int) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("size %dx%d: %w", width, height, ErrInvalidParameter)
	}
	if channels != 1 && channels != 3 {
		return nil, fmt.Errorf("%d channels: %w", channels, ErrInvalidChannelCount)
	}
	return &Buffer{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}, nil
}

// NewFilled allocates a buffer with every sample set to v.
func NewFilled(width, height, channels int, v uint8) (*Buffer, error) {
	b, err := New(width, height, channels)
	if err != nil {
		return nil, err
	}
	if v != 0 {
		for i := range b.Pix {
			b.Pix[i] = v
		}
	}
	return b, nil
}

// FromPix wraps a copy of pix as a buffer. len(pix) must equal width*height*channels.
func FromPix(width, height, channels int, pix []uint8) (*Buffer, error) {
	b, err := New(width, height, channels)
	if err != nil {
		return nil, err
	}
	if len(pix) != len(b.Pix) {
		return nil, fmt.Errorf("got %d samples for %dx%dx%d: %w", len(pix), width, height, channels, ErrInvalidParameter)
	}
	copy(b.Pix, pix)
	return b, nil
}

// newLike allocates a zeroed buffer shaped like b.
func newLike(b *Buffer) *Buffer {
	return &Buffer{
		Width:    b.Width,
		Height:   b.Height,
		Channels: b.Channels,
		Pix:      make([]uint8, len(b.Pix)),
	}
}

// Stride is the number of samples in one row.
func (b *Buffer) Stride() int {
	return b.Width * b.Channels
}

// Offset returns the index of the first sample of pixel (x, y).
func (b *Buffer) Offset(x, y int) int {
	return y*b.Width*b.Channels + x*b.Channels
}

// In reports whether (x, y) lies inside the buffer.
func (b *Buffer) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.Width && y < b.Height
}

// At returns channel c of pixel (x, y), or 0 outside the buffer.
func (b *Buffer) At(x, y, c int) uint8 {
	if !b.In(x, y) || c < 0 || c >= b.Channels {
		return 0
	}
	return b.Pix[b.Offset(x, y)+c]
}

// Set writes channel c of pixel (x, y). Writes outside the buffer are ignored.
func (b *Buffer) Set(x, y, c int, v uint8) {
	if !b.In(x, y) || c < 0 || c >= b.Channels {
		return
	}
	b.Pix[b.Offset(x, y)+c] = v
}

// atClamped reads with replicated borders.
func (b *Buffer) atClamped(x, y, c int) uint8 {
	x = clampInt(x, 0, b.Width-1)
	y = clampInt(y, 0, b.Height-1)
	return b.Pix[b.Offset(x, y)+c]
}

// Clone returns a deep copy of b.
func (b *Buffer) Clone() *Buffer {
	out := newLike(b)
	copy(out.Pix, b.Pix)
	return out
}

// SameSize reports whether b and o have the same width and height.
func (b *Buffer) SameSize(o *Buffer) bool {
	return b.Width == o.Width && b.Height == o.Height
}

// Equal reports whether b and o have the same shape and samples.
func (b *Buffer) Equal(o *Buffer) bool {
	if b == nil || o == nil {
		return b == o
	}
	return b.SameSize(o) && b.Channels == o.Channels && bytes.Equal(b.Pix, o.Pix)
}

// CountNonZero returns the number of pixels with at least one non-zero sample.
func (b *Buffer) CountNonZero() int {
	n := 0
	for i := 0; i < len(b.Pix); i += b.Channels {
		for c := 0; c < b.Channels; c++ {
			if b.Pix[i+c] != 0 {
				n++
				break
			}
		}
	}
	return n
}

func (b *Buffer) String() string {
	return fmt.Sprintf("raster.Buffer(%dx%d, %d ch)", b.Width, b.Height, b.Channels)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// saturate rounds v to the nearest integer and clamps it to [0,255].
func saturate(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

func saturateInt(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
