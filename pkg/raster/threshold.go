package raster

import "fmt"

// Threshold binarizes a single-channel buffer: samples above limit become
// maxValue, everything else 0.
func Threshold(buf *Buffer, limit, maxValue int) (*Buffer, error) {
	if err := checkSingleChannel(buf); err != nil {
		return nil, err
	}
	if limit < 0 || limit > 255 {
		return nil, fmt.Errorf("threshold limit %d: %w", limit, ErrInvalidParameter)
	}
	if maxValue < 0 || maxValue > 255 {
		return nil, fmt.Errorf("threshold max value %d: %w", maxValue, ErrInvalidParameter)
	}
	var lut [256]uint8
	for i := limit + 1; i < 256; i++ {
		lut[i] = uint8(maxValue)
	}
	return applyLUT(buf, &lut), nil
}

// applyLUT maps every sample of buf through lut.
func applyLUT(buf *Buffer, lut *[256]uint8) *Buffer {
	out := newLike(buf)
	stride := buf.Stride()
	parallelRows(buf.Height, func(start, end int) {
		for i := start * stride; i < end*stride; i++ {
			out.Pix[i] = lut[buf.Pix[i]]
		}
	})
	return out
}
