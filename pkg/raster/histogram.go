package raster

import (
	"fmt"
	"math"
)

// Histogram counts samples per intensity.
type Histogram [256]int

// Total returns the number of counted samples.
func (h *Histogram) Total() int {
	n := 0
	for _, v := range h {
		n += v
	}
	return n
}

// CDF returns the running sum of the counts.
func (h *Histogram) CDF() [256]int {
	var cdf [256]int
	sum := 0
	for i, v := range h {
		sum += v
		cdf[i] = sum
	}
	return cdf
}

// ComputeHistogram counts the samples of one channel of buf.
func ComputeHistogram(buf *Buffer, channel int) (Histogram, error) {
	var h Histogram
	if channel < 0 || channel >= buf.Channels {
		return h, fmt.Errorf("channel %d of %d: %w", channel, buf.Channels, ErrInvalidParameter)
	}
	for i := channel; i < len(buf.Pix); i += buf.Channels {
		h[buf.Pix[i]]++
	}
	return h, nil
}

// Equalize spreads the intensities of a single-channel buffer over [0,255]
// using its cumulative distribution. Color images must be converted to gray
// (or split) first: equalizing B, G and R independently shifts hues.
// A constant buffer is returned unchanged.
func Equalize(buf *Buffer) (*Buffer, error) {
	if err := checkSingleChannel(buf); err != nil {
		return nil, err
	}
	hist, _ := ComputeHistogram(buf, 0)
	cdf := hist.CDF()
	total := len(buf.Pix)
	cdfMin := 0
	for _, v := range cdf {
		if v > 0 {
			cdfMin = v
			break
		}
	}
	if total == cdfMin {
		return buf.Clone(), nil
	}
	var lut [256]uint8
	scale := 255 / float64(total-cdfMin)
	for i, v := range cdf {
		lut[i] = saturate(math.Round(float64(v-cdfMin) * scale))
	}
	return applyLUT(buf, &lut), nil
}

// NormalizeMinMax linearly stretches buf so its smallest sample maps to lo
// and its largest to hi. A constant buffer maps entirely to lo.
func NormalizeMinMax(buf *Buffer, lo, hi int) (*Buffer, error) {
	if lo < 0 || lo > 255 || hi < 0 || hi > 255 {
		return nil, fmt.Errorf("normalize range [%d,%d]: %w", lo, hi, ErrInvalidParameter)
	}
	mn, mx := uint8(255), uint8(0)
	for _, v := range buf.Pix {
		mn = min(mn, v)
		mx = max(mx, v)
	}
	var lut [256]uint8
	for i := range lut {
		if mx == mn {
			lut[i] = uint8(lo)
			continue
		}
		t := float64(i-int(mn)) / float64(mx-mn)
		lut[i] = saturate(float64(lo) + t*float64(hi-lo))
	}
	return applyLUT(buf, &lut), nil
}

// RenderHistogram plots up to three histograms as overlaid bars on a white
// width x height BGR buffer. A lone histogram is drawn black; otherwise
// histogram i keeps channel i and dims the other two.
func RenderHistogram(hists []Histogram, width, height int) (*Buffer, error) {
	if len(hists) == 0 || len(hists) > 3 {
		return nil, fmt.Errorf("%d histograms: %w", len(hists), ErrInvalidParameter)
	}
	out, err := NewFilled(width, height, 3, 255)
	if err != nil {
		return nil, err
	}
	maxv := 1
	for _, h := range hists {
		for _, v := range h {
			maxv = max(maxv, v)
		}
	}
	for x := 0; x < width; x++ {
		bin := min(x*256/width, 255)
		for c, h := range hists {
			bar := int(math.Round(float64(h[bin]) / float64(maxv) * float64(height-1)))
			for y := 0; y < bar; y++ {
				o := out.Offset(x, height-1-y)
				if len(hists) == 1 {
					out.Pix[o+0], out.Pix[o+1], out.Pix[o+2] = 0, 0, 0
					continue
				}
				for k := 0; k < 3; k++ {
					if k != c {
						out.Pix[o+k] = min(out.Pix[o+k], 128)
					}
				}
			}
		}
	}
	return out, nil
}
