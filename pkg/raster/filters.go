package raster

import (
	"fmt"
	"math"
	"slices"
)

// Mean replaces each sample with the average of its k x k neighborhood.
// Edge pixels are replicated past the border.
func Mean(buf *Buffer, k int) (*Buffer, error) {
	if err := checkKernelSize(k); err != nil {
		return nil, err
	}
	box := make([]float64, k)
	for i := range box {
		box[i] = 1 / float64(k)
	}
	return fromFloats(buf, separable(buf, box, box), false), nil
}

// Gaussian smooths with a k x k Gaussian kernel. A sigma of 0 is derived from
// k as 0.3*((k-1)*0.5-1)+0.8.
func Gaussian(buf *Buffer, k int, sigma float64) (*Buffer, error) {
	if err := checkKernelSize(k); err != nil {
		return nil, err
	}
	if sigma < 0 || math.IsNaN(sigma) {
		return nil, fmt.Errorf("gaussian sigma %g: %w", sigma, ErrInvalidParameter)
	}
	kern := gaussianKernel1D(k, sigma)
	return fromFloats(buf, separable(buf, kern, kern), false), nil
}

// Median replaces each sample with the median of its k x k neighborhood,
// computed per channel with replicated borders.
func Median(buf *Buffer, k int) (*Buffer, error) {
	if err := checkKernelSize(k); err != nil {
		return nil, err
	}
	r := k / 2
	out := newLike(buf)
	parallelRows(buf.Height, func(start, end int) {
		window := make([]uint8, 0, k*k)
		for y := start; y < end; y++ {
			for x := 0; x < buf.Width; x++ {
				o := buf.Offset(x, y)
				for c := 0; c < buf.Channels; c++ {
					window = window[:0]
					for dy := -r; dy <= r; dy++ {
						for dx := -r; dx <= r; dx++ {
							window = append(window, buf.atClamped(x+dx, y+dy, c))
						}
					}
					slices.Sort(window)
					out.Pix[o+c] = window[len(window)/2]
				}
			}
		}
	})
	return out, nil
}

// Bilateral is an edge-preserving smoothing filter over a k x k window.
// Each neighbor is weighted by a spatial Gaussian (sigmaSpace) times a range
// Gaussian (sigmaColor) on its L1 intensity distance from the center pixel,
// summed over channels.
func Bilateral(buf *Buffer, k int, sigmaColor, sigmaSpace float64) (*Buffer, error) {
	if err := checkKernelSize(k); err != nil {
		return nil, err
	}
	if !(sigmaColor > 0) || !(sigmaSpace > 0) {
		return nil, fmt.Errorf("bilateral sigmas %g/%g: %w", sigmaColor, sigmaSpace, ErrInvalidParameter)
	}
	r := k / 2
	ch := buf.Channels
	spatial := make([]float64, k*k)
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			spatial[(dy+r)*k+dx+r] = math.Exp(-float64(dx*dx+dy*dy) / (2 * sigmaSpace * sigmaSpace))
		}
	}
	// range weights indexed by integer L1 distance
	rng := make([]float64, 255*ch+1)
	for d := range rng {
		rng[d] = math.Exp(-float64(d*d) / (2 * sigmaColor * sigmaColor))
	}
	out := newLike(buf)
	parallelRows(buf.Height, func(start, end int) {
		sums := make([]float64, ch)
		for y := start; y < end; y++ {
			for x := 0; x < buf.Width; x++ {
				o := buf.Offset(x, y)
				for c := range sums {
					sums[c] = 0
				}
				wsum := 0.0
				for dy := -r; dy <= r; dy++ {
					for dx := -r; dx <= r; dx++ {
						sx := clampInt(x+dx, 0, buf.Width-1)
						sy := clampInt(y+dy, 0, buf.Height-1)
						so := buf.Offset(sx, sy)
						dist := 0
						for c := 0; c < ch; c++ {
							d := int(buf.Pix[so+c]) - int(buf.Pix[o+c])
							if d < 0 {
								d = -d
							}
							dist += d
						}
						wgt := spatial[(dy+r)*k+dx+r] * rng[dist]
						for c := 0; c < ch; c++ {
							sums[c] += wgt * float64(buf.Pix[so+c])
						}
						wsum += wgt
					}
				}
				for c := 0; c < ch; c++ {
					out.Pix[o+c] = saturate(sums[c] / wsum)
				}
			}
		}
	})
	return out, nil
}
