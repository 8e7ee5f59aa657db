package raster

import "math"

// gaussianKernel1D returns a normalized k-tap Gaussian. A sigma of 0 is
// derived from the kernel size.
func gaussianKernel1D(k int, sigma float64) []float64 {
	if sigma <= 0 {
		sigma = 0.3*(float64(k-1)*0.5-1) + 0.8
	}
	radius := k / 2
	kern := make([]float64, k)
	sum := 0.0
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-0.5 * float64(i*i) / (sigma * sigma))
		kern[i+radius] = v
		sum += v
	}
	for i := range kern {
		kern[i] /= sum
	}
	return kern
}

// separable convolves every channel of src with kx along rows and ky along
// columns, replicating edge pixels. The result is unrounded.
func separable(src *Buffer, kx, ky []float64) []float64 {
	w, h, ch := src.Width, src.Height, src.Channels
	rx, ry := len(kx)/2, len(ky)/2
	tmp := make([]float64, len(src.Pix))
	parallelRows(h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				o := src.Offset(x, y)
				for c := 0; c < ch; c++ {
					sum := 0.0
					for k := -rx; k <= rx; k++ {
						sum += float64(src.atClamped(x+k, y, c)) * kx[k+rx]
					}
					tmp[o+c] = sum
				}
			}
		}
	})
	out := make([]float64, len(src.Pix))
	stride := src.Stride()
	parallelRows(h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				o := src.Offset(x, y)
				for c := 0; c < ch; c++ {
					sum := 0.0
					for k := -ry; k <= ry; k++ {
						yy := clampInt(y+k, 0, h-1)
						sum += tmp[yy*stride+x*ch+c] * ky[k+ry]
					}
					out[o+c] = sum
				}
			}
		}
	})
	return out
}

// fromFloats rounds and saturates samples into a buffer shaped like like.
func fromFloats(like *Buffer, vals []float64, abs bool) *Buffer {
	out := newLike(like)
	stride := like.Stride()
	parallelRows(like.Height, func(start, end int) {
		for i := start * stride; i < end*stride; i++ {
			v := vals[i]
			if abs {
				v = math.Abs(v)
			}
			out.Pix[i] = saturate(v)
		}
	})
	return out
}
