package raster

import (
	"fmt"
	"math"
)

// binomial returns the n-th row of Pascal's triangle (n+1 taps).
func binomial(n int) []float64 {
	row := []float64{1}
	for i := 0; i < n; i++ {
		next := make([]float64, len(row)+1)
		for j, v := range row {
			next[j] += v
			next[j+1] += v
		}
		row = next
	}
	return row
}

func convolve1D(a, b []float64) []float64 {
	out := make([]float64, len(a)+len(b)-1)
	for i, av := range a {
		for j, bv := range b {
			out[i+j] += av * bv
		}
	}
	return out
}

// derivKernels returns the separable smoothing, first and second derivative
// taps for an aperture of ksize (1, 3, 5 or 7). ksize 1 uses no smoothing.
func derivKernels(ksize int) (smooth, d1, d2 []float64) {
	if ksize == 1 {
		return []float64{1}, []float64{-1, 0, 1}, []float64{1, -2, 1}
	}
	smooth = binomial(ksize - 1)
	d1 = convolve1D(binomial(ksize-3), []float64{-1, 0, 1})
	d2 = convolve1D(binomial(ksize-3), []float64{1, -2, 1})
	return smooth, d1, d2
}

func checkAperture(ksize int) error {
	switch ksize {
	case 1, 3, 5, 7:
		return nil
	}
	return fmt.Errorf("aperture %d (want 1, 3, 5 or 7): %w", ksize, ErrInvalidKernelSize)
}

// Sobel computes the dx-th derivative along x and the dy-th along y (each 0
// or 1, not both 0) with an aperture of ksize. The absolute response is
// saturated to [0,255], per channel.
func Sobel(buf *Buffer, dx, dy, ksize int) (*Buffer, error) {
	if dx < 0 || dx > 1 || dy < 0 || dy > 1 || dx+dy == 0 {
		return nil, fmt.Errorf("sobel derivative order (%d,%d): %w", dx, dy, ErrInvalidParameter)
	}
	if err := checkAperture(ksize); err != nil {
		return nil, err
	}
	smooth, d1, _ := derivKernels(ksize)
	kx, ky := smooth, smooth
	if dx == 1 {
		kx = d1
	}
	if dy == 1 {
		ky = d1
	}
	return fromFloats(buf, separable(buf, kx, ky), true), nil
}

// Laplacian sums the second derivatives along x and y. ksize 1 is the
// 4-neighbor kernel [0 1 0; 1 -4 1; 0 1 0]. The absolute response is saturated.
func Laplacian(buf *Buffer, ksize int) (*Buffer, error) {
	if err := checkAperture(ksize); err != nil {
		return nil, err
	}
	smooth, _, d2 := derivKernels(ksize)
	xx := separable(buf, d2, smooth)
	yy := separable(buf, smooth, d2)
	for i := range xx {
		xx[i] += yy[i]
	}
	return fromFloats(buf, xx, true), nil
}

// Sharpen subtracts the Laplacian edge response from buf.
func Sharpen(buf *Buffer) (*Buffer, error) {
	edges, err := Laplacian(buf, 1)
	if err != nil {
		return nil, err
	}
	return Subtract(buf, edges)
}

const cannySigma = 1.4

// Canny detects edges with Gaussian smoothing, Sobel gradients, non-maximum
// suppression and hysteresis. Pixels whose suppressed magnitude exceeds high
// are edges; pixels above low are edges when 8-connected to one. The result
// is a single-channel 0/255 buffer. Three-channel input is treated as BGR.
func Canny(buf *Buffer, low, high float64) (*Buffer, error) {
	if low < 0 || high < 0 || math.IsNaN(low) || math.IsNaN(high) {
		return nil, fmt.Errorf("canny thresholds %g/%g: %w", low, high, ErrInvalidParameter)
	}
	if low > high {
		return nil, fmt.Errorf("canny thresholds %g > %g: %w", low, high, ErrInvalidThresholds)
	}
	gray := buf
	if buf.Channels == 3 {
		var err error
		if gray, err = Convert(buf, BGR, Gray); err != nil {
			return nil, err
		}
	}
	smoothed, err := Gaussian(gray, 5, cannySigma)
	if err != nil {
		return nil, err
	}
	smooth, d1, _ := derivKernels(3)
	gx := separable(smoothed, d1, smooth)
	gy := separable(smoothed, smooth, d1)

	w, h := gray.Width, gray.Height
	mag := make([]float64, w*h)
	for i := range mag {
		mag[i] = math.Hypot(gx[i], gy[i])
	}
	nms := suppressNonMaxima(mag, gx, gy, w, h)
	return hysteresis(nms, w, h, low, high), nil
}

// suppressNonMaxima zeroes magnitudes that are not a local maximum along the
// gradient direction, quantized to 0, 45, 90 or 135 degrees.
func suppressNonMaxima(mag, gx, gy []float64, w, h int) []float64 {
	out := make([]float64, len(mag))
	at := func(x, y int) float64 {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		return mag[y*w+x]
	}
	parallelRows(h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				i := y*w + x
				m := mag[i]
				if m == 0 {
					continue
				}
				angle := math.Atan2(gy[i], gx[i]) * 180 / math.Pi
				if angle < 0 {
					angle += 180
				}
				var n1, n2 float64
				switch {
				case angle < 22.5 || angle >= 157.5:
					n1, n2 = at(x-1, y), at(x+1, y)
				case angle < 67.5:
					n1, n2 = at(x-1, y-1), at(x+1, y+1)
				case angle < 112.5:
					n1, n2 = at(x, y-1), at(x, y+1)
				default:
					n1, n2 = at(x+1, y-1), at(x-1, y+1)
				}
				if m > n1 && m >= n2 {
					out[i] = m
				}
			}
		}
	})
	return out
}

// hysteresis runs on one goroutine: connectivity crosses row partitions.
func hysteresis(mag []float64, w, h int, low, high float64) *Buffer {
	out := &Buffer{Width: w, Height: h, Channels: 1, Pix: make([]uint8, w*h)}
	var stack []int
	for i, m := range mag {
		if m > high {
			out.Pix[i] = 255
			stack = append(stack, i)
		}
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*w + nx
				if out.Pix[j] == 0 && mag[j] > low {
					out.Pix[j] = 255
					stack = append(stack, j)
				}
			}
		}
	}
	return out
}
