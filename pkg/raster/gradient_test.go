package raster

import (
	"errors"
	"slices"
	"testing"
)

// verticalStep is black on the left half and value v on the right half.
func verticalStep(t *testing.T, w, h int, v uint8) *Buffer {
	t.Helper()
	b, _ := New(w, h, 1)
	for y := 0; y < h; y++ {
		for x := w / 2; x < w; x++ {
			b.Set(x, y, 0, v)
		}
	}
	return b
}

func TestDerivKernels(t *testing.T) {
	smooth, d1, d2 := derivKernels(5)
	if !slices.Equal(smooth, []float64{1, 4, 6, 4, 1}) {
		t.Fatalf("smooth5 = %v", smooth)
	}
	if !slices.Equal(d1, []float64{-1, -2, 0, 2, 1}) {
		t.Fatalf("d1 5 = %v", d1)
	}
	if !slices.Equal(d2, []float64{1, 0, -2, 0, 1}) {
		t.Fatalf("d2 5 = %v", d2)
	}
	_, d1, _ = derivKernels(3)
	if !slices.Equal(d1, []float64{-1, 0, 1}) {
		t.Fatalf("d1 3 = %v", d1)
	}
}

func TestSobelAxes(t *testing.T) {
	src := verticalStep(t, 8, 6, 40)
	gx, err := Sobel(src, 1, 0, 3)
	if err != nil {
		t.Fatalf("Sobel x: %v", err)
	}
	// 3x3 Sobel over a 40-high step: (1+2+1)*40 = 160 on both sides of the edge
	if gx.At(3, 2, 0) != 160 || gx.At(4, 2, 0) != 160 {
		t.Fatalf("sobel x at edge = %d,%d; want 160", gx.At(3, 2, 0), gx.At(4, 2, 0))
	}
	if gx.At(0, 2, 0) != 0 || gx.At(7, 2, 0) != 0 {
		t.Fatalf("sobel x away from edge is non-zero")
	}
	gy, _ := Sobel(src, 0, 1, 3)
	if gy.CountNonZero() != 0 {
		t.Fatalf("sobel y responded to a vertical edge")
	}
	strong, _ := Sobel(verticalStep(t, 8, 6, 200), 1, 0, 3)
	if strong.At(3, 2, 0) != 255 {
		t.Fatalf("sobel response not saturated: %d", strong.At(3, 2, 0))
	}
}

func TestSobelValidation(t *testing.T) {
	src, _ := New(4, 4, 1)
	if _, err := Sobel(src, 0, 0, 3); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("order 0,0 error = %v", err)
	}
	if _, err := Sobel(src, 2, 0, 3); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("order 2 error = %v", err)
	}
	for _, k := range []int{0, 2, 9} {
		if _, err := Sobel(src, 1, 0, k); !errors.Is(err, ErrInvalidKernelSize) {
			t.Fatalf("ksize %d error = %v", k, err)
		}
	}
}

func TestLaplacian(t *testing.T) {
	flat, _ := NewFilled(6, 6, 3, 77)
	out, err := Laplacian(flat, 1)
	if err != nil {
		t.Fatalf("Laplacian: %v", err)
	}
	if out.CountNonZero() != 0 {
		t.Fatalf("laplacian of a constant image is non-zero")
	}
	dot, _ := New(5, 5, 1)
	dot.Set(2, 2, 0, 50)
	out, _ = Laplacian(dot, 1)
	if out.At(2, 2, 0) != 200 || out.At(1, 2, 0) != 50 || out.At(1, 1, 0) != 0 {
		t.Fatalf("laplacian of a dot: center %d, side %d, diagonal %d", out.At(2, 2, 0), out.At(1, 2, 0), out.At(1, 1, 0))
	}
	out, _ = Laplacian(dot, 3)
	if out.At(2, 2, 0) != 255 || out.At(1, 1, 0) != 100 || out.At(1, 2, 0) != 0 {
		t.Fatalf("3x3 laplacian of a dot: center %d, diagonal %d, side %d", out.At(2, 2, 0), out.At(1, 1, 0), out.At(1, 2, 0))
	}
}

func TestSharpenDarkensEdges(t *testing.T) {
	src := verticalStep(t, 8, 4, 100)
	out, err := Sharpen(src)
	if err != nil {
		t.Fatalf("Sharpen: %v", err)
	}
	if out.At(4, 1, 0) != 0 || out.At(6, 1, 0) != 100 {
		t.Fatalf("sharpen: edge %d, interior %d", out.At(4, 1, 0), out.At(6, 1, 0))
	}
}

func TestCannyBlackImageHasNoEdges(t *testing.T) {
	for _, size := range [][2]int{{1, 1}, {5, 3}, {32, 32}} {
		src, _ := New(size[0], size[1], 1)
		for _, th := range [][2]float64{{0, 0}, {10, 50}, {100, 100}} {
			out, err := Canny(src, th[0], th[1])
			if err != nil {
				t.Fatalf("Canny: %v", err)
			}
			if out.CountNonZero() != 0 {
				t.Fatalf("canny on black %v with %v found edges", size, th)
			}
		}
	}
}

func TestCannySquare(t *testing.T) {
	src, _ := New(32, 32, 3)
	for y := 8; y < 24; y++ {
		for x := 8; x < 24; x++ {
			for c := 0; c < 3; c++ {
				src.Set(x, y, c, 220)
			}
		}
	}
	out, err := Canny(src, 50, 150)
	if err != nil {
		t.Fatalf("Canny: %v", err)
	}
	if out.Channels != 1 {
		t.Fatalf("canny output has %d channels", out.Channels)
	}
	for _, v := range out.Pix {
		if v != 0 && v != 255 {
			t.Fatalf("canny output not binary: %d", v)
		}
	}
	// edges along the boundary, nothing in the flat middle or far corner
	if out.At(16, 16, 0) != 0 || out.At(1, 1, 0) != 0 {
		t.Fatalf("canny marked flat regions")
	}
	found := false
	for x := 6; x <= 9; x++ {
		if out.At(x, 16, 0) == 255 {
			found = true
		}
	}
	if !found {
		t.Fatalf("canny missed the left edge of the square")
	}
}

func TestCannyValidation(t *testing.T) {
	src, _ := New(4, 4, 1)
	if _, err := Canny(src, 100, 50); !errors.Is(err, ErrInvalidThresholds) {
		t.Fatalf("low > high error = %v", err)
	}
	if _, err := Canny(src, -1, 50); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("negative threshold error = %v", err)
	}
}
