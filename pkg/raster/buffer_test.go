package raster

import (
	"errors"
	"math/rand/v2"
	"testing"
)

// makeNoise returns a deterministic pseudo-random buffer.
func makeNoise(t *testing.T, w, h, ch int, seed uint64) *Buffer {
	t.Helper()
	b, err := New(w, h, ch)
	if err != nil {
		t.Fatalf("New(%d,%d,%d): %v", w, h, ch, err)
	}
	r := rand.New(rand.NewPCG(seed, 42))
	for i := range b.Pix {
		b.Pix[i] = uint8(r.IntN(256))
	}
	return b
}

func mustFromPix(t *testing.T, w, h, ch int, pix []uint8) *Buffer {
	t.Helper()
	b, err := FromPix(w, h, ch, pix)
	if err != nil {
		t.Fatalf("FromPix: %v", err)
	}
	return b
}

func TestNewValidation(t *testing.T) {
	cases := []struct {
		w, h, ch int
		want     error
	}{
		{0, 4, 1, ErrInvalidParameter},
		{4, -1, 1, ErrInvalidParameter},
		{4, 4, 2, ErrInvalidChannelCount},
		{4, 4, 4, ErrInvalidChannelCount},
		{4, 4, 1, nil},
		{4, 4, 3, nil},
	}
	for _, c := range cases {
		b, err := New(c.w, c.h, c.ch)
		if !errors.Is(err, c.want) {
			t.Fatalf("New(%d,%d,%d) error = %v; want %v", c.w, c.h, c.ch, err, c.want)
		}
		if err == nil && len(b.Pix) != c.w*c.h*c.ch {
			t.Fatalf("New(%d,%d,%d) has %d samples", c.w, c.h, c.ch, len(b.Pix))
		}
	}
}

func TestAccessorsAreBoundsChecked(t *testing.T) {
	b, _ := New(3, 2, 3)
	b.Set(2, 1, 0, 7)
	b.Set(3, 1, 0, 9)
	b.Set(-1, 0, 0, 9)
	b.Set(0, 0, 3, 9)
	if got := b.At(2, 1, 0); got != 7 {
		t.Fatalf("At(2,1,0) = %d; want 7", got)
	}
	if got := b.At(3, 1, 0); got != 0 {
		t.Fatalf("At outside = %d; want 0", got)
	}
	if n := b.CountNonZero(); n != 1 {
		t.Fatalf("stray writes landed: CountNonZero = %d", n)
	}
	if off := b.Offset(2, 1); off != 15 {
		t.Fatalf("Offset(2,1) = %d; want 15", off)
	}
}

func TestFromPixCopiesAndValidates(t *testing.T) {
	pix := []uint8{1, 2, 3, 4}
	b := mustFromPix(t, 2, 2, 1, pix)
	pix[0] = 99
	if b.Pix[0] != 1 {
		t.Fatalf("FromPix aliases its input")
	}
	if _, err := FromPix(2, 2, 1, []uint8{1, 2, 3}); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("short pix error = %v", err)
	}
}

func TestCloneEqual(t *testing.T) {
	b := makeNoise(t, 5, 4, 3, 1)
	c := b.Clone()
	if !b.Equal(c) {
		t.Fatalf("clone differs")
	}
	c.Pix[0]++
	if b.Equal(c) {
		t.Fatalf("clone shares samples")
	}
}

func TestParallelRowsCoversEveryRow(t *testing.T) {
	for _, rows := range []int{1, 15, 16, 17, 100, 1001} {
		seen := make([]int, rows)
		parallelRows(rows, func(start, end int) {
			for y := start; y < end; y++ {
				seen[y]++
			}
		})
		for y, n := range seen {
			if n != 1 {
				t.Fatalf("rows=%d: row %d visited %d times", rows, y, n)
			}
		}
	}
}
