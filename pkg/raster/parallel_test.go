package raster

import (
	"runtime"
	"sync"
	"testing"
)

func TestParallelRowsCoversEachRowOnce(t *testing.T) {
	prev := runtime.GOMAXPROCS(4)
	defer runtime.GOMAXPROCS(prev)
	for _, rows := range []int{0, 1, 15, 16, 17, 63, 64, 65, 1000} {
		var mu sync.Mutex
		seen := make([]int, rows)
		calls := 0
		parallelRows(rows, func(start, end int) {
			mu.Lock()
			defer mu.Unlock()
			calls++
			if start >= end {
				t.Errorf("rows=%d: empty range [%d,%d)", rows, start, end)
			}
			for y := start; y < end; y++ {
				seen[y]++
			}
		})
		for y, n := range seen {
			if n != 1 {
				t.Fatalf("rows=%d: row %d visited %d times", rows, y, n)
			}
		}
		if rows > 0 && calls > 4 {
			t.Fatalf("rows=%d: %d ranges for 4 workers", rows, calls)
		}
	}
}
