package raster

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// minRowsPerWorker keeps tiny buffers on the calling goroutine.
const minRowsPerWorker = 16

// parallelRows calls fn over contiguous row ranges [start, end) covering
// [0, rows). Ranges never overlap, so fn may write its own output rows freely.
func parallelRows(rows int, fn func(start, end int)) {
	if rows <= 0 {
		return
	}
	workers := min(runtime.GOMAXPROCS(0), (rows+minRowsPerWorker-1)/minRowsPerWorker)
	if workers <= 1 {
		fn(0, rows)
		return
	}
	chunk := (rows + workers - 1) / workers
	var g errgroup.Group
	g.SetLimit(workers)
	for start := 0; start < rows; start += chunk {
		start := start
		end := min(start+chunk, rows)
		g.Go(func() error {
			fn(start, end)
			return nil
		})
	}
	// workers cannot fail; Wait only joins them
	g.Wait()
}
