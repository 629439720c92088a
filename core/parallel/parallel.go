// Package parallel provides bounded data-parallel loops over index
// ranges. It is used where a per-row computation over a large data set
// (the industry population is a million rows) benefits from fanning out
// across cores without any shared mutable state: each worker owns a
// disjoint half-open chunk of the index range.
package parallel

import (
	"runtime"
	"sync"
)

// Parallelize splits [0, n) into contiguous chunks, one per available
// CPU, and runs fn(start, end) on each chunk concurrently. fn must not
// write outside its chunk. Blocks until all chunks complete.
func Parallelize(n int, fn func(start, end int)) {
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		fn(0, n)
		return
	}

	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold runs fn sequentially when n is below
// threshold, avoiding goroutine overhead for small inputs.
func ParallelizeWithThreshold(n, threshold int, fn func(start, end int)) {
	if n < threshold {
		fn(0, n)
		return
	}
	Parallelize(n, fn)
}
