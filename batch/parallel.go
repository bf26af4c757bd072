package batch

import (
	"runtime"
	"sync"
)

// Parallelize splits [0, nbIterations) into contiguous ranges and runs work on
// each range in its own goroutine. maxCpus caps the number of ranges.
func Parallelize(nbIterations int, work func(int, int), maxCpus ...int) {
	if nbIterations <= 0 {
		return
	}

	nbTasks := runtime.NumCPU()
	if len(maxCpus) == 1 && maxCpus[0] > 0 {
		nbTasks = maxCpus[0]
	}
	nbIterationsPerCpus := nbIterations / nbTasks

	// more CPUs than tasks: a CPU will work on exactly one iteration
	if nbIterationsPerCpus < 1 {
		nbIterationsPerCpus = 1
		nbTasks = nbIterations
	}
	if nbTasks == 1 {
		work(0, nbIterations)
		return
	}

	var wg sync.WaitGroup

	extraTasks := nbIterations - (nbTasks * nbIterationsPerCpus)
	extraTasksOffset := 0

	for i := 0; i < nbTasks; i++ {
		wg.Add(1)
		_start := i*nbIterationsPerCpus + extraTasksOffset
		_end := _start + nbIterationsPerCpus
		if extraTasks > 0 {
			_end++
			extraTasks--
			extraTasksOffset++
		}
		go func() {
			work(_start, _end)
			wg.Done()
		}()
	}

	wg.Wait()
}

// chunks runs work over [0, n) in pieces of at most size elements, one piece
// per iteration of Parallelize.
func chunks(n, size int, work func(int, int)) {
	if n <= 0 {
		return
	}
	nbChunks := (n-1)/size + 1
	Parallelize(nbChunks, func(start, end int) {
		for c := start; c < end; c++ {
			lo := c * size
			hi := min(lo+size, n)
			work(lo, hi)
		}
	})
}
