package parallel

import (
	"runtime"
)

// Workload describes what dominates the cost of one item.
type Workload string

const (
	// CPUBound items are limited by computation, such as parsing text
	// already in memory.
	CPUBound Workload = "cpu-bound"
	// IOBound items mostly wait on the disk or network.
	IOBound Workload = "io-bound"
	// FileProcessing items read a file and then parse it.
	FileProcessing Workload = "file-processing"
)

// maxWorkers caps every pool regardless of core count.
const maxWorkers = 64

var numCPU = runtime.NumCPU

// CalculateWorkers returns the pool size for numItems items of kind.
// It is never more than numItems and at least 1 for a non-empty input.
func CalculateWorkers(numItems int, kind Workload) int {
	if numItems <= 0 {
		return 0
	}

	cores := numCPU()
	var workers int
	switch kind {
	case CPUBound:
		workers = cores
	case IOBound:
		workers = cores * 4
	default:
		workers = cores * 2
	}

	workers = min(workers, maxWorkers, numItems)
	return max(workers, 1)
}
