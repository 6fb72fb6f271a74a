package build

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
)

// DefaultJobs is the parallelism passed to the compile step when the
// configuration leaves it at zero: the number of logical CPUs.
func DefaultJobs() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		return runtime.NumCPU()
	}
	return n
}
