package util

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// DefaultWorkers picks a download worker pool size from the machine's
// logical core count. A machine with little free memory gets fewer
// workers since each worker buffers a media segment.
func DefaultWorkers() int {
	n := runtime.NumCPU()
	if counts, err := cpu.Counts(true); err == nil && counts > 0 {
		n = counts
	}
	workers := n / 2
	if workers < 2 {
		workers = 2
	}
	if workers > 8 {
		workers = 8
	}
	if vm, err := mem.VirtualMemory(); err == nil && vm.Total < 2<<30 {
		workers = 2
	}
	return workers
}

// DefaultSplit picks the per-file connection count handed to the
// external download manager.
func DefaultSplit() int {
	n := runtime.NumCPU()
	if counts, err := cpu.Counts(true); err == nil && counts > 0 {
		n = counts
	}
	split := n
	if split < 4 {
		split = 4
	}
	if split > 16 {
		split = 16
	}
	return split
}

// DefaultDanmakuDensity caps how many overlay comments may be on
// screen at once. Rendering cost grows with lane count, so low-core
// machines get a smaller canvas budget.
func DefaultDanmakuDensity() int {
	n := runtime.NumCPU()
	if counts, err := cpu.Counts(false); err == nil && counts > 0 {
		n = counts
	}
	switch {
	case n <= 2:
		return 12
	case n <= 4:
		return 18
	default:
		return 25
	}
}
