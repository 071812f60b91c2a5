package opt

import (
	"unsafe"

	"golang.org/x/sys/cpu"
)

// CacheLineSize_ is used to pad hot lock words so that two locks never share
// a cache line. It is taken from `golang.org/x/sys/cpu` for the target arch.
const CacheLineSize_ = unsafe.Sizeof(cpu.CacheLinePad{})
