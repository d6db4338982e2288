//go:build linux || darwin || freebsd

package arena

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// mapSlab reserves an anonymous, zero-filled backing slab for an arena
// region via mmap rather than the Go allocator, so a region's bytes live
// outside the tracing heap and are released with a single munmap instead of
// waiting on a GC cycle that will never visit them.
func mapSlab(size uintptr) ([]byte, error) {
	if size == 0 {
		return nil, nil
	}

	data, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("mmap slab of %d bytes: %w", size, err)
	}

	return data, nil
}

// unmapSlab releases a slab obtained from mapSlab. Errors are not fatal:
// the region header has already transitioned to RegionFreed by the time
// this runs, and a failed munmap just leaks address space rather than
// corrupting live state.
func unmapSlab(data []byte) error {
	if len(data) == 0 {
		return nil
	}

	return unix.Munmap(data)
}
