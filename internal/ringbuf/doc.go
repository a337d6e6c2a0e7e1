// Package ringbuf provides an auto-growing circular byte queue.
//
// Buffer is the bridge between in-process pipeline stages, which write
// synchronously, and non-blocking descriptors, which drain opportunistically.
// Its BottomView method returns a contiguous slice suitable for a single
// write(2) syscall, so the pipeline engine never needs to copy bytes out of
// the ring before handing them to the kernel.
//
// Growth doubles capacity (starting at 1024) and never shrinks; Clear resets
// occupancy without releasing the backing array. None of this is safe for
// concurrent use — callers serialize access themselves, the same way the
// pipeline engine's multiplex loop does.
package ringbuf
