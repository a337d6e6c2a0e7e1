package ringbuf

import "fmt"

const initialCapacity = 1024

// Buffer is an auto-growing circular byte queue. The zero value is a valid,
// empty buffer with capacity 0; the first Write allocates initialCapacity
// bytes. Buffer never shrinks and is not safe for concurrent use.
type Buffer struct {
	data   []byte
	cap    int
	size   int
	bottom int

	growthHook func()
}

// New returns an empty buffer.
func New() *Buffer {
	return &Buffer{}
}

// SetGrowthHook registers fn to be called once per successful doubling
// reallocation. nil (the default) is a no-op; this lets a caller outside
// this package observe growth events, e.g. for a metrics counter, without
// the buffer itself depending on anything beyond the standard library.
func (b *Buffer) SetGrowthHook(fn func()) { b.growthHook = fn }

// Size reports current occupancy in bytes.
func (b *Buffer) Size() int { return b.size }

// Capacity reports the allocated backing array size.
func (b *Buffer) Capacity() int { return b.cap }

// Clear resets occupancy to zero without releasing the backing array.
func (b *Buffer) Clear() {
	b.size = 0
	b.bottom = 0
}

// BottomView returns the contiguous readable prefix of the buffer's logical
// content, suitable for a single write(2) syscall. Its length equals Size
// unless the content wraps past the end of the backing array, in which case
// it returns only the tail-to-end portion.
func (b *Buffer) BottomView() []byte {
	if b.size == 0 {
		return nil
	}
	end := b.bottom + b.size
	if end > b.cap {
		end = b.cap
	}
	return b.data[b.bottom:end]
}

// Advance consumes n bytes from the bottom of the buffer. n must not exceed
// Size; violating that is a contract error and panics, mirroring the other
// misuse assertions in this module.
func (b *Buffer) Advance(n int) {
	if n < 0 || n > b.size {
		panic(fmt.Sprintf("ringbuf: advance(%d) exceeds size %d", n, b.size))
	}
	b.size -= n
	if b.cap > 0 {
		b.bottom = (b.bottom + n) % b.cap
	} else {
		b.bottom = 0
	}
}

// Write appends p at the top of the buffer, growing the backing array by
// doubling (starting at initialCapacity) when the current capacity cannot
// hold the new total.
func (b *Buffer) Write(p []byte) {
	n := len(p)
	if n == 0 {
		return
	}
	b.growFor(n)

	if b.bottom+b.size > b.cap {
		// Content already wraps: the one free span sits in the middle,
		// right after the wrapped-around front portion.
		writePos := b.bottom + b.size - b.cap
		copy(b.data[writePos:], p)
	} else {
		writePos := b.bottom + b.size
		tailFit := b.cap - writePos
		if n <= tailFit {
			copy(b.data[writePos:], p)
		} else {
			copy(b.data[writePos:b.cap], p[:tailFit])
			copy(b.data[0:], p[tailFit:])
		}
	}
	b.size += n
}

// growFor ensures the buffer can hold size+extra bytes, reallocating and
// relocating wrapped content as needed.
func (b *Buffer) growFor(extra int) {
	need := b.size + extra
	if need <= b.cap {
		return
	}

	newCap := b.cap
	if newCap == 0 {
		newCap = initialCapacity
	}
	for newCap < need {
		newCap *= 2
	}

	newData := make([]byte, newCap)
	if b.bottom+b.size > b.cap {
		// Wrapped: relocate the physical tail segment [bottom, cap) to the
		// end of the new array, leaving the wrapped-around front segment
		// [0, frontLen) in place. This keeps the free region contiguous.
		tailLen := b.cap - b.bottom
		frontLen := b.size - tailLen
		copy(newData[newCap-tailLen:], b.data[b.bottom:b.cap])
		copy(newData[0:frontLen], b.data[0:frontLen])
		b.bottom = newCap - tailLen
	} else if b.size > 0 {
		copy(newData[b.bottom:b.bottom+b.size], b.data[b.bottom:b.bottom+b.size])
	}

	b.data = newData
	b.cap = newCap
	if b.growthHook != nil {
		b.growthHook()
	}
}
