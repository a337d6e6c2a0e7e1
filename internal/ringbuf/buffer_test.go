package ringbuf

import (
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer_FIFORoundTrip(t *testing.T) {
	// S1: write 128 little-endian uint64 values 0..127, capacity becomes
	// 1024, drain recovers them in order.
	b := New()
	for i := 0; i < 128; i++ {
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], uint64(i))
		b.Write(tmp[:])
	}
	require.Equal(t, 1024, b.Capacity())
	require.Equal(t, 1024, b.Size())

	for i := 0; i < 128; i++ {
		view := b.BottomView()
		require.GreaterOrEqual(t, len(view), 8)
		got := binary.LittleEndian.Uint64(view[:8])
		assert.Equal(t, uint64(i), got)
		b.Advance(8)
	}

	assert.Equal(t, 0, b.Size())
	assert.Empty(t, b.BottomView())
	assert.Equal(t, 1024, b.Capacity())
}

func TestBuffer_GrowthContiguous(t *testing.T) {
	// S2 (test2-a): fresh buffer, no wrap.
	b := New()
	b.Write(make([]byte, 256))
	b.Advance(256)
	b.Write(make([]byte, 512))
	b.Write(make([]byte, 1024))

	assert.Equal(t, 1536, b.Size())
	assert.Equal(t, 1536, len(b.BottomView()))
	assert.Equal(t, 2048, b.Capacity())
}

func TestBuffer_GrowthWrapped(t *testing.T) {
	// S2 (test2-b): fresh buffer, wrapped state at growth time.
	b := New()
	b.Write(make([]byte, 768))
	b.Advance(768)
	b.Write(make([]byte, 512))
	b.Write(make([]byte, 1024))

	assert.Equal(t, 1536, b.Size())
	assert.Equal(t, 256, len(b.BottomView()))
	assert.Equal(t, 2048, b.Capacity())
}

func TestBuffer_NeverShrinks(t *testing.T) {
	b := New()
	b.Write(make([]byte, 5000))
	peak := b.Capacity()
	for b.Size() > 0 {
		n := len(b.BottomView())
		b.Advance(n)
	}
	b.Clear()
	assert.Equal(t, peak, b.Capacity())
	assert.Equal(t, 0, b.Size())
}

func TestBuffer_RandomizedInterleavedWritesAndReads(t *testing.T) {
	b := New()
	var want []byte
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 500; i++ {
		if rng.Intn(3) != 0 || b.Size() == 0 {
			n := rng.Intn(300) + 1
			chunk := make([]byte, n)
			rng.Read(chunk)
			b.Write(chunk)
			want = append(want, chunk...)
		} else {
			n := rng.Intn(b.Size()) + 1
			view := b.BottomView()
			if n > len(view) {
				n = len(view)
			}
			got := append([]byte(nil), view[:n]...)
			assert.Equal(t, want[:n], got)
			want = want[n:]
			b.Advance(n)
		}

		// size invariant: occupancy never exceeds capacity, capacity is a
		// power-of-two multiple of 1024 (or 0 before first write).
		assert.LessOrEqual(t, b.Size(), b.Capacity())
		if b.Capacity() > 0 {
			assert.Equal(t, 0, b.Capacity()%1024)
		}
	}

	// drain remainder and confirm full FIFO equivalence
	for b.Size() > 0 {
		view := b.BottomView()
		n := len(view)
		assert.Equal(t, want[:n], view)
		want = want[n:]
		b.Advance(n)
	}
	assert.Empty(t, want)
}

func TestBuffer_BottomViewLength(t *testing.T) {
	b := New()
	b.Write(make([]byte, 100))
	b.Advance(50)
	b.Write(make([]byte, 1000))

	view := b.BottomView()
	if b.Capacity()-50 >= b.Size() {
		assert.Equal(t, b.Size(), len(view))
	} else {
		assert.Equal(t, b.Capacity()-50, len(view))
	}
}
