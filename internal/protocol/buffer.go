package protocol

// initialBufferSize is the first allocation for a connection's buffer.
// Most commands fit in one read at this size.
const initialBufferSize = 64

// Buffer accumulates raw bytes from one connection between decode
// attempts. Two cursors partition it: [0, consumed) has been decoded
// into commands, [consumed, filled) is the readable window waiting for
// the decoder, and [filled, cap) is where the next socket read lands.
//
// The buffer performs no I/O and no locking. Each session owns exactly
// one and drives it from a single goroutine.
type Buffer struct {
	data     []byte
	consumed int
	filled   int
}

func NewBuffer() *Buffer {
	return &Buffer{}
}

// Grow ensures room for at least one more read. An empty buffer gets a
// small initial allocation; once the filled region passes half of
// capacity the buffer doubles; otherwise the writable region left over
// is enough.
func (b *Buffer) Grow() {
	switch {
	case len(b.data) == 0:
		b.data = make([]byte, initialBufferSize)
	case b.filled > len(b.data)/2:
		grown := make([]byte, len(b.data)*2)
		copy(grown, b.data[:b.filled])
		b.data = grown
	}
}

// Reclaim rewinds both cursors to zero once every received byte has
// been consumed. This bounds growth for long-lived connections issuing
// many small commands; cursors never move backwards otherwise.
func (b *Buffer) Reclaim() {
	if b.consumed == b.filled {
		b.consumed = 0
		b.filled = 0
	}
}

// WritableSlice returns the region a socket read may fill. Call Grow
// first: a fresh buffer has no writable region until it is allocated.
func (b *Buffer) WritableSlice() []byte {
	return b.data[b.filled:]
}

// Commit records that a read placed n bytes at the front of the
// writable slice.
func (b *Buffer) Commit(n int) {
	b.filled += n
}

// ReadableWindow returns the received-but-undecoded bytes.
func (b *Buffer) ReadableWindow() []byte {
	return b.data[b.consumed:b.filled]
}

// Advance marks n bytes of the readable window as decoded.
func (b *Buffer) Advance(n int) {
	b.consumed += n
}

// Unconsumed reports how many readable bytes are waiting.
func (b *Buffer) Unconsumed() int {
	return b.filled - b.consumed
}
