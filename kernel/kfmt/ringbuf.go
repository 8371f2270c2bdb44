package kfmt

import "io"

// ringBufferSize is large enough to hold a full 80x25 text screen worth of
// early boot output. It must be a power of 2.
const ringBufferSize = 2048

// ringBuffer keeps the most recent ringBufferSize bytes written to it. Once
// full, each write discards the oldest buffered byte.
type ringBuffer struct {
	buffer [ringBufferSize]byte

	// head and tail are free-running counters; the buffered bytes are
	// the ones in [tail, head).
	head, tail uint
}

// Len returns the number of buffered bytes.
func (rb *ringBuffer) Len() int {
	return int(rb.head - rb.tail)
}

// Write appends p to the buffer, overwriting the oldest data if needed.
func (rb *ringBuffer) Write(p []byte) (int, error) {
	for _, b := range p {
		rb.buffer[rb.head&(ringBufferSize-1)] = b
		rb.head++
		if rb.head-rb.tail > ringBufferSize {
			rb.tail++
		}
	}

	return len(p), nil
}

// Read drains up to len(p) buffered bytes into p. It returns io.EOF once the
// buffer is empty.
func (rb *ringBuffer) Read(p []byte) (int, error) {
	if rb.head == rb.tail {
		return 0, io.EOF
	}

	n := 0
	for ; n < len(p) && rb.tail != rb.head; n++ {
		p[n] = rb.buffer[rb.tail&(ringBufferSize-1)]
		rb.tail++
	}

	return n, nil
}
