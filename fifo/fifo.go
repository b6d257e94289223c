/*
 * Copyright 2026 the recfifo authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package fifo

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// Supported length-prefix widths. A 1-byte prefix frames records of 0-255
// payload bytes, a 2-byte prefix frames 0-65535.
const (
	PrefixWidth1 = 1
	PrefixWidth2 = 2
)

// Fifo is a fixed-capacity circular byte buffer holding length-prefixed
// records. head is the next free byte offset, tail the next byte to consume,
// both kept in [0, capacity) with explicit modular arithmetic. length counts
// live bytes and disambiguates full from empty when head == tail.
//
// head is owned by the write side (Insert, WriteRaw) and tail by the read
// side (Pop, PopPeek, Skip, PeekLen, ReadRaw); length is atomic. This makes
// a Fifo safe for one concurrent reader and one concurrent writer. Multiple
// readers or multiple writers must be serialized externally; see the
// gateway package.
type Fifo struct {
	buf    []byte
	prefix int
	head   int
	tail   int
	length atomic.Int64
}

// New returns a Fifo backed by freshly allocated storage of the given
// capacity in bytes. prefixWidth must be PrefixWidth1 or PrefixWidth2.
func New(capacity, prefixWidth int) (*Fifo, error) {
	if capacity <= prefixWidth {
		return nil, fmt.Errorf("fifo: capacity %d too small for prefix width %d", capacity, prefixWidth)
	}
	return NewWithStorage(make([]byte, capacity), prefixWidth)
}

// NewWithStorage returns a Fifo operating over caller-supplied storage, for
// example the data area of a mapped shared-memory segment. The Fifo takes
// ownership of the slice contents; existing bytes are treated as stale. The
// capacity is len(storage) and is never changed.
func NewWithStorage(storage []byte, prefixWidth int) (*Fifo, error) {
	if prefixWidth != PrefixWidth1 && prefixWidth != PrefixWidth2 {
		return nil, fmt.Errorf("fifo: unsupported prefix width %d", prefixWidth)
	}
	if len(storage) <= prefixWidth {
		return nil, errors.New("fifo: storage too small")
	}
	return &Fifo{buf: storage, prefix: prefixWidth}, nil
}

// Capacity returns the fixed byte capacity of the buffer.
func (f *Fifo) Capacity() int {
	return len(f.buf)
}

// Len returns the number of live bytes currently stored, including record
// prefixes.
func (f *Fifo) Len() int {
	return int(f.length.Load())
}

// Free returns the number of bytes that can still be written.
func (f *Fifo) Free() int {
	return len(f.buf) - f.Len()
}

// IsEmpty reports whether the buffer holds no live bytes.
func (f *Fifo) IsEmpty() bool {
	return f.Len() == 0
}

// IsFull reports whether no further bytes can be written.
func (f *Fifo) IsFull() bool {
	return f.Len() == len(f.buf)
}

// PrefixWidth returns the configured record length-prefix width in bytes.
func (f *Fifo) PrefixWidth() int {
	return f.prefix
}

// MaxRecordLen returns the largest payload length representable in the
// configured prefix width.
func (f *Fifo) MaxRecordLen() int {
	return 1<<(8*f.prefix) - 1
}

// Reset discards all buffered data and rewinds both cursors. Unlike the
// other operations it touches both sides and must not race with any of
// them. The storage bytes themselves are left untouched.
func (f *Fifo) Reset() {
	f.head = 0
	f.tail = 0
	f.length.Store(0)
}

// wrap normalizes an offset into [0, capacity).
func (f *Fifo) wrap(off int) int {
	return off % len(f.buf)
}

// copyIn copies p into the circular storage starting at off, splitting the
// copy at the end of the underlying slice. len(p) must not exceed capacity.
func (f *Fifo) copyIn(off int, p []byte) {
	n := copy(f.buf[off:], p)
	if n < len(p) {
		copy(f.buf, p[n:])
	}
}

// copyOut copies len(p) bytes out of the circular storage starting at off.
func (f *Fifo) copyOut(off int, p []byte) {
	n := copy(p, f.buf[off:])
	if n < len(p) {
		copy(p[n:], f.buf)
	}
}

// putLen encodes a little-endian length prefix at off, wrapping per byte.
func (f *Fifo) putLen(off, v int) {
	for i := 0; i < f.prefix; i++ {
		f.buf[f.wrap(off+i)] = byte(v >> (8 * i))
	}
}

// getLen decodes the little-endian length prefix at off.
func (f *Fifo) getLen(off int) int {
	v := 0
	for i := 0; i < f.prefix; i++ {
		v |= int(f.buf[f.wrap(off+i)]) << (8 * i)
	}
	return v
}

// Insert appends one record framed as prefix plus payload. It fails with
// ErrRecordTooLarge if the payload length does not fit the prefix width and
// with ErrCapacity if the framed size exceeds the current free space. On
// failure the buffer is left completely unchanged; a record is never
// partially written.
func (f *Fifo) Insert(payload []byte) error {
	if len(payload) > f.MaxRecordLen() {
		return ErrRecordTooLarge
	}
	if f.prefix+len(payload) > f.Free() {
		return ErrCapacity
	}
	f.putLen(f.head, len(payload))
	f.copyIn(f.wrap(f.head+f.prefix), payload)
	f.head = f.wrap(f.head + f.prefix + len(payload))
	// Publish after the copy so a concurrent reader never observes the
	// record before its bytes are in place.
	f.length.Add(int64(f.prefix + len(payload)))
	return nil
}

// PeekLen returns the payload length of the next record without moving any
// cursor. It returns 0 when the buffer is empty; since a zero-length record
// is legal, callers must check IsEmpty first when that matters.
func (f *Fifo) PeekLen() int {
	if f.IsEmpty() {
		return 0
	}
	return f.getLen(f.tail)
}

// Pop removes the next record and copies up to len(dst) bytes of its payload
// into dst, returning the number of bytes copied. The whole record is always
// consumed: when dst is shorter than the stored payload the remainder is
// dropped. This at-most-len(dst) contract is deliberate; callers that need
// the full payload size the destination with PeekLen. Pop returns 0 on an
// empty buffer without touching it.
func (f *Fifo) Pop(dst []byte) int {
	if f.IsEmpty() {
		return 0
	}
	recLen := f.getLen(f.tail)
	n := recLen
	if n > len(dst) {
		n = len(dst)
	}
	f.copyOut(f.wrap(f.tail+f.prefix), dst[:n])
	f.tail = f.wrap(f.tail + f.prefix + recLen)
	f.length.Add(-int64(f.prefix + recLen))
	return n
}

// PopPeek copies the next record's payload like Pop but leaves the buffer
// unchanged, so the record can still be popped or skipped afterwards.
func (f *Fifo) PopPeek(dst []byte) int {
	if f.IsEmpty() {
		return 0
	}
	recLen := f.getLen(f.tail)
	n := recLen
	if n > len(dst) {
		n = len(dst)
	}
	f.copyOut(f.wrap(f.tail+f.prefix), dst[:n])
	return n
}

// Skip discards the next record without copying its payload. It is a no-op
// on an empty buffer.
func (f *Fifo) Skip() {
	if f.IsEmpty() {
		return
	}
	recLen := f.getLen(f.tail)
	f.tail = f.wrap(f.tail + f.prefix + recLen)
	f.length.Add(-int64(f.prefix + recLen))
}

// ReadRaw copies up to len(dst) live bytes starting at the read cursor,
// ignoring record framing, and consumes them. It returns the number of bytes
// copied; 0 means the buffer was empty. ReadRaw never fails: a short read is
// the only signal of an empty buffer.
func (f *Fifo) ReadRaw(dst []byte) int {
	n := f.Len()
	if n > len(dst) {
		n = len(dst)
	}
	if n == 0 {
		return 0
	}
	f.copyOut(f.tail, dst[:n])
	f.tail = f.wrap(f.tail + n)
	f.length.Add(-int64(n))
	return n
}

// WriteRaw copies up to len(src) bytes into the buffer at the write cursor,
// ignoring record framing, and returns the number of bytes copied. A short
// write is the only signal of a full buffer; WriteRaw never blocks and never
// fails.
func (f *Fifo) WriteRaw(src []byte) int {
	n := f.Free()
	if n > len(src) {
		n = len(src)
	}
	if n == 0 {
		return 0
	}
	f.copyIn(f.head, src[:n])
	f.head = f.wrap(f.head + n)
	f.length.Add(int64(n))
	return n
}
