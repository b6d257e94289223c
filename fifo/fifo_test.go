package fifo

import (
	"bytes"
	"errors"
	"testing"
)

func mustNew(t *testing.T, capacity, prefix int) *Fifo {
	t.Helper()
	f, err := New(capacity, prefix)
	if err != nil {
		t.Fatalf("New(%d, %d) failed: %v", capacity, prefix, err)
	}
	return f
}

func TestInsertPopRoundTrip(t *testing.T) {
	f := mustNew(t, 128, PrefixWidth1)

	payloads := [][]byte{
		[]byte("a"),
		[]byte("hello world"),
		{},
		bytes.Repeat([]byte{0xff}, 40),
		[]byte("tail"),
	}

	for i, p := range payloads {
		if err := f.Insert(p); err != nil {
			t.Fatalf("Insert %d failed: %v", i, err)
		}
	}

	buf := make([]byte, 128)
	for i, want := range payloads {
		if got := f.PeekLen(); got != len(want) {
			t.Fatalf("PeekLen before pop %d: got %d, want %d", i, got, len(want))
		}
		n := f.Pop(buf)
		if !bytes.Equal(buf[:n], want) {
			t.Fatalf("pop %d: got %q, want %q", i, buf[:n], want)
		}
	}
	if !f.IsEmpty() {
		t.Fatalf("fifo not empty after popping all records: %d live bytes", f.Len())
	}
}

func TestRecordWrapAround(t *testing.T) {
	f := mustNew(t, 16, PrefixWidth1)

	// Advance both cursors so the next record straddles the end of storage.
	if err := f.Insert(make([]byte, 6)); err != nil {
		t.Fatalf("priming insert failed: %v", err)
	}
	f.Skip()

	payload := []byte("abcdefghijkl") // framed size 13, wraps past offset 16
	if err := f.Insert(payload); err != nil {
		t.Fatalf("wrapping insert failed: %v", err)
	}
	if got := f.PeekLen(); got != len(payload) {
		t.Fatalf("PeekLen across wrap: got %d, want %d", got, len(payload))
	}

	buf := make([]byte, 32)
	n := f.Pop(buf)
	if !bytes.Equal(buf[:n], payload) {
		t.Fatalf("wrapped record mismatch: got %q, want %q", buf[:n], payload)
	}
	if !f.IsEmpty() {
		t.Fatal("fifo should be empty after popping wrapped record")
	}
}

func TestCapacityErrorLeavesStateUnchanged(t *testing.T) {
	f := mustNew(t, 32, PrefixWidth1)

	first := []byte("twenty bytes payload")
	if err := f.Insert(first); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	liveBefore := f.Len()

	// 15 byte payload needs 16 framed bytes, only 11 are free.
	if err := f.Insert(make([]byte, 15)); !errors.Is(err, ErrCapacity) {
		t.Fatalf("expected ErrCapacity, got %v", err)
	}
	if f.Len() != liveBefore {
		t.Fatalf("failed insert mutated length: %d -> %d", liveBefore, f.Len())
	}

	buf := make([]byte, 32)
	n := f.Pop(buf)
	if !bytes.Equal(buf[:n], first) {
		t.Fatalf("record corrupted by failed insert: got %q, want %q", buf[:n], first)
	}
	if !f.IsEmpty() {
		t.Fatal("failed insert left bytes behind")
	}
}

func TestRecordTooLarge(t *testing.T) {
	f := mustNew(t, 1024, PrefixWidth1)
	if err := f.Insert(make([]byte, 256)); !errors.Is(err, ErrRecordTooLarge) {
		t.Fatalf("expected ErrRecordTooLarge for 256-byte payload with 1-byte prefix, got %v", err)
	}
	if !f.IsEmpty() {
		t.Fatal("rejected insert mutated the buffer")
	}
}

func TestTwoBytePrefix(t *testing.T) {
	f := mustNew(t, 1024, PrefixWidth2)

	payload := bytes.Repeat([]byte("x"), 300)
	if err := f.Insert(payload); err != nil {
		t.Fatalf("Insert 300-byte payload failed: %v", err)
	}
	if got := f.PeekLen(); got != 300 {
		t.Fatalf("PeekLen: got %d, want 300", got)
	}
	if got := f.Len(); got != 302 {
		t.Fatalf("Len: got %d, want 302 (payload + 2-byte prefix)", got)
	}

	buf := make([]byte, 400)
	n := f.Pop(buf)
	if !bytes.Equal(buf[:n], payload) {
		t.Fatal("300-byte payload mismatch")
	}
}

func TestPeekLenDoesNotMutate(t *testing.T) {
	f := mustNew(t, 64, PrefixWidth1)
	if err := f.Insert([]byte("abc")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if got := f.PeekLen(); got != 3 {
			t.Fatalf("PeekLen call %d: got %d, want 3", i, got)
		}
	}
	if f.Len() != 4 {
		t.Fatalf("PeekLen mutated length: %d", f.Len())
	}

	buf := make([]byte, 8)
	if n := f.Pop(buf); string(buf[:n]) != "abc" {
		t.Fatalf("record changed after PeekLen: %q", buf[:n])
	}
}

func TestTruncatingPopDropsRemainder(t *testing.T) {
	f := mustNew(t, 64, PrefixWidth1)
	if err := f.Insert([]byte("0123456789")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := f.Insert([]byte("next")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	small := make([]byte, 4)
	n := f.Pop(small)
	if n != 4 || string(small[:n]) != "0123" {
		t.Fatalf("truncated pop: got %q (%d bytes), want \"0123\"", small[:n], n)
	}

	// The whole record must have been consumed, not just the copied part.
	buf := make([]byte, 16)
	n = f.Pop(buf)
	if string(buf[:n]) != "next" {
		t.Fatalf("remainder not dropped: next pop got %q, want \"next\"", buf[:n])
	}
	if !f.IsEmpty() {
		t.Fatal("fifo should be empty")
	}
}

func TestPopPeekLeavesRecord(t *testing.T) {
	f := mustNew(t, 64, PrefixWidth1)
	if err := f.Insert([]byte("peekme")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	liveBefore := f.Len()

	buf := make([]byte, 16)
	n := f.PopPeek(buf)
	if string(buf[:n]) != "peekme" {
		t.Fatalf("PopPeek got %q", buf[:n])
	}
	if f.Len() != liveBefore {
		t.Fatalf("PopPeek consumed bytes: %d -> %d", liveBefore, f.Len())
	}

	n = f.Pop(buf)
	if string(buf[:n]) != "peekme" {
		t.Fatalf("record gone after PopPeek: %q", buf[:n])
	}
}

func TestSkip(t *testing.T) {
	f := mustNew(t, 64, PrefixWidth1)
	for _, p := range []string{"first", "second"} {
		if err := f.Insert([]byte(p)); err != nil {
			t.Fatalf("Insert %q failed: %v", p, err)
		}
	}

	f.Skip()

	buf := make([]byte, 16)
	n := f.Pop(buf)
	if string(buf[:n]) != "second" {
		t.Fatalf("after Skip, pop got %q, want \"second\"", buf[:n])
	}

	// Skip on empty is a no-op.
	f.Skip()
	if f.Len() != 0 {
		t.Fatalf("Skip on empty mutated length: %d", f.Len())
	}
}

func TestZeroLengthRecord(t *testing.T) {
	f := mustNew(t, 16, PrefixWidth1)
	if err := f.Insert(nil); err != nil {
		t.Fatalf("Insert of empty payload failed: %v", err)
	}
	if f.IsEmpty() {
		t.Fatal("fifo with a zero-length record must not report empty")
	}
	if got := f.PeekLen(); got != 0 {
		t.Fatalf("PeekLen: got %d, want 0", got)
	}

	buf := make([]byte, 4)
	if n := f.Pop(buf); n != 0 {
		t.Fatalf("Pop of empty record returned %d bytes", n)
	}
	if !f.IsEmpty() {
		t.Fatal("fifo should be empty after popping the zero-length record")
	}
}

func TestFullAndEmptyShareCursorPosition(t *testing.T) {
	f := mustNew(t, 16, PrefixWidth1)

	// Two 7-byte payloads frame to exactly 16 bytes: head wraps back onto
	// tail while the buffer is completely full.
	for i := 0; i < 2; i++ {
		if err := f.Insert(bytes.Repeat([]byte{byte('A' + i)}, 7)); err != nil {
			t.Fatalf("Insert %d failed: %v", i, err)
		}
	}
	if !f.IsFull() {
		t.Fatalf("expected full buffer, %d free", f.Free())
	}
	if f.IsEmpty() {
		t.Fatal("full buffer reported empty at head == tail")
	}
	if err := f.Insert([]byte("x")); !errors.Is(err, ErrCapacity) {
		t.Fatalf("insert into full buffer: got %v, want ErrCapacity", err)
	}

	buf := make([]byte, 16)
	f.Pop(buf)
	f.Pop(buf)
	if !f.IsEmpty() || f.IsFull() {
		t.Fatalf("drained buffer: empty=%v full=%v", f.IsEmpty(), f.IsFull())
	}
}

func TestRawShortTransfers(t *testing.T) {
	f := mustNew(t, 16, PrefixWidth1)

	// Oversized raw write copies exactly the free space.
	src := bytes.Repeat([]byte{0xAB}, 20)
	if n := f.WriteRaw(src); n != 16 {
		t.Fatalf("WriteRaw into empty 16-byte buffer: wrote %d, want 16", n)
	}
	if n := f.WriteRaw([]byte{1}); n != 0 {
		t.Fatalf("WriteRaw into full buffer: wrote %d, want 0", n)
	}

	dst := make([]byte, 10)
	if n := f.ReadRaw(dst); n != 10 {
		t.Fatalf("ReadRaw: got %d, want 10", n)
	}
	if !bytes.Equal(dst, src[:10]) {
		t.Fatal("raw read data mismatch")
	}

	// Partial free space: short write of exactly the free amount.
	if n := f.WriteRaw(src); n != 10 {
		t.Fatalf("WriteRaw with 10 free: wrote %d, want 10", n)
	}

	// Drain everything; next read reports empty with 0.
	big := make([]byte, 32)
	if n := f.ReadRaw(big); n != 16 {
		t.Fatalf("drain: got %d, want 16", n)
	}
	if n := f.ReadRaw(big); n != 0 {
		t.Fatalf("ReadRaw on empty: got %d, want 0", n)
	}
}

func TestRawRoundTripAcrossWrap(t *testing.T) {
	f := mustNew(t, 16, PrefixWidth1)

	// Move the cursors near the end of storage first.
	f.WriteRaw(make([]byte, 12))
	f.ReadRaw(make([]byte, 12))

	data := []byte("0123456789") // spans the wrap point
	if n := f.WriteRaw(data); n != len(data) {
		t.Fatalf("WriteRaw: wrote %d, want %d", n, len(data))
	}

	dst := make([]byte, 16)
	n := f.ReadRaw(dst)
	if !bytes.Equal(dst[:n], data) {
		t.Fatalf("wrap round trip: got %q, want %q", dst[:n], data)
	}
}

func TestRawAndRecordInterplay(t *testing.T) {
	f := mustNew(t, 64, PrefixWidth1)
	if err := f.Insert([]byte("hello")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	// A raw reader sees the framing bytes: prefix first, then payload, and
	// may consume a record in several chunks.
	one := make([]byte, 1)
	if n := f.ReadRaw(one); n != 1 || one[0] != 5 {
		t.Fatalf("raw read of prefix: n=%d byte=%d, want 1 and 5", n, one[0])
	}
	rest := make([]byte, 8)
	n := f.ReadRaw(rest)
	if string(rest[:n]) != "hello" {
		t.Fatalf("raw read of payload: got %q", rest[:n])
	}
	if !f.IsEmpty() {
		t.Fatal("buffer should be empty after raw-draining the record")
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(64, 3); err == nil {
		t.Fatal("expected error for unsupported prefix width")
	}
	if _, err := New(1, PrefixWidth1); err == nil {
		t.Fatal("expected error for capacity not exceeding prefix width")
	}
	if _, err := NewWithStorage(nil, PrefixWidth1); err == nil {
		t.Fatal("expected error for nil storage")
	}
}

func TestReset(t *testing.T) {
	f := mustNew(t, 32, PrefixWidth1)
	if err := f.Insert([]byte("data")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	f.Reset()
	if !f.IsEmpty() || f.Len() != 0 || f.Free() != 32 {
		t.Fatalf("Reset left state: len=%d free=%d", f.Len(), f.Free())
	}
}
