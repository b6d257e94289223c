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

// Package gateway serializes byte-stream access to a fifo.Fifo behind two
// independent mutual-exclusion domains: one for the read side, one for the
// write side. A single reader and a single writer proceed without blocking
// each other; concurrent readers serialize against each other, as do
// concurrent writers. Lock acquisition is the only blocking point and is
// cancellable through the caller's context.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/sysprog21/recfifo/fifo"
)

// ErrInterrupted indicates that a lock wait was cancelled through the
// caller's context before acquisition completed. The buffer is untouched;
// the caller may retry.
var ErrInterrupted = errors.New("gateway: lock wait interrupted")

// Gateway owns a Fifo together with its two side locks. The zero value is
// not usable; construct with New.
type Gateway struct {
	fifo *fifo.Fifo

	// Weighted semaphores of capacity 1: acquisition blocks until the
	// holder releases or ctx is cancelled, which is exactly the
	// interruptible-mutex contract the gateway needs.
	readLock  *semaphore.Weighted
	writeLock *semaphore.Weighted
}

// New returns a Gateway guarding the given Fifo. The Fifo must not be
// accessed directly while the Gateway is in use.
func New(f *fifo.Fifo) *Gateway {
	return &Gateway{
		fifo:      f,
		readLock:  semaphore.NewWeighted(1),
		writeLock: semaphore.NewWeighted(1),
	}
}

// Write acquires the write-side lock and copies up to len(src) bytes into
// the buffer, returning the number actually written. A count short of
// len(src) means the buffer filled; 0 is a valid result, not an error. The
// only error is ErrInterrupted when ctx is cancelled during acquisition, in
// which case no bytes were written. Once the lock is held the copy runs to
// completion.
func (g *Gateway) Write(ctx context.Context, src []byte) (int, error) {
	if err := g.writeLock.Acquire(ctx, 1); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInterrupted, err)
	}
	defer g.writeLock.Release(1)
	return g.fifo.WriteRaw(src), nil
}

// Read acquires the read-side lock and copies up to len(dst) buffered bytes
// into dst, returning the number copied. 0 means the buffer was empty.
// ErrInterrupted is returned when ctx is cancelled during acquisition, with
// no bytes consumed.
func (g *Gateway) Read(ctx context.Context, dst []byte) (int, error) {
	if err := g.readLock.Acquire(ctx, 1); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInterrupted, err)
	}
	defer g.readLock.Release(1)
	return g.fifo.ReadRaw(dst), nil
}

// Len reports the live byte count. It takes no lock; the value may be stale
// by the time the caller acts on it and is intended for diagnostics.
func (g *Gateway) Len() int {
	return g.fifo.Len()
}
