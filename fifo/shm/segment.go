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

// Package shm provides a memory-mapped storage arena for a fifo.Fifo, so
// the buffer's byte storage can live in a shared-memory file and be
// inspected from outside the owning process. Only the storage bytes are
// shared; cursor state stays with the owning Fifo and is not persisted.
package shm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Segment file layout constants.
const (
	// Magic bytes identifying a recfifo segment file.
	segmentMagic = "RECFIFO\x00"

	// Current segment layout version.
	segmentVersion = uint32(1)

	// Header size; the fifo data area starts at this offset.
	headerSize = 64

	// MinCapacity is the smallest data area accepted.
	MinCapacity = 16
)

// ErrUnsupported indicates that memory-mapped segments are not available on
// this platform.
var ErrUnsupported = errors.New("shm: memory-mapped segments unsupported on this platform")

// Segment is a mapped shared-memory file holding a header and a fifo data
// area.
type Segment struct {
	file     *os.File
	mem      []byte
	path     string
	capacity int
}

// Header field offsets.
const (
	offMagic    = 0  // 8 bytes
	offVersion  = 8  // uint32
	offFlags    = 12 // uint32, reserved
	offTotal    = 16 // uint64
	offCapacity = 24 // uint64
)

// encodeHeader writes the segment header into mem.
func encodeHeader(mem []byte, capacity int) {
	copy(mem[offMagic:offMagic+8], segmentMagic)
	binary.LittleEndian.PutUint32(mem[offVersion:], segmentVersion)
	binary.LittleEndian.PutUint32(mem[offFlags:], 0)
	binary.LittleEndian.PutUint64(mem[offTotal:], uint64(headerSize+capacity))
	binary.LittleEndian.PutUint64(mem[offCapacity:], uint64(capacity))
}

// validateHeader checks magic, version and size consistency of a mapped
// segment and returns its data capacity.
func validateHeader(mem []byte) (int, error) {
	if len(mem) < headerSize {
		return 0, fmt.Errorf("shm: segment too small: %d bytes", len(mem))
	}
	if string(mem[offMagic:offMagic+8]) != segmentMagic {
		return 0, errors.New("shm: invalid magic bytes")
	}
	if v := binary.LittleEndian.Uint32(mem[offVersion:]); v != segmentVersion {
		return 0, fmt.Errorf("shm: unsupported version %d, expected %d", v, segmentVersion)
	}
	total := binary.LittleEndian.Uint64(mem[offTotal:])
	capacity := binary.LittleEndian.Uint64(mem[offCapacity:])
	if capacity < MinCapacity {
		return 0, fmt.Errorf("shm: capacity %d below minimum %d", capacity, MinCapacity)
	}
	if total != headerSize+capacity {
		return 0, fmt.Errorf("shm: total size %d inconsistent with capacity %d", total, capacity)
	}
	if uint64(len(mem)) < total {
		return 0, fmt.Errorf("shm: mapped %d bytes, header declares %d", len(mem), total)
	}
	return int(capacity), nil
}

// CreateSegment creates and maps a new segment file with a data area of the
// given capacity. The file is created exclusively; an existing segment of
// the same name is an error.
func CreateSegment(name string, capacity int) (*Segment, error) {
	if capacity < MinCapacity {
		return nil, fmt.Errorf("shm: capacity %d below minimum %d", capacity, MinCapacity)
	}
	path := segmentPath(name)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("shm: create segment file %s: %w", path, err)
	}
	cleanup := func() {
		file.Close()
		os.Remove(path)
	}

	totalSize := headerSize + capacity
	if err := file.Truncate(int64(totalSize)); err != nil {
		cleanup()
		return nil, fmt.Errorf("shm: resize segment file: %w", err)
	}

	mem, err := mapFile(file, totalSize)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("shm: map segment: %w", err)
	}

	encodeHeader(mem, capacity)

	return &Segment{
		file:     file,
		mem:      mem,
		path:     path,
		capacity: capacity,
	}, nil
}

// OpenSegment maps an existing segment file and validates its header.
func OpenSegment(name string) (*Segment, error) {
	path := segmentPath(name)

	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("shm: open segment file %s: %w", path, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("shm: stat segment file: %w", err)
	}

	mem, err := mapFile(file, int(info.Size()))
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("shm: map segment: %w", err)
	}

	capacity, err := validateHeader(mem)
	if err != nil {
		unmapFile(mem)
		file.Close()
		return nil, err
	}

	return &Segment{
		file:     file,
		mem:      mem,
		path:     path,
		capacity: capacity,
	}, nil
}

// Data returns the fifo data area of the mapped segment. The slice aliases
// the mapping and is invalid after Close.
func (s *Segment) Data() []byte {
	return s.mem[headerSize : headerSize+s.capacity]
}

// Capacity returns the data area size in bytes.
func (s *Segment) Capacity() int {
	return s.capacity
}

// Path returns the backing file path.
func (s *Segment) Path() string {
	return s.path
}

// Close unmaps the segment and closes the backing file. The file itself is
// left in place; use Remove to unlink it.
func (s *Segment) Close() error {
	var firstErr error
	if s.mem != nil {
		if err := unmapFile(s.mem); err != nil && firstErr == nil {
			firstErr = err
		}
		s.mem = nil
	}
	if s.file != nil {
		if err := s.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.file = nil
	}
	return firstErr
}

// Remove unlinks a segment file by name.
func Remove(name string) error {
	return os.Remove(segmentPath(name))
}

// Exists reports whether a segment file of the given name is present.
func Exists(name string) bool {
	_, err := os.Stat(segmentPath(name))
	return err == nil
}

// segmentPath resolves a segment name to a file path, preferring /dev/shm
// when present.
func segmentPath(name string) string {
	if info, err := os.Stat("/dev/shm"); err == nil && info.IsDir() {
		return filepath.Join("/dev/shm", "recfifo_"+name)
	}
	return filepath.Join(os.TempDir(), "recfifo_"+name)
}
