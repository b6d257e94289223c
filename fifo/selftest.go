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
	"bytes"
	"fmt"
)

// Self-test parameters. The scenario operates on a scratch buffer of 128
// bytes with a 1-byte prefix and a fixed, known record sequence.
const (
	selfTestCapacity = 128
	selfTestPrefix   = PrefixWidth1
)

var selfTestExpected = []string{
	"a", "bb", "ccc", "dddd", "eeeee",
	"ffffff", "ggggggg", "hhhhhhhh", "iiiiiiiii", "jjjjjjjjjj",
}

// SelfTest exercises a freshly allocated Fifo against a deterministic record
// scenario and returns an error wrapping ErrVerification on any mismatch.
// Callers are expected to run it once at startup and refuse to expose the
// byte-stream endpoint if it fails.
//
// The scenario: insert a fixed 6-byte record, verify PeekLen, insert ten
// records of ascending length, skip the first record, peek the next without
// consuming it, then pop until empty comparing every payload in order.
func SelfTest() error {
	f, err := New(selfTestCapacity, selfTestPrefix)
	if err != nil {
		return fmt.Errorf("%w: allocate: %v", ErrVerification, err)
	}

	// A literal 6-byte record, trailing NUL included.
	hello := []byte("hello\x00")
	if err := f.Insert(hello); err != nil {
		return fmt.Errorf("%w: insert hello: %v", ErrVerification, err)
	}
	if got := f.PeekLen(); got != len(hello) {
		return fmt.Errorf("%w: peek len %d, want %d", ErrVerification, got, len(hello))
	}

	for i := 0; i < len(selfTestExpected); i++ {
		rec := bytes.Repeat([]byte{byte('a' + i)}, i+1)
		if err := f.Insert(rec); err != nil {
			return fmt.Errorf("%w: insert record %d: %v", ErrVerification, i, err)
		}
	}

	// Discard the hello record; the ascending sequence must remain.
	f.Skip()

	buf := make([]byte, 100)
	if n := f.PopPeek(buf); string(buf[:n]) != selfTestExpected[0] {
		return fmt.Errorf("%w: peek record %q, want %q", ErrVerification, buf[:n], selfTestExpected[0])
	}

	i := 0
	for !f.IsEmpty() {
		n := f.Pop(buf)
		if i >= len(selfTestExpected) {
			return fmt.Errorf("%w: extra record %q after %d expected records", ErrVerification, buf[:n], len(selfTestExpected))
		}
		if got := string(buf[:n]); got != selfTestExpected[i] {
			return fmt.Errorf("%w: record %d is %q, want %q", ErrVerification, i, got, selfTestExpected[i])
		}
		i++
	}
	if i != len(selfTestExpected) {
		return fmt.Errorf("%w: popped %d records, want %d", ErrVerification, i, len(selfTestExpected))
	}
	return nil
}
