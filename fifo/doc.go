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

// Package fifo implements a fixed-capacity circular byte buffer that stores
// variable-length, length-prefixed records.
//
// The buffer supports two access styles over the same storage. The record
// API (Insert, PeekLen, Pop, PopPeek, Skip) frames each payload with a 1- or
// 2-byte little-endian length prefix so that record boundaries survive
// arbitrary wraparound without scanning. The raw API (ReadRaw, WriteRaw)
// ignores framing entirely and moves arbitrary byte ranges, which lets the
// same storage back a plain byte-stream transport where a caller may consume
// a record in several chunks.
//
// A Fifo performs no locking of its own; see the gateway package for the
// serialization layer placed in front of it.
package fifo
