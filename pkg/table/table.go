// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package table provides a multi-map keyed by byte strings that can report,
// in one pass over some data, every stored key that is a prefix of it.
package table

// hashSpace is the size of the rolling prefix hash space (uint16).
const hashSpace = 1 << 16

const (
	markNone   byte = iota // no key prefix hashes here
	markPrefix             // a proper prefix of some key hashes here
	markKey                // a complete key hashes here
)

// PrefixTable maps byte-string keys to lists of values. Lookups by prefix
// use a 64KB marker array indexed by a rolling hash of the key prefix, so a
// walk stops as soon as no stored key can extend the current prefix.
type PrefixTable[T any] struct {
	marks  [hashSpace]byte
	values map[string][]T
	maxLen int
}

func New[T any]() *PrefixTable[T] {
	return &PrefixTable[T]{
		values: make(map[string][]T),
	}
}

func step(h uint16, b byte) uint16 {
	return (h << 2) + uint16(b)
}

// Add appends v to the values stored under key.
func (t *PrefixTable[T]) Add(key []byte, v T) {
	var h uint16
	for _, b := range key {
		h = step(h, b)
		t.marks[h] = max(t.marks[h], markPrefix)
	}
	t.marks[h] = markKey
	t.values[string(key)] = append(t.values[string(key)], v)
	t.maxLen = max(t.maxLen, len(key))
}

// Get returns the values stored under key.
func (t *PrefixTable[T]) Get(key []byte) []T {
	return t.values[string(key)]
}

// Walk calls fn for every stored key that is a prefix of data, shortest
// first. Walking stops early when fn returns true.
func (t *PrefixTable[T]) Walk(data []byte, fn func(key []byte, values []T) bool) {
	if len(t.values) == 0 {
		return
	}

	var h uint16
	for i, b := range data[:min(len(data), t.maxLen)] {
		h = step(h, b)

		switch t.marks[h] {
		case markNone:
			return
		case markKey:
			// different keys may share a hash, so confirm with the map
			if vs, ok := t.values[string(data[:i+1])]; ok && fn(data[:i+1], vs) {
				return
			}
		}
	}
}

// Size returns the number of distinct keys.
func (t *PrefixTable[T]) Size() int {
	return len(t.values)
}
