// Package signature implements the flat internal signature engine used for
// base format identification.
//
// Sequences are pure hexadecimal and compared byte for byte against a
// bounded head and tail window of the file.
package signature

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ostafen/pronomid/internal/sequence"
)

var ErrInvalidOffsets = errors.New("invalid offset window")

// Location anchors a sequence to the beginning or end of the data, or leaves
// it unanchored.
type Location uint8

const (
	BOF Location = iota
	EOF
	ANY
)

// ParseLocation maps a PRONOM reference ("BOFoffset", "EOFoffset",
// "Variable", ...) to a Location. An empty reference means BOF.
func ParseLocation(ref string) Location {
	switch {
	case ref == "", strings.HasPrefix(ref, "BOF"):
		return BOF
	case strings.HasPrefix(ref, "EOF"):
		return EOF
	}
	return ANY
}

func (l Location) String() string {
	switch l {
	case BOF:
		return "BOF"
	case EOF:
		return "EOF"
	default:
		return "ANY"
	}
}

// Window holds the bytes a signature is tested against. For data no larger
// than the window size, Head and Tail are the same slice.
type Window struct {
	Head []byte
	Tail []byte
}

// Matcher is implemented by both the flat and the container signature
// engines.
type Matcher interface {
	Match(w Window) bool
}

// Sequence is a single offset-constrained hex pattern.
type Sequence struct {
	Location  Location
	Pattern   string
	MinOffset int
	MaxOffset int

	raw []byte
	err error
}

// NewSequence validates the offset window and decodes pattern. A pattern that
// is not valid hex does not fail construction: the returned sequence simply
// never matches and Err reports why.
func NewSequence(loc Location, pattern string, minOffset, maxOffset int) (Sequence, error) {
	if minOffset < 0 || maxOffset < minOffset {
		return Sequence{}, fmt.Errorf("%w: [%d, %d]", ErrInvalidOffsets, minOffset, maxOffset)
	}

	seq := Sequence{
		Location:  loc,
		Pattern:   pattern,
		MinOffset: minOffset,
		MaxOffset: maxOffset,
	}

	raw, err := hex.DecodeString(stripSpace(pattern))
	if err != nil {
		seq.err = fmt.Errorf("%w: %q: %s", sequence.ErrMalformedSequence, pattern, err)
	} else {
		seq.raw = raw
	}
	return seq, nil
}

// Err reports whether the pattern failed to decode.
func (s *Sequence) Err() error {
	return s.err
}

// Bytes returns the decoded pattern.
func (s *Sequence) Bytes() []byte {
	return s.raw
}

func (s *Sequence) match(w Window) bool {
	if s.err != nil {
		return false
	}

	switch s.Location {
	case BOF:
		return s.matchBOF(w.Head)
	case EOF:
		return s.matchEOF(w.Tail)
	}
	return bytes.Contains(w.Head, s.raw) || bytes.Contains(w.Tail, s.raw)
}

// matchBOF looks for an occurrence starting within [MinOffset, MaxOffset]
// that lies entirely inside head.
func (s *Sequence) matchBOF(head []byte) bool {
	if s.MinOffset > len(head) {
		return false
	}
	end := min(len(head), s.MaxOffset+len(s.raw))
	if end < s.MinOffset {
		return false
	}
	return bytes.Contains(head[s.MinOffset:end], s.raw)
}

// matchEOF looks for an occurrence whose end lies between MinOffset and
// MaxOffset bytes before the end of tail.
func (s *Sequence) matchEOF(tail []byte) bool {
	end := len(tail) - s.MinOffset
	if end < 0 {
		return false
	}
	start := max(0, len(tail)-len(s.raw)-s.MaxOffset)
	if start > end {
		return false
	}
	return bytes.Contains(tail[start:end], s.raw)
}

// Signature is a named conjunction of sequences.
type Signature struct {
	ID        string
	Sequences []Sequence
}

// New returns a signature with the given sequences.
func New(id string, seqs ...Sequence) *Signature {
	return &Signature{ID: id, Sequences: seqs}
}

// Match reports whether every sequence of s matches w.
func (s *Signature) Match(w Window) bool {
	for i := range s.Sequences {
		if !s.Sequences[i].match(w) {
			return false
		}
	}
	return true
}

// Err returns the first decoding error among the sequences of s, if any.
func (s *Signature) Err() error {
	for i := range s.Sequences {
		if err := s.Sequences[i].err; err != nil {
			return fmt.Errorf("signature %s: %w", s.ID, err)
		}
	}
	return nil
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '\v', '\f':
			return -1
		}
		return r
	}, s)
}
