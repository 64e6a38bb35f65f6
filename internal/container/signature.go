package container

import (
	"fmt"

	"github.com/ostafen/pronomid/internal/sequence"
	"github.com/ostafen/pronomid/internal/signature"
)

// Type identifies a container format.
type Type string

const (
	ZIP  Type = "ZIP"
	OLE2 Type = "OLE2"
)

// SubSequence is a compiled pattern constrained to an offset window relative
// to its reference. An ANY reference means the pattern is unanchored.
type SubSequence struct {
	Pattern   *sequence.Pattern
	Reference signature.Location
	MinOffset int
	MaxOffset int
}

func NewSubSequence(p *sequence.Pattern, ref signature.Location, minOffset, maxOffset int) (SubSequence, error) {
	if minOffset < 0 || maxOffset < minOffset {
		return SubSequence{}, fmt.Errorf("%w: [%d, %d]", signature.ErrInvalidOffsets, minOffset, maxOffset)
	}
	return SubSequence{
		Pattern:   p,
		Reference: ref,
		MinOffset: minOffset,
		MaxOffset: maxOffset,
	}, nil
}

// Match scans the occurrences of the pattern in buf, leftmost first, and
// reports whether one of them satisfies the offset window.
func (s SubSequence) Match(buf []byte) bool {
	for start := range s.Pattern.All(buf) {
		switch s.Reference {
		case signature.BOF:
			if start > s.MaxOffset {
				return false
			}
			if start >= s.MinOffset {
				return true
			}
		case signature.EOF:
			dist := len(buf) - start - s.Pattern.Len()
			if dist < s.MinOffset {
				return false
			}
			if dist <= s.MaxOffset {
				return true
			}
		default:
			return true
		}
	}
	return false
}

// ByteSequence is a conjunction of subsequences.
type ByteSequence struct {
	Reference    signature.Location
	SubSequences []SubSequence
}

func (b ByteSequence) Match(buf []byte) bool {
	for _, sub := range b.SubSequences {
		if !sub.Match(buf) {
			return false
		}
	}
	return true
}

// InternalSignature is a conjunction of byte sequences evaluated against the
// full content of a container member. A signature whose sequences failed to
// compile carries the error in Err and never matches.
type InternalSignature struct {
	ID            string
	ByteSequences []ByteSequence
	Err           error
}

// Match tests the signature against w.Head, which holds the whole member.
func (s *InternalSignature) Match(w signature.Window) bool {
	if s.Err != nil {
		return false
	}
	for _, bs := range s.ByteSequences {
		if !bs.Match(w.Head) {
			return false
		}
	}
	return true
}

// FileEntry names a required member. When Signatures is not empty, at least
// one of them must match the member content.
type FileEntry struct {
	Path       string
	Signatures []*InternalSignature
}

// Signature recognizes a format by the members of a container.
type Signature struct {
	ID    string
	Type  Type
	Files []FileEntry
}

// Database is the immutable set of container signatures together with the
// signature to PUID mapping and the trigger PUIDs.
type Database struct {
	Signatures []*Signature
	PUIDs      map[string]string
	Triggers   map[string]Type
}

// Trigger returns the container type a base PUID should be refined with.
func (db *Database) Trigger(puid string) (Type, bool) {
	if db == nil || puid == "" {
		return "", false
	}
	t, ok := db.Triggers[puid]
	return t, ok
}
