package sequence

import (
	"bytes"
	"fmt"
	"strings"
)

// byteClass is a 256-bit set of allowed byte values.
type byteClass [4]uint64

func (c *byteClass) add(b byte) {
	c[b>>6] |= 1 << (b & 63)
}

func (c *byteClass) addRange(lo, hi byte) {
	for b := int(lo); b <= int(hi); b++ {
		c.add(byte(b))
	}
}

func (c *byteClass) has(b byte) bool {
	return c[b>>6]&(1<<(b&63)) != 0
}

func (c *byteClass) count() int {
	n := 0
	for b := 0; b < 256; b++ {
		if c.has(byte(b)) {
			n++
		}
	}
	return n
}

// unit is a single element of a compiled pattern: either a literal run
// (lit != nil) or a class matching exactly one byte.
type unit struct {
	lit   []byte
	class *byteClass
}

func (u unit) width() int {
	if u.class != nil {
		return 1
	}
	return len(u.lit)
}

// Pattern is a compiled PRONOM byte sequence. A Pattern is immutable and
// safe for concurrent use.
type Pattern struct {
	units []unit
	width int
}

// Len returns the number of bytes consumed by a match of p.
func (p *Pattern) Len() int {
	return p.width
}

// Find returns the leftmost occurrence of p in buf starting at or after from.
// It returns the start offset and the number of bytes consumed.
func (p *Pattern) Find(buf []byte, from int) (start int, n int, ok bool) {
	if from < 0 {
		from = 0
	}
	if from > len(buf) {
		return -1, 0, false
	}
	if p.width == 0 {
		return from, 0, true
	}

	lead := p.units[0].lit
	for i := from; i+p.width <= len(buf); i++ {
		if lead != nil {
			j := bytes.Index(buf[i:], lead)
			if j < 0 {
				break
			}
			i += j
			if i+p.width > len(buf) {
				break
			}
		}
		if p.matchAt(buf, i) {
			return i, p.width, true
		}
	}
	return -1, 0, false
}

// All iterates over the start offsets of every occurrence of p in buf,
// leftmost first. Occurrences may overlap.
func (p *Pattern) All(buf []byte) func(yield func(start int) bool) {
	return func(yield func(start int) bool) {
		for from := 0; ; {
			start, _, ok := p.Find(buf, from)
			if !ok || !yield(start) {
				return
			}
			from = start + 1
		}
	}
}

func (p *Pattern) matchAt(buf []byte, off int) bool {
	for _, u := range p.units {
		if u.class != nil {
			if !u.class.has(buf[off]) {
				return false
			}
			off++
			continue
		}
		if !bytes.Equal(buf[off:off+len(u.lit)], u.lit) {
			return false
		}
		off += len(u.lit)
	}
	return true
}

// String renders p back in a normalized PRONOM-like form.
func (p *Pattern) String() string {
	var sb strings.Builder
	for i, u := range p.units {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if u.class == nil {
			fmt.Fprintf(&sb, "%X", u.lit)
			continue
		}
		if u.class.count() == 256 {
			sb.WriteString("[*]")
			continue
		}
		sb.WriteByte('[')
		for b := 0; b < 256; b++ {
			if u.class.has(byte(b)) {
				fmt.Fprintf(&sb, "%02X", b)
			}
		}
		sb.WriteByte(']')
	}
	return sb.String()
}
