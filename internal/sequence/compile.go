// Package sequence compiles the PRONOM container sequence grammar into byte
// patterns.
//
// The recognized grammar, scanned left to right with whitespace ignored, is:
//
//	4D5A            two hex digits per literal byte
//	'Word.Document' quoted literal, one byte per Latin-1 character
//	['0'-'9']       a single byte in the inclusive range
//	['A''B''C']     a single byte among the listed characters
//	[...]           any other bracketed content matches any single byte
//
// Every other character is skipped.
package sequence

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var ErrMalformedSequence = errors.New("malformed sequence")

// Compile parses text and returns the corresponding Pattern.
func Compile(text string) (*Pattern, error) {
	var c compiler

	for i := 0; i < len(text); {
		ch := text[i]
		switch {
		case isSpace(ch):
			i++
		case ch == '\'':
			end := strings.IndexByte(text[i+1:], '\'')
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated quote at offset %d", ErrMalformedSequence, i)
			}
			lit, err := latin1(text[i+1 : i+1+end])
			if err != nil {
				return nil, fmt.Errorf("%w: offset %d: %s", ErrMalformedSequence, i, err)
			}
			c.literal(lit...)
			i += end + 2
		case ch == '[':
			end := strings.IndexByte(text[i+1:], ']')
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated bracket at offset %d", ErrMalformedSequence, i)
			}
			class, err := parseClass(text[i+1 : i+1+end])
			if err != nil {
				return nil, fmt.Errorf("%w: offset %d: %s", ErrMalformedSequence, i, err)
			}
			c.class(class)
			i += end + 2
		case i+1 < len(text) && isHex(ch) && isHex(text[i+1]):
			c.literal(unhex(ch)<<4 | unhex(text[i+1]))
			i += 2
		default:
			i++
		}
	}
	return c.pattern(), nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(text string) *Pattern {
	p, err := Compile(text)
	if err != nil {
		panic(err)
	}
	return p
}

type compiler struct {
	units []unit
	width int
}

// literal appends bytes to the trailing literal run, starting a new run if
// the previous unit is a class.
func (c *compiler) literal(b ...byte) {
	if len(b) == 0 {
		return
	}
	c.width += len(b)
	if n := len(c.units); n > 0 && c.units[n-1].class == nil {
		c.units[n-1].lit = append(c.units[n-1].lit, b...)
		return
	}
	c.units = append(c.units, unit{lit: append([]byte(nil), b...)})
}

func (c *compiler) class(cl *byteClass) {
	c.width++
	c.units = append(c.units, unit{class: cl})
}

func (c *compiler) pattern() *Pattern {
	return &Pattern{units: c.units, width: c.width}
}

// parseClass interprets the contents of a bracket expression.
func parseClass(token string) (*byteClass, error) {
	var cl byteClass

	lo, hi, isRange, err := parseRange(token)
	if err != nil {
		return nil, err
	}
	if isRange {
		cl.addRange(lo, hi)
		return &cl, nil
	}

	members, err := quotedChars(token)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		cl.addRange(0x00, 0xFF)
		return &cl, nil
	}
	for _, b := range members {
		cl.add(b)
	}
	return &cl, nil
}

// parseRange recognizes a leading 'x'-'y' form. Trailing content after the
// range is ignored.
func parseRange(token string) (lo, hi byte, ok bool, err error) {
	s := strings.TrimLeft(token, " \t\r\n")

	first, rest, found := quotedChar(s)
	if !found {
		return 0, 0, false, nil
	}
	rest = strings.TrimLeft(rest, " \t\r\n")
	if !strings.HasPrefix(rest, "-") {
		return 0, 0, false, nil
	}
	rest = strings.TrimLeft(rest[1:], " \t\r\n")

	second, _, found := quotedChar(rest)
	if !found {
		return 0, 0, false, nil
	}

	if first > 0xFF || second > 0xFF {
		return 0, 0, false, errors.New("range bound outside Latin-1")
	}
	if first > second {
		return 0, 0, false, fmt.Errorf("reversed range %q-%q", first, second)
	}
	return byte(first), byte(second), true, nil
}

// quotedChar reads a single quoted character at the start of s.
func quotedChar(s string) (rune, string, bool) {
	if len(s) < 3 || s[0] != '\'' {
		return 0, s, false
	}
	r, size := utf8.DecodeRuneInString(s[1:])
	if r == '\n' || 1+size >= len(s) || s[1+size] != '\'' {
		return 0, s, false
	}
	return r, s[2+size:], true
}

// quotedChars collects every non-overlapping single quoted character in s.
func quotedChars(s string) ([]byte, error) {
	var out []byte
	for i := 0; i < len(s); {
		r, rest, ok := quotedChar(s[i:])
		if !ok {
			i++
			continue
		}
		if r > 0xFF {
			return nil, fmt.Errorf("character %q outside Latin-1", r)
		}
		out = append(out, byte(r))
		i = len(s) - len(rest)
	}
	return out, nil
}

func latin1(s string) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xFF {
			return nil, fmt.Errorf("character %q outside Latin-1", r)
		}
		out = append(out, byte(r))
	}
	return out, nil
}

func isSpace(ch byte) bool {
	switch ch {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func isHex(ch byte) bool {
	return ('0' <= ch && ch <= '9') || ('a' <= ch && ch <= 'f') || ('A' <= ch && ch <= 'F')
}

func unhex(ch byte) byte {
	switch {
	case '0' <= ch && ch <= '9':
		return ch - '0'
	case 'a' <= ch && ch <= 'f':
		return ch - 'a' + 10
	}
	return ch - 'A' + 10
}
