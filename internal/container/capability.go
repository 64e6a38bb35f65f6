package container

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

var (
	ErrInvalidContainer  = errors.New("invalid container")
	ErrMissingCapability = errors.New("container capability not available")
	ErrMemberNotFound    = errors.New("container member not found")
	ErrMemberTooLarge    = errors.New("container member exceeds size limit")
)

// Archive is an opened container.
type Archive interface {
	// Members lists every member path in container order.
	Members() []string
	// Lookup resolves a path required by a signature to an actual member
	// path, following the lookup rule of the container type.
	Lookup(path string) (string, bool)
	// ReadMember returns the full content of a member. Members larger than
	// limit bytes are rejected with ErrMemberTooLarge.
	ReadMember(name string, limit int64) ([]byte, error)
	Close() error
}

// Capability opens containers of one type.
type Capability interface {
	Type() Type
	// Probe reports whether r looks like a container of this type.
	Probe(r io.ReaderAt, size int64) bool
	// Open parses the container directory of r.
	Open(r io.ReaderAt, size int64) (Archive, error)
}

// Unavailable stands in for a container type that cannot be parsed in the
// current build or configuration.
type Unavailable struct {
	Kind Type
}

func (u Unavailable) Type() Type {
	return u.Kind
}

func (Unavailable) Probe(io.ReaderAt, int64) bool {
	return false
}

func (u Unavailable) Open(io.ReaderAt, int64) (Archive, error) {
	return nil, fmt.Errorf("%w: %s", ErrMissingCapability, u.Kind)
}

// DefaultCapabilities returns the capabilities compiled into this build.
func DefaultCapabilities() []Capability {
	return []Capability{
		ZipCapability{},
		OLE2Capability{},
	}
}

func readLimited(r io.Reader, size, limit int64) ([]byte, error) {
	if limit > 0 && size > limit {
		return nil, fmt.Errorf("%w: %d > %d", ErrMemberTooLarge, size, limit)
	}

	var buf bytes.Buffer
	if size > 0 {
		buf.Grow(int(size))
	}

	src := r
	if limit > 0 {
		// the index may understate the real size
		src = io.LimitReader(r, limit+1)
	}
	if _, err := buf.ReadFrom(src); err != nil {
		return nil, err
	}
	if limit > 0 && int64(buf.Len()) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrMemberTooLarge, limit)
	}
	return buf.Bytes(), nil
}
