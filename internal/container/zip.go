package container

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
)

const (
	// eocdSearchSize bounds the search for the end of central directory
	// record: 22 bytes of fixed record plus a comment of at most 64KB.
	eocdSearchSize = 22 + 0xFFFF
)

var zipEndCentralDirSig = []byte{'P', 'K', 0x05, 0x06}

// ZipCapability reads ZIP archives through their central directory.
type ZipCapability struct{}

func (ZipCapability) Type() Type {
	return ZIP
}

// Probe looks for the end of central directory signature near the end of r.
func (ZipCapability) Probe(r io.ReaderAt, size int64) bool {
	n := min(size, eocdSearchSize)
	if n < int64(len(zipEndCentralDirSig)) {
		return false
	}

	buf := make([]byte, n)
	if _, err := r.ReadAt(buf, size-n); err != nil && err != io.EOF {
		return false
	}
	return bytes.LastIndex(buf, zipEndCentralDirSig) >= 0
}

func (ZipCapability) Open(r io.ReaderAt, size int64) (Archive, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidContainer, err)
	}

	a := &zipArchive{
		files: make(map[string]*zip.File, len(zr.File)),
		names: make([]string, 0, len(zr.File)),
	}
	for _, f := range zr.File {
		if _, dup := a.files[f.Name]; dup {
			continue
		}
		a.files[f.Name] = f
		a.names = append(a.names, f.Name)
	}
	return a, nil
}

type zipArchive struct {
	files map[string]*zip.File
	names []string
}

func (a *zipArchive) Members() []string {
	return a.names
}

// Lookup requires an exact member name.
func (a *zipArchive) Lookup(path string) (string, bool) {
	_, ok := a.files[path]
	return path, ok
}

func (a *zipArchive) ReadMember(name string, limit int64) ([]byte, error) {
	f, ok := a.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMemberNotFound, name)
	}

	size := int64(f.UncompressedSize64)
	if limit > 0 && f.UncompressedSize64 > uint64(limit) {
		return nil, fmt.Errorf("%w: %s (%d bytes)", ErrMemberTooLarge, name, f.UncompressedSize64)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open zip member %q: %w", name, err)
	}
	defer rc.Close()

	return readLimited(rc, size, limit)
}

func (a *zipArchive) Close() error {
	return nil
}
