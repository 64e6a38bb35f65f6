package container

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/richardlehane/mscfb"
)

var ole2HeaderSig = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// OLE2Capability reads compound file binary (OLE2) containers.
type OLE2Capability struct{}

func (OLE2Capability) Type() Type {
	return OLE2
}

// Probe checks the compound file header signature.
func (OLE2Capability) Probe(r io.ReaderAt, size int64) bool {
	if size < int64(len(ole2HeaderSig)) {
		return false
	}

	var hdr [8]byte
	if _, err := r.ReadAt(hdr[:], 0); err != nil {
		return false
	}
	return bytes.Equal(hdr[:], ole2HeaderSig)
}

func (OLE2Capability) Open(r io.ReaderAt, size int64) (Archive, error) {
	doc, err := mscfb.New(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidContainer, err)
	}

	a := &ole2Archive{
		entries: make(map[string]*mscfb.File),
		data:    make(map[string][]byte),
	}
	for {
		entry, err := doc.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidContainer, err)
		}

		path := entryPath(entry)
		if _, dup := a.entries[path]; dup {
			continue
		}
		a.entries[path] = entry
		a.paths = append(a.paths, path)
	}
	return a, nil
}

// entryPath joins the storage path and the entry name with "/".
func entryPath(f *mscfb.File) string {
	parts := make([]string, 0, len(f.Path)+1)
	parts = append(parts, f.Path...)
	parts = append(parts, f.Name)
	return strings.Join(parts, "/")
}

// ole2Archive is used by a single goroutine. Streams can only be read once,
// so their content is kept after the first read.
type ole2Archive struct {
	entries map[string]*mscfb.File
	paths   []string
	data    map[string][]byte
}

func (a *ole2Archive) Members() []string {
	return a.paths
}

// Lookup accepts the first entry path that equals or contains path, so that
// signatures may name a stream without its full storage path.
func (a *ole2Archive) Lookup(path string) (string, bool) {
	if _, ok := a.entries[path]; ok {
		return path, true
	}
	for _, p := range a.paths {
		if strings.Contains(p, path) {
			return p, true
		}
	}
	return "", false
}

func (a *ole2Archive) ReadMember(name string, limit int64) ([]byte, error) {
	f, ok := a.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMemberNotFound, name)
	}
	if data, ok := a.data[name]; ok {
		return data, nil
	}

	data, err := readLimited(f, f.Size, limit)
	if err != nil {
		return nil, err
	}
	a.data[name] = data
	return data, nil
}

func (a *ole2Archive) Close() error {
	return nil
}
