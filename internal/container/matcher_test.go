package container_test

import (
	"archive/zip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ostafen/pronomid/internal/container"
	"github.com/ostafen/pronomid/internal/sequence"
	"github.com/ostafen/pronomid/internal/signature"
	"github.com/stretchr/testify/require"
)

func subSequence(t *testing.T, text string, ref signature.Location, minOff, maxOff int) container.SubSequence {
	t.Helper()

	p, err := sequence.Compile(text)
	require.NoError(t, err)

	sub, err := container.NewSubSequence(p, ref, minOff, maxOff)
	require.NoError(t, err)
	return sub
}

func internalSignature(subs ...container.SubSequence) *container.InternalSignature {
	return &container.InternalSignature{
		ByteSequences: []container.ByteSequence{{SubSequences: subs}},
	}
}

func writeZip(t *testing.T, members map[string]string, order ...string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "archive.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for _, name := range order {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(members[name]))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return path
}

func docxDatabase(t *testing.T) *container.Database {
	return &container.Database{
		Signatures: []*container.Signature{
			{
				ID:   "1000",
				Type: container.ZIP,
				Files: []container.FileEntry{
					{Path: "[Content_Types].xml"},
					{
						Path: "word/document.xml",
						Signatures: []*container.InternalSignature{
							internalSignature(subSequence(t, "3C 3F 78 6D 6C", signature.BOF, 0, 0)),
						},
					},
				},
			},
			{
				ID:   "1010",
				Type: container.ZIP,
				Files: []container.FileEntry{
					{Path: "xl/workbook.xml"},
				},
			},
			{
				ID:   "1020",
				Type: container.OLE2,
				Files: []container.FileEntry{
					{Path: "WordDocument"},
				},
			},
		},
		PUIDs: map[string]string{
			"1000": "fmt/412",
			"1010": "fmt/214",
		},
		Triggers: map[string]container.Type{
			"x-fmt/263": container.ZIP,
			"fmt/111":   container.OLE2,
		},
	}
}

func TestSubSequenceBOFWindow(t *testing.T) {
	sub := subSequence(t, "'AB'", signature.BOF, 0, 3)

	require.True(t, sub.Match([]byte("xxAByyy")))
	require.False(t, sub.Match([]byte("xxxxxAB")))
}

func TestSubSequenceBOFScansPastEarlyOccurrences(t *testing.T) {
	sub := subSequence(t, "'AB'", signature.BOF, 4, 6)

	require.True(t, sub.Match([]byte("ABxxxAB")))
	require.False(t, sub.Match([]byte("ABxxxxxxAB")))
}

func TestSubSequenceEOFWindow(t *testing.T) {
	sub := subSequence(t, "'END'", signature.EOF, 0, 0)

	require.True(t, sub.Match([]byte("....END")))
	require.False(t, sub.Match([]byte("....END.")))
	require.True(t, sub.Match([]byte("END....END")))

	// distance is counted from the end of the occurrence
	sub = subSequence(t, "'END'", signature.EOF, 3, 3)
	require.False(t, sub.Match([]byte("....END")))
	require.True(t, sub.Match([]byte("...END...")))
	require.True(t, sub.Match([]byte("END...")))
}

func TestSubSequenceUnanchored(t *testing.T) {
	sub := subSequence(t, "'needle'", signature.ANY, 0, 0)

	require.True(t, sub.Match([]byte(strings.Repeat("hay", 100)+"needle")))
	require.False(t, sub.Match([]byte("haystack")))
}

func TestNewSubSequenceValidatesOffsets(t *testing.T) {
	_, err := container.NewSubSequence(sequence.MustCompile("00"), signature.BOF, 2, 1)
	require.ErrorIs(t, err, signature.ErrInvalidOffsets)
}

func TestInternalSignatureWithErrorNeverMatches(t *testing.T) {
	sig := internalSignature(subSequence(t, "00", signature.ANY, 0, 0))
	sig.Err = sequence.ErrMalformedSequence

	require.False(t, sig.Match(signature.Window{Head: []byte{0}, Tail: []byte{0}}))
}

func TestInternalSignatureANDsByteSequences(t *testing.T) {
	sig := &container.InternalSignature{
		ByteSequences: []container.ByteSequence{
			{SubSequences: []container.SubSequence{subSequence(t, "'<?xml'", signature.BOF, 0, 0)}},
			{SubSequences: []container.SubSequence{subSequence(t, "'</w:document>'", signature.EOF, 0, 4)}},
		},
	}

	ok := []byte("<?xml version='1.0'?><w:document></w:document>\r\n")
	require.True(t, sig.Match(signature.Window{Head: ok, Tail: ok}))

	bad := []byte("<?xml version='1.0'?><w:document>")
	require.False(t, sig.Match(signature.Window{Head: bad, Tail: bad}))
}

func TestMatchZip(t *testing.T) {
	path := writeZip(t, map[string]string{
		"[Content_Types].xml": "<Types/>",
		"word/document.xml":   "<?xml version=\"1.0\"?><w:document/>",
	}, "[Content_Types].xml", "word/document.xml")

	m := container.NewMatcher(docxDatabase(t), nil, container.DefaultOptions(), container.DefaultCapabilities()...)

	ids := m.Match(context.Background(), path, container.ZIP)
	require.Equal(t, []string{"1000"}, ids)

	puids := m.Refine(context.Background(), path, "x-fmt/263")
	require.Equal(t, []string{"fmt/412"}, puids)
}

func TestMatchZipRejectsMemberContent(t *testing.T) {
	path := writeZip(t, map[string]string{
		"[Content_Types].xml": "<Types/>",
		"word/document.xml":   "not xml",
	}, "[Content_Types].xml", "word/document.xml")

	m := container.NewMatcher(docxDatabase(t), nil, container.DefaultOptions(), container.DefaultCapabilities()...)
	require.Empty(t, m.Match(context.Background(), path, container.ZIP))
}

func TestMatchZipRequiresEveryPath(t *testing.T) {
	path := writeZip(t, map[string]string{
		"word/document.xml": "<?xml?>",
	}, "word/document.xml")

	m := container.NewMatcher(docxDatabase(t), nil, container.DefaultOptions(), container.DefaultCapabilities()...)
	require.Empty(t, m.Match(context.Background(), path, container.ZIP))
}

func TestMatchZipMemberSizeLimit(t *testing.T) {
	path := writeZip(t, map[string]string{
		"[Content_Types].xml": "<Types/>",
		"word/document.xml":   "<?xml" + strings.Repeat(" ", 1024),
	}, "[Content_Types].xml", "word/document.xml")

	m := container.NewMatcher(docxDatabase(t), nil, container.Options{MaxMemberSize: 64}, container.DefaultCapabilities()...)
	require.Empty(t, m.Match(context.Background(), path, container.ZIP))
}

func TestRefineDropsUnmappedSignatures(t *testing.T) {
	db := docxDatabase(t)
	delete(db.PUIDs, "1000")

	path := writeZip(t, map[string]string{
		"[Content_Types].xml": "<Types/>",
		"word/document.xml":   "<?xml?>",
	}, "[Content_Types].xml", "word/document.xml")

	m := container.NewMatcher(db, nil, container.DefaultOptions(), container.DefaultCapabilities()...)
	require.Equal(t, []string{"1000"}, m.Match(context.Background(), path, container.ZIP))
	require.Empty(t, m.Refine(context.Background(), path, "x-fmt/263"))
}

func TestRefineIgnoresNonTriggers(t *testing.T) {
	path := writeZip(t, map[string]string{
		"xl/workbook.xml": "",
	}, "xl/workbook.xml")

	m := container.NewMatcher(docxDatabase(t), nil, container.DefaultOptions(), container.DefaultCapabilities()...)
	require.Empty(t, m.Refine(context.Background(), path, "fmt/999"))
	require.Empty(t, m.Refine(context.Background(), path, ""))
	require.Equal(t, []string{"fmt/214"}, m.Refine(context.Background(), path, "x-fmt/263"))
}

func TestMatchInvalidZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.zip")
	require.NoError(t, os.WriteFile(path, []byte("PK this is not a zip archive"), 0644))

	m := container.NewMatcher(docxDatabase(t), nil, container.DefaultOptions(), container.DefaultCapabilities()...)
	require.Empty(t, m.Match(context.Background(), path, container.ZIP))
}

func TestMatchMissingCapability(t *testing.T) {
	path := writeZip(t, map[string]string{
		"xl/workbook.xml": "",
	}, "xl/workbook.xml")

	m := container.NewMatcher(docxDatabase(t), nil, container.DefaultOptions(), container.Unavailable{Kind: container.ZIP})
	require.IsType(t, container.Unavailable{}, m.Capability(container.ZIP))
	require.Empty(t, m.Match(context.Background(), path, container.ZIP))

	m = container.NewMatcher(docxDatabase(t), nil, container.DefaultOptions())
	require.Empty(t, m.Match(context.Background(), path, container.ZIP))
}

func TestMatchNonOLE2File(t *testing.T) {
	path := writeZip(t, map[string]string{"WordDocument": ""}, "WordDocument")

	m := container.NewMatcher(docxDatabase(t), nil, container.DefaultOptions(), container.DefaultCapabilities()...)
	require.Empty(t, m.Match(context.Background(), path, container.OLE2))
}

// fakeArchive resolves paths by substring, like an OLE2 compound file.
type fakeArchive struct {
	paths   []string
	streams map[string][]byte
}

func (a *fakeArchive) Members() []string { return a.paths }

func (a *fakeArchive) Lookup(path string) (string, bool) {
	for _, p := range a.paths {
		if strings.Contains(p, path) {
			return p, true
		}
	}
	return "", false
}

func (a *fakeArchive) ReadMember(name string, limit int64) ([]byte, error) {
	data, ok := a.streams[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", container.ErrMemberNotFound, name)
	}
	return data, nil
}

func (a *fakeArchive) Close() error { return nil }

func TestMatchArchiveRelaxedLookup(t *testing.T) {
	db := &container.Database{
		Signatures: []*container.Signature{
			{
				ID:   "2000",
				Type: container.OLE2,
				Files: []container.FileEntry{
					{
						Path: "CompObj",
						Signatures: []*container.InternalSignature{
							internalSignature(subSequence(t, "'Excel'", signature.ANY, 0, 0)),
							internalSignature(subSequence(t, "'Word.Document.'['6'-'8']", signature.ANY, 0, 0)),
						},
					},
				},
			},
			{
				ID:    "2010",
				Type:  container.OLE2,
				Files: []container.FileEntry{{Path: "PowerPoint Document"}},
			},
		},
	}

	a := &fakeArchive{
		paths: []string{"Root/\x01CompObj", "Root/WordDocument"},
		streams: map[string][]byte{
			"Root/\x01CompObj": []byte("\x01\x00Microsoft Word-Dokument\x00Word.Document.8\x00"),
		},
	}

	m := container.NewMatcher(db, nil, container.DefaultOptions(), container.DefaultCapabilities()...)
	ids, err := m.MatchArchive(context.Background(), a, container.OLE2)
	require.NoError(t, err)
	require.Equal(t, []string{"2000"}, ids)
}

func TestMatchArchiveHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := container.NewMatcher(docxDatabase(t), nil, container.DefaultOptions(), container.DefaultCapabilities()...)
	_, err := m.MatchArchive(ctx, &fakeArchive{}, container.ZIP)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRefineCompoundFile(t *testing.T) {
	wordDocument := func(text string) container.FileEntry {
		return container.FileEntry{
			Path: "WordDocument",
			Signatures: []*container.InternalSignature{
				internalSignature(subSequence(t, text, signature.BOF, 0, 0)),
			},
		}
	}

	db := &container.Database{
		Signatures: []*container.Signature{
			{
				ID:    "1030",
				Type:  container.OLE2,
				Files: []container.FileEntry{{Path: "CompObj"}, wordDocument("EC A5")},
			},
			{
				ID:    "1040",
				Type:  container.OLE2,
				Files: []container.FileEntry{wordDocument("DC A5")},
			},
			{
				ID:    "1050",
				Type:  container.OLE2,
				Files: []container.FileEntry{{Path: "Workbook"}},
			},
			{
				// reads WordDocument again after 1030 and 1040
				ID:    "1060",
				Type:  container.OLE2,
				Files: []container.FileEntry{wordDocument("EC A5 C1 00")},
			},
		},
		PUIDs: map[string]string{
			"1030": "fmt/40",
			"1040": "fmt/38",
			"1050": "fmt/59",
		},
		Triggers: map[string]container.Type{"fmt/111": container.OLE2},
	}

	m := container.NewMatcher(db, nil, container.DefaultOptions(), container.DefaultCapabilities()...)
	require.Equal(t, []string{"1030", "1060"}, m.Match(context.Background(), "testdata/test.doc", container.OLE2))
	require.Equal(t, []string{"fmt/40"}, m.Refine(context.Background(), "testdata/test.doc", "fmt/111"))
}
