package container

import (
	"bytes"
	"os"
	"testing"

	"github.com/richardlehane/mscfb"
	"github.com/stretchr/testify/require"
)

func TestOLE2Lookup(t *testing.T) {
	a := &ole2Archive{
		entries: map[string]*mscfb.File{
			"\x05SummaryInformation": nil,
			"Macros/VBA/dir":         nil,
			"WordDocument":           nil,
		},
		paths: []string{"\x05SummaryInformation", "Macros/VBA/dir", "WordDocument"},
	}

	name, ok := a.Lookup("WordDocument")
	require.True(t, ok)
	require.Equal(t, "WordDocument", name)

	name, ok = a.Lookup("VBA/dir")
	require.True(t, ok)
	require.Equal(t, "Macros/VBA/dir", name)

	name, ok = a.Lookup("SummaryInformation")
	require.True(t, ok)
	require.Equal(t, "\x05SummaryInformation", name)

	_, ok = a.Lookup("Workbook")
	require.False(t, ok)
}

func TestOLE2Probe(t *testing.T) {
	hdr := append(append([]byte{}, ole2HeaderSig...), make([]byte, 504)...)
	require.True(t, OLE2Capability{}.Probe(bytes.NewReader(hdr), int64(len(hdr))))

	require.False(t, OLE2Capability{}.Probe(bytes.NewReader([]byte("PK\x03\x04")), 4))
}

func TestOLE2OpenInvalid(t *testing.T) {
	hdr := append(append([]byte{}, ole2HeaderSig...), make([]byte, 16)...)

	_, err := OLE2Capability{}.Open(bytes.NewReader(hdr), int64(len(hdr)))
	require.ErrorIs(t, err, ErrInvalidContainer)
}

func openTestDoc(t *testing.T) Archive {
	t.Helper()

	f, err := os.Open("testdata/test.doc")
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })

	fi, err := f.Stat()
	require.NoError(t, err)
	size := fi.Size()
	require.True(t, OLE2Capability{}.Probe(f, size))

	a, err := OLE2Capability{}.Open(f, size)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestOLE2OpenCompoundFile(t *testing.T) {
	a := openTestDoc(t)

	require.ElementsMatch(t, []string{
		"Data",
		"1Table",
		"\x01CompObj",
		"WordDocument",
		"\x05SummaryInformation",
		"\x05DocumentSummaryInformation",
	}, a.Members())

	name, ok := a.Lookup("CompObj")
	require.True(t, ok)
	require.Equal(t, "\x01CompObj", name)

	name, ok = a.Lookup("WordDocument")
	require.True(t, ok)
	require.Equal(t, "WordDocument", name)
}

func TestOLE2ReadMemberTwice(t *testing.T) {
	a := openTestDoc(t)

	first, err := a.ReadMember("WordDocument", DefaultMaxMemberSize)
	require.NoError(t, err)
	require.Len(t, first, 744500)
	require.Equal(t, []byte{0xEC, 0xA5, 0xC1, 0x00}, first[:4])

	second, err := a.ReadMember("WordDocument", DefaultMaxMemberSize)
	require.NoError(t, err)
	require.Equal(t, first, second)

	compObj, err := a.ReadMember("\x01CompObj", DefaultMaxMemberSize)
	require.NoError(t, err)
	require.Len(t, compObj, 113)

	_, err = a.ReadMember("Workbook", DefaultMaxMemberSize)
	require.ErrorIs(t, err, ErrMemberNotFound)
}

func TestOLE2ReadMemberLimit(t *testing.T) {
	a := openTestDoc(t)

	_, err := a.ReadMember("WordDocument", 1024)
	require.ErrorIs(t, err, ErrMemberTooLarge)
}

func TestZipProbe(t *testing.T) {
	eocd := append([]byte("garbage"), 'P', 'K', 0x05, 0x06)
	eocd = append(eocd, make([]byte, 18)...)
	require.True(t, ZipCapability{}.Probe(bytes.NewReader(eocd), int64(len(eocd))))

	require.False(t, ZipCapability{}.Probe(bytes.NewReader([]byte("PK\x03\x04")), 4))
	require.False(t, ZipCapability{}.Probe(bytes.NewReader(nil), 0))
}
