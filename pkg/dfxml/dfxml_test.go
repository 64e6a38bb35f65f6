package dfxml

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteAndReadReport(t *testing.T) {
	var buf bytes.Buffer

	w := NewWriter(&buf)
	require.NoError(t, w.WriteHeader(DFXMLHeader{
		XmlOutput: XmlOutputVersion,
		Metadata:  DefaultMetadata,
		Creator: Creator{
			Package:              "pronomid",
			Version:              "dev",
			ExecutionEnvironment: GetExecEnv(),
		},
		Source: Source{
			Roots:            []string{"/data/in"},
			SignatureFile:    "DROID_SignatureFile_V120.xml",
			SignatureVersion: "120",
		},
	}))

	objs := []FileObject{
		{
			Filename: "/data/in/report.docx",
			FileSize: 2048,
			Identification: &Identification{
				SignatureID: "200",
				PUID:        "fmt/412",
				Name:        "Microsoft Word for Windows",
				Version:     "2007 onwards",
				Basis:       "container",
				BasePUIDs:   []string{"x-fmt/263"},
			},
		},
		{Filename: "/data/in/notes.bin", FileSize: 12},
		{Filename: "/data/in/locked", Error: "permission denied"},
	}
	for _, o := range objs {
		require.NoError(t, w.WriteFileObject(o))
	}
	require.NoError(t, w.Close())

	read, err := ReadFileObjects(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, read, 3)

	require.True(t, read[0].Identified())
	require.Equal(t, *objs[0].Identification, *read[0].Identification)
	require.Equal(t, uint64(2048), read[0].FileSize)

	require.False(t, read[1].Identified())
	require.Nil(t, read[1].Identification)
	require.Equal(t, "permission denied", read[2].Error)

	src, err := ReadSource(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, []string{"/data/in"}, src.Roots)
	require.Equal(t, "120", src.SignatureVersion)
}

func TestReadFileObjectsMalformed(t *testing.T) {
	_, err := ReadFileObjects(bytes.NewReader([]byte("<dfxml><fileobject><filename>a</filename>")))
	require.Error(t, err)
}
