package droid_test

import (
	"strings"
	"testing"

	"github.com/ostafen/pronomid/internal/container"
	"github.com/ostafen/pronomid/internal/droid"
	"github.com/ostafen/pronomid/internal/sequence"
	"github.com/ostafen/pronomid/internal/signature"
	"github.com/stretchr/testify/require"
)

const signatureFile = `<?xml version="1.0" encoding="UTF-8"?>
<FFSignatureFile xmlns="http://www.nationalarchives.gov.uk/pronom/SignatureFile" Version="120" DateCreated="2024-09-24T12:00:00">
  <InternalSignatureCollection>
    <InternalSignature ID="200" Specificity="Specific">
      <ByteSequence Reference="BOFoffset">
        <SubSequence Position="1" SubSeqMinOffset="0">
          <Sequence>504B0304</Sequence>
        </SubSequence>
      </ByteSequence>
    </InternalSignature>
    <InternalSignature ID="300" Specificity="Specific">
      <ByteSequence Reference="BOFoffset">
        <SubSequence Position="1" SubSeqMinOffset="0" SubSeqMaxOffset="0">
          <Sequence>255044462D</Sequence>
        </SubSequence>
      </ByteSequence>
      <ByteSequence Reference="EOFoffset">
        <SubSequence Position="1" SubSeqMinOffset="0" SubSeqMaxOffset="8">
          <Sequence>2525454F46</Sequence>
        </SubSequence>
      </ByteSequence>
    </InternalSignature>
    <InternalSignature ID="400" Specificity="Generic">
      <ByteSequence>
        <SubSequence Position="1" SubSeqMinOffset="4" SubSeqMaxOffset="1">
          <Sequence>FF</Sequence>
        </SubSequence>
      </ByteSequence>
    </InternalSignature>
    <InternalSignature ID="500" Specificity="Generic">
      <ByteSequence Reference="Variable">
        <SubSequence Position="1">
          <Sequence>4D5A{2}50</Sequence>
        </SubSequence>
      </ByteSequence>
    </InternalSignature>
  </InternalSignatureCollection>
  <FileFormatCollection>
    <FileFormat ID="1" Name="ZIP Format" PUID="x-fmt/263" Version="2.0" MIMEType="application/zip">
      <InternalSignatureID>200</InternalSignatureID>
      <Extension>zip</Extension>
    </FileFormat>
    <FileFormat ID="2" Name="Acrobat PDF 1.4" PUID="fmt/18" Version="1.4" MIMEType="application/pdf">
      <InternalSignatureID>300</InternalSignatureID>
      <Extension>pdf</Extension>
      <HasPriorityOverFileFormatID>3</HasPriorityOverFileFormatID>
    </FileFormat>
    <FileFormat ID="3" Name="Microsoft Word for Windows" PUID="fmt/412" Version="2007 onwards" MIMEType="application/vnd.openxmlformats-officedocument.wordprocessingml.document">
      <Extension>docx</Extension>
    </FileFormat>
    <FileFormat ID="4" Name="Plain Text File" PUID="x-fmt/111" MIMEType="text/plain">
      <Extension>txt</Extension>
    </FileFormat>
  </FileFormatCollection>
</FFSignatureFile>
`

const containerFile = `<?xml version="1.0" encoding="UTF-8"?>
<ContainerSignatureMapping schemaVersion="1.0" signatureVersion="38">
  <ContainerSignatures>
    <ContainerSignature Id="1000" ContainerType="ZIP">
      <Description>Microsoft Word OOXML</Description>
      <Files>
        <File>
          <Path>[Content_Types].xml</Path>
        </File>
        <File>
          <Path>word/document.xml</Path>
          <BinarySignatures>
            <InternalSignatureCollection>
              <InternalSignature ID="1">
                <ByteSequence Reference="BOFoffset">
                  <SubSequence Position="1" SubSeqMinOffset="0" SubSeqMaxOffset="16">
                    <Sequence>'&lt;?xml'</Sequence>
                  </SubSequence>
                </ByteSequence>
              </InternalSignature>
            </InternalSignatureCollection>
          </BinarySignatures>
        </File>
      </Files>
    </ContainerSignature>
    <ContainerSignature Id="1020" ContainerType="OLE2">
      <Description>Microsoft Word 97</Description>
      <Files>
        <File>
          <Path>WordDocument</Path>
          <BinarySignatures>
            <InternalSignatureCollection>
              <InternalSignature ID="2">
                <ByteSequence Reference="BOFoffset">
                  <SubSequence Position="1" SubSeqMinOffset="0">
                    <Sequence>'abc</Sequence>
                  </SubSequence>
                </ByteSequence>
              </InternalSignature>
            </InternalSignatureCollection>
          </BinarySignatures>
        </File>
      </Files>
    </ContainerSignature>
    <ContainerSignature Id="1030" ContainerType="TAR">
      <Files>
        <File>
          <Path>ustar</Path>
        </File>
      </Files>
    </ContainerSignature>
  </ContainerSignatures>
  <FileFormatMappings>
    <FileFormatMapping signatureId="1000" Puid="fmt/412"/>
    <FileFormatMapping signatureId="1020" Puid="fmt/40"/>
  </FileFormatMappings>
  <TriggerPuids>
    <TriggerPuid ContainerType="ZIP" Puid="x-fmt/263"/>
    <TriggerPuid ContainerType="OLE2" Puid="fmt/111"/>
    <TriggerPuid ContainerType="TAR" Puid="x-fmt/265"/>
  </TriggerPuids>
</ContainerSignatureMapping>
`

func TestLoadSignatureFile(t *testing.T) {
	sf, err := droid.LoadSignatureFile(strings.NewReader(signatureFile), nil)
	require.NoError(t, err)
	require.Equal(t, "120", sf.Version)

	// 400 has max < min and is dropped
	require.Len(t, sf.Signatures, 3)
	require.Equal(t, "200", sf.Signatures[0].ID)
	require.Equal(t, "300", sf.Signatures[1].ID)
	require.Equal(t, "500", sf.Signatures[2].ID)

	zip := sf.Signatures[0].Sequences[0]
	require.Equal(t, signature.BOF, zip.Location)
	require.Equal(t, 0, zip.MinOffset)
	require.Equal(t, 0, zip.MaxOffset)

	pdf := sf.Signatures[1]
	require.Len(t, pdf.Sequences, 2)
	require.Equal(t, signature.EOF, pdf.Sequences[1].Location)
	require.Equal(t, 8, pdf.Sequences[1].MaxOffset)
	require.NoError(t, pdf.Err())

	bad := sf.Signatures[2]
	require.Equal(t, signature.ANY, bad.Sequences[0].Location)
	require.ErrorIs(t, bad.Err(), sequence.ErrMalformedSequence)

	require.Equal(t, 4, sf.Formats.Len())
	pdfFormats := sf.Formats.BySignature("300")
	require.Len(t, pdfFormats, 1)
	require.Equal(t, "fmt/18", pdfFormats[0].PUID)
	require.Equal(t, []string{"pdf"}, pdfFormats[0].Extensions)
	require.Equal(t, []string{"3"}, pdfFormats[0].PriorityOver)
	require.Equal(t, "Acrobat PDF 1.4 1.4", pdfFormats[0].String())

	docx := sf.Formats.ByPUID("fmt/412")
	require.NotNil(t, docx)
	require.Empty(t, docx.SignatureIDs)
}

func TestLoadSignatureFileInvalid(t *testing.T) {
	_, err := droid.LoadSignatureFile(strings.NewReader("<FFSignatureFile><broken"), nil)
	require.ErrorIs(t, err, droid.ErrInvalidSignatureFile)

	_, err = droid.LoadSignatureFile(strings.NewReader("<Other/>"), nil)
	require.ErrorIs(t, err, droid.ErrInvalidSignatureFile)
}

func TestLoadContainerFile(t *testing.T) {
	db, err := droid.LoadContainerFile(strings.NewReader(containerFile), nil)
	require.NoError(t, err)

	require.Len(t, db.Signatures, 2)

	word := db.Signatures[0]
	require.Equal(t, "1000", word.ID)
	require.Equal(t, container.ZIP, word.Type)
	require.Len(t, word.Files, 2)
	require.Equal(t, "[Content_Types].xml", word.Files[0].Path)
	require.Empty(t, word.Files[0].Signatures)

	member := word.Files[1].Signatures[0]
	require.NoError(t, member.Err)
	require.True(t, member.Match(signature.Window{Head: []byte("\xEF\xBB\xBF<?xml version")}))
	require.False(t, member.Match(signature.Window{Head: []byte("<w:document/>")}))

	ole := db.Signatures[1]
	require.Equal(t, container.OLE2, ole.Type)
	require.ErrorIs(t, ole.Files[0].Signatures[0].Err, sequence.ErrMalformedSequence)

	require.Equal(t, map[string]string{"1000": "fmt/412", "1020": "fmt/40"}, db.PUIDs)

	typ, ok := db.Trigger("x-fmt/263")
	require.True(t, ok)
	require.Equal(t, container.ZIP, typ)

	_, ok = db.Trigger("x-fmt/265")
	require.False(t, ok)
}
