package droid

import "encoding/xml"

// Element names follow the DROID signature file schema. Namespaces are not
// checked: encoding/xml matches unqualified tags in any namespace.

type ffSignatureFile struct {
	XMLName     xml.Name         `xml:"FFSignatureFile"`
	Version     string           `xml:"Version,attr"`
	DateCreated string           `xml:"DateCreated,attr"`
	Signatures  []xmlInternalSig `xml:"InternalSignatureCollection>InternalSignature"`
	Formats     []xmlFileFormat  `xml:"FileFormatCollection>FileFormat"`
}

type xmlInternalSig struct {
	ID            string            `xml:"ID,attr"`
	ByteSequences []xmlByteSequence `xml:"ByteSequence"`
}

type xmlByteSequence struct {
	Reference    string           `xml:"Reference,attr"`
	SubSequences []xmlSubSequence `xml:"SubSequence"`
}

type xmlSubSequence struct {
	MinOffset string `xml:"SubSeqMinOffset,attr"`
	MaxOffset string `xml:"SubSeqMaxOffset,attr"`
	Sequence  string `xml:"Sequence"`
}

type xmlFileFormat struct {
	ID           string   `xml:"ID,attr"`
	Name         string   `xml:"Name,attr"`
	Version      string   `xml:"Version,attr"`
	PUID         string   `xml:"PUID,attr"`
	MIMEType     string   `xml:"MIMEType,attr"`
	SignatureIDs []string `xml:"InternalSignatureID"`
	Extensions   []string `xml:"Extension"`
	PriorityOver []string `xml:"HasPriorityOverFileFormatID"`
}

type containerSignatureMapping struct {
	XMLName          xml.Name           `xml:"ContainerSignatureMapping"`
	SignatureVersion string             `xml:"signatureVersion,attr"`
	Signatures       []xmlContainerSig  `xml:"ContainerSignatures>ContainerSignature"`
	Mappings         []xmlFormatMapping `xml:"FileFormatMappings>FileFormatMapping"`
	Triggers         []xmlTriggerPUID   `xml:"TriggerPuids>TriggerPuid"`
}

type xmlContainerSig struct {
	ID          string             `xml:"Id,attr"`
	Type        string             `xml:"ContainerType,attr"`
	Description string             `xml:"Description"`
	Files       []xmlContainerFile `xml:"Files>File"`
}

type xmlContainerFile struct {
	Path       string           `xml:"Path"`
	Signatures []xmlInternalSig `xml:"BinarySignatures>InternalSignatureCollection>InternalSignature"`
}

type xmlFormatMapping struct {
	SignatureID string `xml:"signatureId,attr"`
	PUID        string `xml:"Puid,attr"`
}

type xmlTriggerPUID struct {
	Type string `xml:"ContainerType,attr"`
	PUID string `xml:"Puid,attr"`
}
