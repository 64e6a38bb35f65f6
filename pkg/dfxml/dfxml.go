// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
package dfxml

import (
	"encoding/xml"
	"os"
	"os/user"
	"runtime"
	"strconv"
	"time"

	"github.com/ostafen/pronomid/pkg/sysinfo"
)

const XmlOutputVersion = "1.0"

var DefaultMetadata = Metadata{
	Xmlns:    "http://www.forensicswiki.org/wiki/Category:Digital_Forensics_XML",
	XmlnsXsi: "http://www.w3.org/2001/XMLSchema-instance",
	XmlnsDC:  "http://purl.org/dc/elements/1.1/",
	Type:     "Format Identification Report",
}

// DFXMLHeader represents the root element of a DFXML document.
type DFXMLHeader struct {
	XMLName   xml.Name `xml:"dfxml"`
	XmlOutput string   `xml:"xmloutputversion,attr,omitempty"`
	Metadata  Metadata `xml:"metadata"`
	Creator   Creator  `xml:"creator"`
	Source    Source   `xml:"source"`
}

type Metadata struct {
	Xmlns    string `xml:"xmlns,attr"`
	XmlnsXsi string `xml:"xmlns:xsi,attr"`
	XmlnsDC  string `xml:"xmlns:dc,attr"`
	Type     string `xml:"dc:type"`
}

// Creator describes the software and environment used to generate the report.
type Creator struct {
	Package              string  `xml:"package"`
	Version              string  `xml:"version"`
	ExecutionEnvironment ExecEnv `xml:"execution_environment"`
}

// ExecEnv provides information about the operating system and host where the report was created.
type ExecEnv struct {
	OS      string `xml:"os_sysname"`
	Release string `xml:"os_release"`
	Version string `xml:"os_version"`
	Host    string `xml:"host"`
	Arch    string `xml:"arch"`
	UID     int    `xml:"uid"`
	Start   string `xml:"start_time"`
}

// Source describes what was identified and with which signature database.
type Source struct {
	Roots                  []string `xml:"root"`
	SignatureFile          string   `xml:"signature_file"`
	SignatureVersion       string   `xml:"signature_version,omitempty"`
	ContainerSignatureFile string   `xml:"container_signature_file,omitempty"`
}

// FileObject is a single identified (or unidentified) file.
type FileObject struct {
	XMLName        xml.Name        `xml:"fileobject"`
	Filename       string          `xml:"filename"`
	FileSize       uint64          `xml:"filesize"`
	Identification *Identification `xml:"identification,omitempty"`
	Error          string          `xml:"error,omitempty"`
}

// Identification records the format a file was identified as.
type Identification struct {
	SignatureID string   `xml:"signature_id,attr"`
	PUID        string   `xml:"puid,omitempty"`
	Name        string   `xml:"format_name,omitempty"`
	Version     string   `xml:"format_version,omitempty"`
	MIME        string   `xml:"mime_type,omitempty"`
	Basis       string   `xml:"basis"`
	BasePUIDs   []string `xml:"base_puid"`
}

// Identified reports whether o carries a format identification.
func (o *FileObject) Identified() bool {
	return o.Identification != nil && o.Identification.PUID != ""
}

// GetExecEnv retrieves runtime information to populate the ExecEnv struct.
func GetExecEnv() ExecEnv {
	sinfo, err := sysinfo.Stat()
	if err != nil {
		sinfo = &sysinfo.SysUnknown
	}

	host, err := os.Hostname()
	if err != nil {
		host = "unknown_host"
	}

	uid := 0
	currentUser, err := user.Current()
	if err == nil {
		if uidInt, parseErr := strconv.Atoi(currentUser.Uid); parseErr == nil {
			uid = uidInt
		}
	}

	return ExecEnv{
		OS:      sinfo.Name,
		Release: sinfo.Release,
		Version: sinfo.Version,
		Host:    host,
		Arch:    runtime.GOARCH,
		UID:     uid,
		Start:   time.Now().UTC().Format("2006-01-02T15:04:05Z"),
	}
}
