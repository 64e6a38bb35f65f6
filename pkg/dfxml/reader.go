package dfxml

import (
	"encoding/xml"
	"io"
)

// ReadFileObjects parses and returns all <fileobject> elements from the reader.
func ReadFileObjects(r io.Reader) ([]FileObject, error) {
	var fileObjects []FileObject
	err := decodeElements(r, "fileobject", func(dec *xml.Decoder, start *xml.StartElement) error {
		var fo FileObject
		if err := dec.DecodeElement(&fo, start); err != nil {
			return err
		}
		fileObjects = append(fileObjects, fo)
		return nil
	})
	return fileObjects, err
}

// ReadSource returns the <source> element of a report.
func ReadSource(r io.Reader) (Source, error) {
	var src Source
	err := decodeElements(r, "source", func(dec *xml.Decoder, start *xml.StartElement) error {
		return dec.DecodeElement(&src, start)
	})
	return src, err
}

func decodeElements(r io.Reader, name string, fn func(*xml.Decoder, *xml.StartElement) error) error {
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		if startElem, ok := tok.(xml.StartElement); ok && startElem.Name.Local == name {
			if err := fn(dec, &startElem); err != nil {
				return err
			}
		}
	}
}
