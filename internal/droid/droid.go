// Package droid loads PRONOM signature databases published in the DROID
// XML formats: the binary signature file (FFSignatureFile) and the container
// signature file (ContainerSignatureMapping).
package droid

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ostafen/pronomid/internal/container"
	"github.com/ostafen/pronomid/internal/format"
	logging "github.com/ostafen/pronomid/internal/logger"
	"github.com/ostafen/pronomid/internal/sequence"
	"github.com/ostafen/pronomid/internal/signature"
)

var ErrInvalidSignatureFile = errors.New("invalid signature file")

// SignatureFile is the content of a binary signature file.
type SignatureFile struct {
	Version    string
	Signatures []*signature.Signature
	Formats    *format.Registry
}

// LoadSignatureFile decodes a DROID binary signature file. Signatures are
// kept in document order. A signature with invalid offsets is dropped, since
// it could never match; one with a malformed sequence is kept and never
// matches.
func LoadSignatureFile(r io.Reader, logger *slog.Logger) (*SignatureFile, error) {
	logger = orDiscard(logger)

	var doc ffSignatureFile
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSignatureFile, err)
	}

	sf := &SignatureFile{Version: doc.Version}
	for _, xs := range doc.Signatures {
		sig, err := flatSignature(xs)
		if err != nil {
			logger.Warn("dropping signature", "id", xs.ID, "err", err)
			continue
		}
		sf.Signatures = append(sf.Signatures, sig)
	}

	formats := make([]*format.Format, 0, len(doc.Formats))
	for _, xf := range doc.Formats {
		formats = append(formats, &format.Format{
			ID:           xf.ID,
			Name:         xf.Name,
			Version:      xf.Version,
			PUID:         xf.PUID,
			MIME:         xf.MIMEType,
			Extensions:   trimAll(xf.Extensions),
			SignatureIDs: trimAll(xf.SignatureIDs),
			PriorityOver: trimAll(xf.PriorityOver),
		})
	}
	sf.Formats = format.NewRegistry(formats...)

	logger.Info("loaded signature file",
		"version", sf.Version,
		"signatures", len(sf.Signatures),
		"formats", sf.Formats.Len(),
	)
	return sf, nil
}

// flatSignature flattens every subsequence of every byte sequence into one
// conjunction, each located by the reference of its byte sequence.
func flatSignature(xs xmlInternalSig) (*signature.Signature, error) {
	var seqs []signature.Sequence
	for _, bs := range xs.ByteSequences {
		loc := signature.ParseLocation(bs.Reference)
		for _, sub := range bs.SubSequences {
			minOff, maxOff, err := parseOffsets(sub)
			if err != nil {
				return nil, err
			}
			seq, err := signature.NewSequence(loc, strings.TrimSpace(sub.Sequence), minOff, maxOff)
			if err != nil {
				return nil, err
			}
			seqs = append(seqs, seq)
		}
	}
	return signature.New(xs.ID, seqs...), nil
}

// LoadContainerFile decodes a DROID container signature file. Signatures for
// unsupported container types are skipped. Member signatures that fail to
// compile are kept with their error set.
func LoadContainerFile(r io.Reader, logger *slog.Logger) (*container.Database, error) {
	logger = orDiscard(logger)

	var doc containerSignatureMapping
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSignatureFile, err)
	}

	db := &container.Database{
		PUIDs:    make(map[string]string, len(doc.Mappings)),
		Triggers: make(map[string]container.Type, len(doc.Triggers)),
	}

	for _, xc := range doc.Signatures {
		t, ok := parseType(xc.Type)
		if !ok {
			logger.Debug("skipping container signature", "id", xc.ID, "type", xc.Type)
			continue
		}

		cs := &container.Signature{ID: xc.ID, Type: t}
		for _, xf := range xc.Files {
			entry := container.FileEntry{Path: strings.TrimSpace(xf.Path)}
			for _, xs := range xf.Signatures {
				is := memberSignature(xs)
				if is.Err != nil {
					logger.Warn("container member signature will never match",
						"container", xc.ID,
						"path", entry.Path,
						"err", is.Err,
					)
				}
				entry.Signatures = append(entry.Signatures, is)
			}
			cs.Files = append(cs.Files, entry)
		}
		db.Signatures = append(db.Signatures, cs)
	}

	for _, m := range doc.Mappings {
		db.PUIDs[m.SignatureID] = m.PUID
	}

	for _, tr := range doc.Triggers {
		if t, ok := parseType(tr.Type); ok {
			db.Triggers[tr.PUID] = t
		}
	}

	logger.Info("loaded container signature file",
		"version", doc.SignatureVersion,
		"signatures", len(db.Signatures),
		"triggers", len(db.Triggers),
	)
	return db, nil
}

func memberSignature(xs xmlInternalSig) *container.InternalSignature {
	is := &container.InternalSignature{ID: xs.ID}
	for _, xb := range xs.ByteSequences {
		bs := container.ByteSequence{Reference: signature.ParseLocation(xb.Reference)}
		for _, sub := range xb.SubSequences {
			ss, err := subSequence(bs.Reference, sub)
			if err != nil {
				is.Err = err
				return is
			}
			bs.SubSequences = append(bs.SubSequences, ss)
		}
		is.ByteSequences = append(is.ByteSequences, bs)
	}
	return is
}

func subSequence(ref signature.Location, sub xmlSubSequence) (container.SubSequence, error) {
	minOff, maxOff, err := parseOffsets(sub)
	if err != nil {
		return container.SubSequence{}, err
	}
	p, err := sequence.Compile(sub.Sequence)
	if err != nil {
		return container.SubSequence{}, err
	}
	return container.NewSubSequence(p, ref, minOff, maxOff)
}

// parseOffsets reads the offset window of a subsequence. A missing minimum
// is zero and a missing maximum equals the minimum.
func parseOffsets(sub xmlSubSequence) (int, int, error) {
	minOff, err := parseOffset(sub.MinOffset, 0)
	if err != nil {
		return 0, 0, err
	}
	maxOff, err := parseOffset(sub.MaxOffset, minOff)
	if err != nil {
		return 0, 0, err
	}
	return minOff, maxOff, nil
}

func parseOffset(s string, def int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", signature.ErrInvalidOffsets, s)
	}
	return n, nil
}

func parseType(s string) (container.Type, bool) {
	switch t := container.Type(strings.ToUpper(strings.TrimSpace(s))); t {
	case container.ZIP, container.OLE2:
		return t, true
	}
	return "", false
}

func trimAll(ss []string) []string {
	out := ss[:0]
	for _, s := range ss {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func orDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return logging.Discard()
	}
	return l
}
