// Package identify coordinates format identification: it reads bounded
// windows of a file, finds the first matching internal signature and refines
// container formats through their structure.
package identify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ostafen/pronomid/internal/container"
	"github.com/ostafen/pronomid/internal/format"
	"github.com/ostafen/pronomid/internal/fs"
	logging "github.com/ostafen/pronomid/internal/logger"
	"github.com/ostafen/pronomid/internal/signature"
)

var ErrUnreadableFile = errors.New("unreadable file")

// Database is the signature database. It must be fully built before the
// first identification and is never modified afterwards.
type Database struct {
	// Signatures are tried in order; the first match wins.
	Signatures []*signature.Signature
	Formats    *format.Registry
	// Containers is optional. Without it no refinement takes place.
	Containers *container.Database
}

type Options struct {
	WindowSize int
	Workers    int
	Container  container.Options
	// Capabilities selects the container parsers. Nil means
	// container.DefaultCapabilities.
	Capabilities []container.Capability
}

func DefaultOptions() Options {
	return Options{
		WindowSize: DefaultWindowSize,
		Workers:    1,
		Container:  container.DefaultOptions(),
	}
}

// Result is the outcome of a successful identification.
type Result struct {
	Path        string
	Size        int64
	SignatureID string
	// MainFormat is the first refined format if any, otherwise the first
	// base format. It is nil when the signature implies no format.
	MainFormat       *format.Format
	BaseFormats      []*format.Format
	ContainerFormats []*format.Format
}

// Refined reports whether container inspection produced a format.
func (r *Result) Refined() bool {
	return len(r.ContainerFormats) > 0
}

// Identifier is safe for concurrent use.
type Identifier struct {
	db      Database
	index   *prefixIndex
	matcher *container.Matcher
	opts    Options
	logger  *slog.Logger
}

func New(db Database, logger *slog.Logger, opts Options) *Identifier {
	if logger == nil {
		logger = logging.Discard()
	}
	if db.Formats == nil {
		db.Formats = format.NewRegistry()
	}
	if opts.WindowSize <= 0 {
		opts.WindowSize = DefaultWindowSize
	}

	for _, sig := range db.Signatures {
		if err := sig.Err(); err != nil {
			logger.Warn("signature will never match", "id", sig.ID, "err", err)
		}
	}

	id := &Identifier{
		db:     db,
		index:  buildPrefixIndex(db.Signatures),
		opts:   opts,
		logger: logger,
	}

	if db.Containers != nil {
		caps := opts.Capabilities
		if caps == nil {
			caps = container.DefaultCapabilities()
		}
		id.matcher = container.NewMatcher(db.Containers, logger, opts.Container, caps...)
	}

	logger.Debug("identifier ready",
		"signatures", len(db.Signatures),
		"indexed_prefixes", id.index.size(),
		"formats", db.Formats.Len(),
	)
	return id
}

// Identify returns the identification of the file at path, or nil if no
// signature matches. Only failures to read the file are returned as errors.
func (id *Identifier) Identify(ctx context.Context, path string) (*Result, error) {
	res, _, err := id.identify(ctx, path)
	return res, err
}

// identify also reports the file size, which is known even when nothing
// matches.
func (id *Identifier) identify(ctx context.Context, path string) (*Result, int64, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrUnreadableFile, err)
	}
	defer f.Close()

	size, err := fs.Size(f)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s: %w", ErrUnreadableFile, path, err)
	}

	w, err := ReadWindow(f, size, id.opts.WindowSize)
	if err != nil {
		return nil, size, fmt.Errorf("%w: %s: %w", ErrUnreadableFile, path, err)
	}

	res := id.IdentifyWindow(ctx, path, w)
	if res != nil {
		res.Size = size
	}
	return res, size, nil
}

// IdentifyWindow identifies an already read window. path is only used for
// container refinement.
func (id *Identifier) IdentifyWindow(ctx context.Context, path string, w signature.Window) *Result {
	sig := id.MatchSignature(w)
	if sig == nil {
		id.logger.Debug("no signature matched", "path", path)
		return nil
	}

	res := &Result{
		Path:        path,
		SignatureID: sig.ID,
		BaseFormats: id.db.Formats.BySignature(sig.ID),
	}
	res.ContainerFormats = id.refine(ctx, path, res.BaseFormats)

	switch {
	case len(res.ContainerFormats) > 0:
		res.MainFormat = res.ContainerFormats[0]
	case len(res.BaseFormats) > 0:
		res.MainFormat = res.BaseFormats[0]
	}

	id.logger.Debug("file identified",
		"path", path,
		"signature", sig.ID,
		"base_formats", len(res.BaseFormats),
		"container_formats", len(res.ContainerFormats),
	)
	return res
}

// MatchSignature returns the first signature, in database order, matching w.
func (id *Identifier) MatchSignature(w signature.Window) *signature.Signature {
	candidates := id.index.candidates(w.Head)
	for i, sig := range id.db.Signatures {
		if candidates[i] && sig.Match(w) {
			return sig
		}
	}
	return nil
}

func (id *Identifier) refine(ctx context.Context, path string, base []*format.Format) []*format.Format {
	if id.matcher == nil {
		return nil
	}

	var refined []*format.Format
	seen := make(map[*format.Format]bool)
	for _, f := range base {
		for _, puid := range id.matcher.Refine(ctx, path, f.PUID) {
			rf := id.db.Formats.ByPUID(puid)
			if rf == nil {
				id.logger.Debug("refined PUID has no format", "puid", puid)
				continue
			}
			if !seen[rf] {
				seen[rf] = true
				refined = append(refined, rf)
			}
		}
	}
	return refined
}
