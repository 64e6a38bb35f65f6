// Package container refines a base identification by inspecting the
// structure of ZIP and OLE2 containers.
package container

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ostafen/pronomid/internal/fs"
	logging "github.com/ostafen/pronomid/internal/logger"
	"github.com/ostafen/pronomid/internal/signature"
)

// DefaultMaxMemberSize bounds the bytes read from a single container member.
const DefaultMaxMemberSize = 64 * 1024 * 1024

type Options struct {
	// MaxMemberSize is the largest member, in bytes, whose content is tested
	// against internal signatures. Zero means no limit.
	MaxMemberSize int64
}

func DefaultOptions() Options {
	return Options{MaxMemberSize: DefaultMaxMemberSize}
}

// Matcher evaluates container signatures. It never mutates the database and
// is safe for concurrent use.
type Matcher struct {
	db     *Database
	caps   map[Type]Capability
	opts   Options
	logger *slog.Logger
}

// NewMatcher returns a Matcher over db. Container types without a capability
// are treated as Unavailable.
func NewMatcher(db *Database, logger *slog.Logger, opts Options, caps ...Capability) *Matcher {
	if logger == nil {
		logger = logging.Discard()
	}
	if db == nil {
		db = &Database{}
	}

	m := &Matcher{
		db:     db,
		caps:   map[Type]Capability{ZIP: Unavailable{ZIP}, OLE2: Unavailable{OLE2}},
		opts:   opts,
		logger: logger,
	}
	for _, c := range caps {
		m.caps[c.Type()] = c
	}
	return m
}

// Capability returns the capability selected for t.
func (m *Matcher) Capability(t Type) Capability {
	if c, ok := m.caps[t]; ok {
		return c
	}
	return Unavailable{t}
}

// Refine returns the PUIDs of the container signatures matching the file at
// path, provided puid is a trigger. Container errors yield no PUIDs.
func (m *Matcher) Refine(ctx context.Context, path string, puid string) []string {
	t, ok := m.db.Trigger(puid)
	if !ok {
		return nil
	}

	ids := m.Match(ctx, path, t)

	puids := make([]string, 0, len(ids))
	for _, id := range ids {
		if p, ok := m.db.PUIDs[id]; ok {
			puids = append(puids, p)
		}
	}
	return puids
}

// Match returns the identifiers of every container signature of type t that
// fully matches the file at path. Invalid containers and unavailable
// capabilities yield an empty result.
func (m *Matcher) Match(ctx context.Context, path string, t Type) []string {
	ids, err := m.match(ctx, path, t)
	if err != nil {
		m.logger.Debug("container refinement skipped", "path", path, "type", t, "err", err)
		return nil
	}
	return ids
}

func (m *Matcher) match(ctx context.Context, path string, t Type) ([]string, error) {
	c := m.Capability(t)
	if _, ok := c.(Unavailable); ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingCapability, t)
	}

	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	finfo, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := finfo.Size()

	if !c.Probe(f, size) {
		return nil, fmt.Errorf("%w: not a %s container", ErrInvalidContainer, t)
	}

	a, err := c.Open(f, size)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	return m.MatchArchive(ctx, a, t)
}

// MatchArchive evaluates the container signatures of type t against an
// already opened archive.
func (m *Matcher) MatchArchive(ctx context.Context, a Archive, t Type) ([]string, error) {
	var ids []string
	for _, sig := range m.db.Signatures {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if sig.Type != t {
			continue
		}

		ok, err := m.matchSignature(a, sig)
		if err != nil {
			m.logger.Debug("container signature rejected", "id", sig.ID, "err", err)
			continue
		}
		if ok {
			ids = append(ids, sig.ID)
		}
	}
	return ids, nil
}

func (m *Matcher) matchSignature(a Archive, sig *Signature) (bool, error) {
	names := make([]string, len(sig.Files))
	for i, entry := range sig.Files {
		name, ok := a.Lookup(entry.Path)
		if !ok {
			return false, nil
		}
		names[i] = name
	}

	for i, entry := range sig.Files {
		if len(entry.Signatures) == 0 {
			continue
		}

		data, err := a.ReadMember(names[i], m.opts.MaxMemberSize)
		if err != nil {
			return false, fmt.Errorf("member %q: %w", names[i], err)
		}

		if !matchAny(entry.Signatures, data) {
			return false, nil
		}
	}
	return true, nil
}

func matchAny(sigs []*InternalSignature, data []byte) bool {
	w := signature.Window{Head: data, Tail: data}
	for _, s := range sigs {
		if s.Match(w) {
			return true
		}
	}
	return false
}
