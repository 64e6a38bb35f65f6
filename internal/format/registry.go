package format

import (
	"sort"
	"strings"
)

// Format describes a registered file format.
type Format struct {
	ID           string
	Name         string
	Version      string
	PUID         string
	MIME         string
	Extensions   []string
	SignatureIDs []string
	// PriorityOver lists the ids of the formats this one takes precedence
	// over. It is informational only.
	PriorityOver []string
}

func (f *Format) String() string {
	if f.Version != "" {
		return f.Name + " " + f.Version
	}
	return f.Name
}

// Registry is the immutable set of formats, indexed by internal signature id
// and by PUID. A signature may imply several formats and a format may be
// implied by several signatures.
type Registry struct {
	formats     []*Format
	bySignature map[string][]*Format
	byPUID      map[string]*Format
}

// NewRegistry indexes formats, preserving their declaration order.
func NewRegistry(formats ...*Format) *Registry {
	r := &Registry{
		formats:     formats,
		bySignature: make(map[string][]*Format),
		byPUID:      make(map[string]*Format),
	}

	for _, f := range formats {
		for _, id := range f.SignatureIDs {
			r.bySignature[id] = append(r.bySignature[id], f)
		}
		// the first format declared with a PUID wins
		if _, ok := r.byPUID[f.PUID]; f.PUID != "" && !ok {
			r.byPUID[f.PUID] = f
		}
	}
	return r
}

func (r *Registry) Formats() []*Format {
	return r.formats
}

func (r *Registry) Len() int {
	return len(r.formats)
}

// BySignature returns the formats implied by an internal signature.
func (r *Registry) BySignature(id string) []*Format {
	return r.bySignature[id]
}

// ByPUID returns the first format registered with puid, or nil.
func (r *Registry) ByPUID(puid string) *Format {
	return r.byPUID[puid]
}

// MIMEGroup collects the formats sharing a top level MIME type.
type MIMEGroup struct {
	Type    string
	Formats []*Format
}

// OthersGroup holds the formats without a MIME type.
const OthersGroup = "others"

// GroupByMIME groups formats by the lower-cased top level type of their MIME
// type. Groups are sorted by type; formats keep their registry order.
func (r *Registry) GroupByMIME() []MIMEGroup {
	index := make(map[string]int)

	var groups []MIMEGroup
	for _, f := range r.formats {
		key := OthersGroup
		if f.MIME != "" {
			key = strings.ToLower(strings.TrimSpace(strings.SplitN(f.MIME, "/", 2)[0]))
		}

		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, MIMEGroup{Type: key})
		}
		groups[i].Formats = append(groups[i].Formats, f)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Type < groups[j].Type
	})
	return groups
}
