package fuse

import (
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ostafen/pronomid/pkg/dfxml"
)

// UnidentifiedDir holds the files no signature matched.
const UnidentifiedDir = "unidentified"

// FileEntry is a file exposed by the mounted view, backed by Path.
type FileEntry struct {
	Name string
	Path string
	Size uint64
}

// Tree is a two level view of a report: one directory per PUID, containing
// the files identified as that format.
type Tree struct {
	dirs map[string]map[string]FileEntry
}

// BuildTree groups the file objects of a report by PUID. Entries that
// failed identification are left out. Name clashes inside a directory are
// resolved by numbering the later files.
func BuildTree(objs []dfxml.FileObject) *Tree {
	t := &Tree{dirs: make(map[string]map[string]FileEntry)}

	for _, o := range objs {
		if o.Error != "" {
			continue
		}

		dir := UnidentifiedDir
		if o.Identified() {
			dir = DirName(o.Identification.PUID)
		}

		files, ok := t.dirs[dir]
		if !ok {
			files = make(map[string]FileEntry)
			t.dirs[dir] = files
		}

		name := uniqueName(files, filepath.Base(o.Filename))
		files[name] = FileEntry{
			Name: name,
			Path: o.Filename,
			Size: o.FileSize,
		}
	}
	return t
}

// DirName maps a PUID to a directory name: "fmt/412" becomes "fmt_412".
func DirName(puid string) string {
	return strings.ReplaceAll(puid, "/", "_")
}

func uniqueName(files map[string]FileEntry, name string) string {
	if _, ok := files[name]; !ok {
		return name
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		candidate := base + "~" + strconv.Itoa(i) + ext
		if _, ok := files[candidate]; !ok {
			return candidate
		}
	}
}

// Dirs returns the directory names in lexical order.
func (t *Tree) Dirs() []string {
	dirs := make([]string, 0, len(t.dirs))
	for d := range t.dirs {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs
}

// Files returns the entries of dir sorted by name.
func (t *Tree) Files(dir string) []FileEntry {
	files := make([]FileEntry, 0, len(t.dirs[dir]))
	for _, f := range t.dirs[dir] {
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
	return files
}

func (t *Tree) HasDir(dir string) bool {
	_, ok := t.dirs[dir]
	return ok
}

func (t *Tree) Lookup(dir, name string) (FileEntry, bool) {
	e, ok := t.dirs[dir][name]
	return e, ok
}
