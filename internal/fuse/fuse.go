//go:build linux
// +build linux

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
package fuse

import (
	"context"
	"io"
	"os"
	"time"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"
)

// IdentFS exposes a Tree as a read-only file system.
type IdentFS struct {
	tree    *Tree
	mountAt time.Time
}

func (ifs *IdentFS) Root() (fs.Node, error) {
	return &Root{fs: ifs}, nil
}

// Root lists one directory per format.
type Root struct {
	fs *IdentFS
}

func (r *Root) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Mode = os.ModeDir | 0555
	a.Mtime = r.fs.mountAt
	return nil
}

func (r *Root) Lookup(ctx context.Context, name string) (fs.Node, error) {
	if !r.fs.tree.HasDir(name) {
		return nil, fuse.ENOENT
	}
	return &Dir{fs: r.fs, name: name}, nil
}

func (r *Root) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	dirs := r.fs.tree.Dirs()

	dirEntries := make([]fuse.Dirent, len(dirs))
	for i, d := range dirs {
		dirEntries[i] = fuse.Dirent{
			Inode: uint64(i + 2),
			Name:  d,
			Type:  fuse.DT_Dir,
		}
	}
	return dirEntries, nil
}

// Dir lists the files identified as one format.
type Dir struct {
	fs   *IdentFS
	name string
}

func (d *Dir) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Mode = os.ModeDir | 0555
	a.Mtime = d.fs.mountAt
	return nil
}

func (d *Dir) Lookup(ctx context.Context, name string) (fs.Node, error) {
	if e, ok := d.fs.tree.Lookup(d.name, name); ok {
		return &File{entry: e}, nil
	}
	return nil, fuse.ENOENT
}

func (d *Dir) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	files := d.fs.tree.Files(d.name)

	dirEntries := make([]fuse.Dirent, len(files))
	for i, f := range files {
		dirEntries[i] = fuse.Dirent{
			Name: f.Name,
			Type: fuse.DT_File,
		}
	}
	return dirEntries, nil
}

// File reads through to the identified file.
type File struct {
	entry FileEntry
}

func (f *File) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Mode = 0444
	a.Size = f.entry.Size

	if finfo, err := os.Stat(f.entry.Path); err == nil {
		a.Size = uint64(finfo.Size())
		a.Mtime = finfo.ModTime()
	}
	return nil
}

func (f *File) Read(ctx context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	r, err := os.Open(f.entry.Path)
	if err != nil {
		return fuse.EIO
	}
	defer r.Close()

	buf := make([]byte, req.Size)
	n, err := r.ReadAt(buf, req.Offset)
	if err != nil && err != io.EOF {
		return err
	}

	resp.Data = buf[:n]
	return nil
}
