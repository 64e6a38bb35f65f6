// Package fs opens the files handed to the identifier. On Windows it also
// accepts raw volume paths such as \\.\PhysicalDrive0.
package fs

import (
	"io"
	"os"
)

// File is the random access view the identifier needs: sequential reads for
// containers, ReadAt for head and tail windows and Stat for the size.
type File interface {
	io.ReadCloser
	io.ReaderAt
	Stat() (os.FileInfo, error)
}

// Size returns the size of f as reported by Stat.
func Size(f File) (int64, error) {
	finfo, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return finfo.Size(), nil
}
