package identify

import (
	"fmt"
	"io"

	"github.com/ostafen/pronomid/internal/signature"
)

// DefaultWindowSize is the number of bytes read from each end of a file.
const DefaultWindowSize = 64 * 1024

// ReadWindow reads the head and tail windows of r. When size does not exceed
// windowSize, both windows hold the whole content and share storage.
func ReadWindow(r io.ReaderAt, size int64, windowSize int) (signature.Window, error) {
	if size < 0 {
		return signature.Window{}, fmt.Errorf("negative size %d", size)
	}
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}

	headLen := min(size, int64(windowSize))
	head := make([]byte, headLen)
	if err := readFull(r, head, 0); err != nil {
		return signature.Window{}, fmt.Errorf("failed to read head window: %w", err)
	}

	if size <= int64(windowSize) {
		return signature.Window{Head: head, Tail: head}, nil
	}

	tail := make([]byte, windowSize)
	if err := readFull(r, tail, size-int64(windowSize)); err != nil {
		return signature.Window{}, fmt.Errorf("failed to read tail window: %w", err)
	}
	return signature.Window{Head: head, Tail: tail}, nil
}

func readFull(r io.ReaderAt, buf []byte, off int64) error {
	if len(buf) == 0 {
		return nil
	}
	n, err := r.ReadAt(buf, off)
	if n == len(buf) {
		return nil
	}
	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}
