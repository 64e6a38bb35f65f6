//go:build !windows
// +build !windows

package fs

import (
	"fmt"
	"os"
)

func Open(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", path, err)
	}
	return f, nil
}
