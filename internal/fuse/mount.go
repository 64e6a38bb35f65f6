//go:build !linux
// +build !linux

package fuse

import (
	"fmt"
	"log/slog"
)

func Mount(mountpoint string, tree *Tree, logger *slog.Logger) error {
	return fmt.Errorf("FUSE mount is only supported on Linux")
}
