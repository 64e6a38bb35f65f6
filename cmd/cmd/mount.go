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
package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ostafen/pronomid/internal/fuse"
	"github.com/ostafen/pronomid/internal/logger"
	"github.com/ostafen/pronomid/pkg/dfxml"
	fmtutil "github.com/ostafen/pronomid/pkg/util/format"
	"github.com/spf13/cobra"
)

func DefineMountCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mount <report_file>",
		Short: "Mount an identification report as a directory per format",
		Long: `The 'mount' command exposes the files listed in an identification report through a read-only FUSE file system.
Files are grouped in one directory per PUID (e.g. fmt_412), unidentified files are placed under 'unidentified'.
Reads are served from the original files, entries that failed identification are left out.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         RunMount,
	}

	cmd.Flags().StringP("mountpoint", "m", "", "Directory where the file system is mounted (default: report name without extension)")
	cmd.Flags().Bool("list", false, "Print the directory layout and exit without mounting")
	return cmd
}

func RunMount(cmd *cobra.Command, args []string) error {
	reportFile, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer reportFile.Close()

	objects, err := dfxml.ReadFileObjects(bufio.NewReader(reportFile))
	if err != nil {
		return fmt.Errorf("invalid report file: %w", err)
	}
	tree := fuse.BuildTree(objects)

	if list, _ := cmd.Flags().GetBool("list"); list {
		writeTree(cmd.OutOrStdout(), tree)
		return nil
	}

	mountpoint, _ := cmd.Flags().GetString("mountpoint")
	if mountpoint == "" {
		mountpoint = getMountpoint(reportFile.Name())
	}

	logLevel, _ := cmd.Flags().GetString("log-level")
	return fuse.Mount(mountpoint, tree, logger.New(cmd.ErrOrStderr(), logger.ParseLevel(logLevel)))
}

func writeTree(w io.Writer, tree *fuse.Tree) {
	for _, dir := range tree.Dirs() {
		files := tree.Files(dir)

		var size int64
		for _, f := range files {
			size += int64(f.Size)
		}
		fmt.Fprintf(w, "%s/ (%d files, %s)\n", dir, len(files), fmtutil.FormatBytes(size))
		for _, f := range files {
			fmt.Fprintf(w, "  %s -> %s\n", f.Name, f.Path)
		}
	}
}

// getMountpoint derives the mountpoint from the report name: the extension
// is stripped, or "_mnt" appended when there is none.
func getMountpoint(reportFileName string) string {
	base := filepath.Base(reportFileName)
	ext := filepath.Ext(base)
	if ext == "" {
		return base + "_mnt"
	}
	return strings.TrimSuffix(base, ext)
}
