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
	"fmt"
	"math"
	"runtime"

	"github.com/ostafen/pronomid/internal/container"
	"github.com/ostafen/pronomid/internal/identify"
	"github.com/ostafen/pronomid/internal/logger"
	"github.com/ostafen/pronomid/internal/scan"
	"github.com/ostafen/pronomid/pkg/util/format"
	"github.com/spf13/cobra"
)

func DefineIdentifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "identify <path>...",
		Short: "Identify the format of files and directories",
		Long: `The 'identify' command matches every file below the given paths against a PRONOM signature file.
ZIP and OLE2 containers are further refined with the container signature file, when provided.
Results are written to a DFXML report which can later be browsed with the 'mount' command.`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE:         RunIdentify,
	}

	cmd.Flags().StringP("signature-file", "s", "", "path to the DROID binary signature file (required)")
	cmd.Flags().StringP("container-file", "c", "", "path to the DROID container signature file")
	cmd.Flags().StringP("output", "o", "", "the path of the report file")
	cmd.Flags().String("log-dir", "", "directory of the session log file")
	cmd.Flags().Bool("no-log", false, "disable logging")
	cmd.Flags().Bool("no-progress", false, "do not render the progress bar")
	cmd.Flags().IntP("workers", "w", runtime.NumCPU(), "number of files identified concurrently")
	cmd.Flags().String("window-size", "64KB", "bytes read from each end of a file")
	cmd.Flags().String("max-member-size", "64MB", "largest container member tested against signatures")
	cmd.Flags().Bool("no-zip", false, "disable ZIP container refinement")
	cmd.Flags().Bool("no-ole2", false, "disable OLE2 container refinement")

	_ = cmd.MarkFlagRequired("signature-file")

	return cmd
}

func RunIdentify(cmd *cobra.Command, args []string) error {
	opts, err := parseOptions(cmd)
	if err != nil {
		return err
	}

	sum, err := scan.Scan(cmd.Context(), args, opts)
	if err != nil {
		return err
	}

	fmt.Println()
	return sum.Write(cmd.OutOrStdout())
}

func parseOptions(cmd *cobra.Command) (scan.Options, error) {
	signatureFile, _ := cmd.Flags().GetString("signature-file")
	containerFile, _ := cmd.Flags().GetString("container-file")
	outputFile, _ := cmd.Flags().GetString("output")
	logDir, _ := cmd.Flags().GetString("log-dir")
	disableLog, _ := cmd.Flags().GetBool("no-log")
	noProgress, _ := cmd.Flags().GetBool("no-progress")
	workers, _ := cmd.Flags().GetInt("workers")
	logLevel, _ := cmd.Flags().GetString("log-level")

	if workers <= 0 {
		return scan.Options{}, fmt.Errorf("workers must be greater than 0")
	}

	windowSize, err := getBytes(cmd, "window-size")
	if err != nil {
		return scan.Options{}, err
	}
	if windowSize == 0 || windowSize > math.MaxInt32 {
		return scan.Options{}, fmt.Errorf("invalid window size %d", windowSize)
	}

	maxMemberSize, err := getBytes(cmd, "max-member-size")
	if err != nil {
		return scan.Options{}, err
	}

	identifyOpts := identify.DefaultOptions()
	identifyOpts.Workers = workers
	identifyOpts.WindowSize = int(windowSize)
	identifyOpts.Container.MaxMemberSize = int64(min(maxMemberSize, math.MaxInt64))
	identifyOpts.Capabilities = capabilities(cmd)

	return scan.Options{
		SignatureFile:          signatureFile,
		ContainerSignatureFile: containerFile,
		ReportFile:             outputFile,
		LogDir:                 logDir,
		DisableLog:             disableLog,
		NoProgress:             noProgress,
		LogLevel:               logger.ParseLevel(logLevel),
		Identify:               identifyOpts,
	}, nil
}

func capabilities(cmd *cobra.Command) []container.Capability {
	noZip, _ := cmd.Flags().GetBool("no-zip")
	noOLE2, _ := cmd.Flags().GetBool("no-ole2")

	caps := container.DefaultCapabilities()
	for i, c := range caps {
		if (c.Type() == container.ZIP && noZip) || (c.Type() == container.OLE2 && noOLE2) {
			caps[i] = container.Unavailable{Kind: c.Type()}
		}
	}
	return caps
}

func getBytes(cmd *cobra.Command, name string) (uint64, error) {
	s, _ := cmd.Flags().GetString(name)

	v, err := format.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return v, nil
}
