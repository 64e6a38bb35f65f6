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
package scan

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ostafen/pronomid/internal/container"
	"github.com/ostafen/pronomid/internal/droid"
	"github.com/ostafen/pronomid/internal/env"
	"github.com/ostafen/pronomid/internal/identify"
	"github.com/ostafen/pronomid/internal/logger"
	"github.com/ostafen/pronomid/internal/summary"
	"github.com/ostafen/pronomid/pkg/dfxml"
	"github.com/ostafen/pronomid/pkg/pbar"
	fmtutil "github.com/ostafen/pronomid/pkg/util/format"
	osutils "github.com/ostafen/pronomid/pkg/util/os"
)

const (
	BasisSignature = "signature"
	BasisContainer = "container"
)

type Options struct {
	SignatureFile          string
	ContainerSignatureFile string
	ReportFile             string
	LogDir                 string
	DisableLog             bool
	NoProgress             bool
	LogLevel               slog.Level
	Identify               identify.Options
}

// Scan identifies every file below roots and writes a DFXML report.
func Scan(ctx context.Context, roots []string, opts Options) (summary.Summary, error) {
	session := GenSessionID()

	var logFilePath string
	if !opts.DisableLog {
		logFilePath = absPath(filepath.Join(opts.LogDir, "scan_"+session) + ".log")
	}

	log, logFile, err := logger.Setup(logFilePath, opts.LogLevel)
	if err != nil {
		return summary.Summary{}, err
	}
	if logFile != nil {
		defer logFile.Close()
	}

	sigFile, err := loadSignatureFile(opts.SignatureFile, log)
	if err != nil {
		return summary.Summary{}, err
	}

	db := identify.Database{
		Signatures: sigFile.Signatures,
		Formats:    sigFile.Formats,
	}
	if opts.ContainerSignatureFile != "" {
		db.Containers, err = loadContainerFile(opts.ContainerSignatureFile, log)
		if err != nil {
			return summary.Summary{}, err
		}
	}

	paths, err := listFiles(roots)
	if err != nil {
		return summary.Summary{}, err
	}

	reportFileName := opts.ReportFile
	if reportFileName == "" {
		reportFileName = fmt.Sprintf("report_%s.xml", session)
	}

	fmt.Println("[INFO] Starting identification...")
	fmt.Printf("[INFO] Sources: \t%s\n", strings.Join(absPaths(roots), ","))
	fmt.Printf("[INFO] Signature file: \t%s (version %s)\n", absPath(opts.SignatureFile), sigFile.Version)
	if opts.ContainerSignatureFile != "" {
		fmt.Printf("[INFO] Container file: \t%s\n", absPath(opts.ContainerSignatureFile))
	}

	outLog := "disabled"
	if !opts.DisableLog {
		outLog = logFilePath
	}
	fmt.Printf("[INFO] Output Log: \t%s\n", outLog)
	fmt.Printf("[INFO] Identifying %d files against %d signatures...\n", len(paths), len(db.Signatures))

	outFile, err := os.Create(reportFileName)
	if err != nil {
		return summary.Summary{}, err
	}
	defer outFile.Close()

	bw := bufio.NewWriter(outFile)
	report := dfxml.NewWriter(bw)

	err = report.WriteHeader(dfxml.DFXMLHeader{
		XmlOutput: dfxml.XmlOutputVersion,
		Metadata:  dfxml.DefaultMetadata,
		Creator: dfxml.Creator{
			Package:              env.AppName,
			Version:              env.Version,
			ExecutionEnvironment: dfxml.GetExecEnv(),
		},
		Source: dfxml.Source{
			Roots:                  absPaths(roots),
			SignatureFile:          absPath(opts.SignatureFile),
			SignatureVersion:       sigFile.Version,
			ContainerSignatureFile: opts.ContainerSignatureFile,
		},
	})
	if err != nil {
		return summary.Summary{}, err
	}

	start := time.Now()

	id := identify.New(db, log, opts.Identify)
	collector := summary.NewCollector()
	progress := pbar.NewProgressBarState(len(paths))

	for o := range id.IdentifyAll(ctx, paths) {
		collector.Add(o)

		obj := FileObject(o)
		if err := report.WriteFileObject(obj); err != nil {
			log.Error("unable to write report entry", "path", o.Path, "err", err)
		}
		if o.Err != nil {
			log.Warn("identification failed", "path", o.Path, "err", o.Err)
		}

		if !opts.NoProgress {
			progress.Add(int64(obj.FileSize), o.Result != nil)
			progress.Render(false)
		}
	}

	if !opts.NoProgress {
		progress.Render(true)
		progress.Finish()
	}

	if err := report.Close(); err != nil {
		return summary.Summary{}, err
	}
	if err := bw.Flush(); err != nil {
		return summary.Summary{}, err
	}

	if err := ctx.Err(); err != nil {
		return collector.Summary(), err
	}

	sum := collector.Summary()

	fmt.Printf("[INFO] Identification completed!\n")
	fmt.Printf("[INFO] Files identified: \t%d/%d\n", sum.Identified, sum.Files)
	fmt.Printf("[INFO] Total data: \t%s\n", fmtutil.FormatBytes(sum.Bytes))
	fmt.Printf("[INFO] Duration: \t%s\n", FormatDurationHMS(time.Since(start)))
	fmt.Printf("[INFO] Report saved to: \t%s\n", absPath(reportFileName))

	if !opts.DisableLog {
		fmt.Printf("[INFO] Detailed scan log: \t%s\n", logFilePath)
	}
	return sum, nil
}

// FileObject converts an outcome into a report entry.
func FileObject(o identify.Outcome) dfxml.FileObject {
	obj := dfxml.FileObject{Filename: o.Path, FileSize: uint64(o.Size)}

	switch {
	case o.Err != nil:
		obj.Error = o.Err.Error()
		return obj
	case o.Result == nil:
		return obj
	}

	res := o.Result

	ident := &dfxml.Identification{
		SignatureID: res.SignatureID,
		Basis:       BasisSignature,
	}
	if res.Refined() {
		ident.Basis = BasisContainer
	}
	if f := res.MainFormat; f != nil {
		ident.PUID = f.PUID
		ident.Name = f.Name
		ident.Version = f.Version
		ident.MIME = f.MIME
	}
	for _, f := range res.BaseFormats {
		ident.BasePUIDs = append(ident.BasePUIDs, f.PUID)
	}
	obj.Identification = ident
	return obj
}

func loadSignatureFile(path string, log *slog.Logger) (*droid.SignatureFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open signature file %q: %w", path, err)
	}
	defer f.Close()

	return droid.LoadSignatureFile(bufio.NewReader(f), log)
}

func loadContainerFile(path string, log *slog.Logger) (*container.Database, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open container signature file %q: %w", path, err)
	}
	defer f.Close()

	return droid.LoadContainerFile(bufio.NewReader(f), log)
}

func listFiles(roots []string) ([]string, error) {
	var paths []string
	for _, root := range roots {
		files, err := osutils.ListFiles(root)
		if err != nil {
			return nil, err
		}
		paths = append(paths, files...)
	}
	return paths, nil
}

func absPaths(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = absPath(p)
	}
	return out
}

func absPath(path string) string {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

// GenSessionID creates a unique name for a scan session, formatted as
// YYYYMMDD_HHMMSS.
func GenSessionID() string {
	return time.Now().Format("20060102_150405")
}

// FormatDurationHMS formats a time.Duration into HH:MM:SS string.
// It handles durations that might be less than an hour or greater than 24 hours.
func FormatDurationHMS(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	totalSeconds := int64(d.Seconds())

	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
