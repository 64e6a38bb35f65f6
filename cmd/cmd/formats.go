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
	"strings"
	"text/tabwriter"

	"github.com/ostafen/pronomid/internal/droid"
	"github.com/ostafen/pronomid/internal/format"
	"github.com/ostafen/pronomid/internal/logger"
	"github.com/spf13/cobra"
)

func DefineFormatsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "formats",
		Short: "List the file formats of a signature file",
		Long: `The 'formats' command displays a table of the file formats declared in a DROID signature file.
Each format includes its PUID, name, version, MIME type, extensions and the internal signatures implying it.
With --by-mime, formats are grouped by the top-level type of their MIME type.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         RunFormats,
	}

	cmd.Flags().StringP("signature-file", "s", "", "path to the DROID binary signature file (required)")
	cmd.Flags().Bool("by-mime", false, "group formats by MIME top-level type")
	cmd.Flags().String("puid", "", "only show the format with this PUID")

	_ = cmd.MarkFlagRequired("signature-file")
	return cmd
}

func RunFormats(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("signature-file")
	byMIME, _ := cmd.Flags().GetBool("by-mime")
	puid, _ := cmd.Flags().GetString("puid")
	logLevel, _ := cmd.Flags().GetString("log-level")

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open signature file %q: %w", path, err)
	}
	defer f.Close()

	sf, err := droid.LoadSignatureFile(bufio.NewReader(f), logger.New(cmd.ErrOrStderr(), logger.ParseLevel(logLevel)))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case puid != "":
		ff := sf.Formats.ByPUID(puid)
		if ff == nil {
			return fmt.Errorf("no format with PUID %q", puid)
		}
		return writeFormats(out, []*format.Format{ff})
	case byMIME:
		return writeMIMEGroups(out, sf.Formats.GroupByMIME())
	}
	return writeFormats(out, sf.Formats.Formats())
}

func writeFormats(out io.Writer, formats []*format.Format) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PUID\tNAME\tVERSION\tMIME\tEXTENSIONS\tSIGNATURES")

	for _, f := range formats {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			orDash(f.PUID),
			f.Name,
			orDash(f.Version),
			orDash(f.MIME),
			orDash(strings.Join(f.Extensions, ",")),
			orDash(strings.Join(f.SignatureIDs, ",")),
		)
	}
	return w.Flush()
}

func writeMIMEGroups(out io.Writer, groups []format.MIMEGroup) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tPUID\tNAME")

	for _, g := range groups {
		fmt.Fprintf(w, "%s (%d)\t\t\n", g.Type, len(g.Formats))
		for _, f := range g.Formats {
			fmt.Fprintf(w, "\t%s\t%s\n", orDash(f.PUID), f)
		}
	}
	return w.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
