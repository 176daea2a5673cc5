package output

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/jamesainslie/dirscan/pkg/dirscan/types"
)

// PlainFormatter formats the tree as an indented table without colors.
// Sizes use the compact b/kb/mb units.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

	if _, err := tw.Write([]byte("SIZE\tSHARE\tPATH\n")); err != nil {
		return err
	}

	for _, row := range r.Rows() {
		line := fmt.Sprintf("%s\t%5.1f%%\t%s%s\n",
			types.FormatBytes(row.Size),
			row.Share*100,
			strings.Repeat("  ", row.Depth),
			displayName(row),
		)
		if _, err := tw.Write([]byte(line)); err != nil {
			return err
		}
	}

	return tw.Flush()
}

// displayName is the full path for the root and the base name below it.
func displayName(row Row) string {
	name := row.Path
	if row.Depth > 0 {
		name = filepath.Base(row.Path)
	}
	if row.Truncated {
		name += " (partial)"
	}
	return name
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

// Ensure PlainFormatter implements Formatter.
var _ Formatter = (*PlainFormatter)(nil)
