package output

import (
	"bytes"

	"github.com/jamesainslie/dirscan/pkg/dirscan/types"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// treeNode is a directory in structured output.
type treeNode struct {
	Path      string      `json:"path" yaml:"path"`
	Size      int64       `json:"size" yaml:"size"`
	SizeHuman string      `json:"size_human" yaml:"size_human"`
	Truncated bool        `json:"truncated,omitempty" yaml:"truncated,omitempty"`
	Children  []*treeNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// structuredStats is the stats section of structured output.
type structuredStats struct {
	FilesScanned int64  `json:"files_scanned" yaml:"files_scanned"`
	DirsScanned  int64  `json:"dirs_scanned" yaml:"dirs_scanned"`
	BytesScanned int64  `json:"bytes_scanned" yaml:"bytes_scanned"`
	Duration     string `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// structuredMeta is the meta section of structured output.
type structuredMeta struct {
	Source    string            `json:"source" yaml:"source"`
	Loaded    bool              `json:"loaded" yaml:"loaded"`
	Truncated bool              `json:"truncated" yaml:"truncated"`
	Depth     int               `json:"depth,omitempty" yaml:"depth,omitempty"`
	Skipped   []types.ScanError `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// structuredOutput is shared by the JSON and YAML formatters.
type structuredOutput struct {
	Tree  *treeNode       `json:"tree" yaml:"tree"`
	Stats structuredStats `json:"stats" yaml:"stats"`
	Meta  structuredMeta  `json:"meta" yaml:"meta"`
}

// buildStructured converts Result to the structured output shape.
func buildStructured(r *Result) structuredOutput {
	return structuredOutput{
		Tree: buildTreeNode(r.Tree, 0, r.Depth),
		Stats: structuredStats{
			FilesScanned: r.Stats.FilesScanned,
			DirsScanned:  r.Stats.DirsScanned,
			BytesScanned: r.Stats.BytesScanned,
			Duration:     formatDurationString(r.Duration),
		},
		Meta: structuredMeta{
			Source:    r.Source,
			Loaded:    r.Loaded,
			Truncated: r.Truncated,
			Depth:     r.Depth,
			Skipped:   r.Errors,
		},
	}
}

func buildTreeNode(n *types.Node, depth, maxDepth int) *treeNode {
	if n == nil {
		return nil
	}

	out := &treeNode{
		Path:      n.Path,
		Size:      n.Size,
		SizeHuman: types.FormatSize(n.Size),
		Truncated: n.Truncated,
	}
	if maxDepth > 0 && depth >= maxDepth {
		return out
	}
	for _, child := range sortedChildren(n) {
		out.Children = append(out.Children, buildTreeNode(child, depth+1, maxDepth))
	}
	return out
}

// JSONFormatter formats output as a single indented JSON object
// with tree, stats, and meta sections.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(buildStructured(r))
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

// Ensure JSONFormatter implements Formatter.
var _ Formatter = (*JSONFormatter)(nil)
