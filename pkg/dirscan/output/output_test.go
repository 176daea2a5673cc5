package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/jamesainslie/dirscan/pkg/dirscan/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// sampleResult builds /home/user with docs (30) and music (60), docs/old (10).
func sampleResult() *Result {
	root := types.NewNode("/home/user")
	root.Size = 10

	docs := types.NewNode("/home/user/docs")
	docs.Size = 20
	old := types.NewNode("/home/user/docs/old")
	old.Size = 10
	docs.AddChild(old)

	music := types.NewNode("/home/user/music")
	music.Size = 60

	root.AddChild(docs)
	root.AddChild(music)

	return &Result{
		Tree:     root,
		Stats:    types.ScanStats{FilesScanned: 12, DirsScanned: 3, BytesScanned: 100},
		Source:   "/home/user",
		Duration: 1500 * time.Millisecond,
	}
}

func TestResult_Rows(t *testing.T) {
	r := sampleResult()

	rows := r.Rows()
	require.Len(t, rows, 4)

	paths := make([]string, len(rows))
	for i, row := range rows {
		paths[i] = row.Path
	}
	assert.Equal(t, []string{
		"/home/user",
		"/home/user/music",
		"/home/user/docs",
		"/home/user/docs/old",
	}, paths, "depth-first, largest first")

	assert.Equal(t, 1.0, rows[0].Share)
	assert.InDelta(t, 0.6, rows[1].Share, 1e-9)
	assert.Equal(t, 2, rows[3].Depth)

	// The tree itself keeps its order.
	assert.Equal(t, "/home/user/docs", r.Tree.Children[0].Path)
}

func TestResult_RowsDepthLimit(t *testing.T) {
	r := sampleResult()
	r.Depth = 1

	rows := r.Rows()
	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.LessOrEqual(t, row.Depth, 1)
	}
}

func TestResult_RowsNilTree(t *testing.T) {
	r := &Result{}
	assert.Empty(t, r.Rows())
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"json", "plain", "pretty", "yaml"}, Available())

	for _, name := range Available() {
		f, err := Get(name)
		require.NoError(t, err)
		assert.NotNil(t, f)
	}

	_, err := Get("xml")
	assert.Error(t, err)

	reg := NewRegistry()
	reg.Register("custom", func() Formatter { return &PlainFormatter{} })
	assert.Equal(t, []string{"custom"}, reg.Available())
}

func TestPlainFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&PlainFormatter{}).Format(&buf, sampleResult()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "SIZE")
	assert.Contains(t, lines[1], "100b")
	assert.Contains(t, lines[1], "/home/user")
	assert.Contains(t, lines[2], "60b")
	assert.Contains(t, lines[2], "  music")
	assert.Contains(t, lines[4], "    old")
	assert.NotContains(t, buf.String(), "\x1b[", "plain output has no escape codes")
}

func TestPlainFormatter_MarksPartial(t *testing.T) {
	r := sampleResult()
	r.Tree.Children[1].Truncated = true

	var buf bytes.Buffer
	require.NoError(t, (&PlainFormatter{}).Format(&buf, r))
	assert.Contains(t, buf.String(), "music (partial)")
}

func TestPrettyFormatter_Format(t *testing.T) {
	r := sampleResult()
	r.Errors = []types.ScanError{{Path: "/home/user/secret", Error: "permission denied"}}
	r.Truncated = true

	var buf bytes.Buffer
	require.NoError(t, (&PrettyFormatter{}).Format(&buf, r))

	out := buf.String()
	assert.Contains(t, out, "/home/user")
	assert.Contains(t, out, "music")
	assert.Contains(t, out, "SIZE")
	assert.Contains(t, out, "Scan cancelled")
	assert.Contains(t, out, "/home/user/secret")
	assert.Contains(t, out, "1 skipped")
	assert.Contains(t, out, "100 B")
}

func TestPrettyFormatter_Loaded(t *testing.T) {
	r := sampleResult()
	r.Loaded = true
	r.Stats.FilesScanned = types.UnknownFiles

	var buf bytes.Buffer
	require.NoError(t, (&PrettyFormatter{}).Format(&buf, r))

	out := buf.String()
	assert.Contains(t, out, "Loaded:")
	assert.Contains(t, out, "Files:")
	assert.Contains(t, out, "?")
}

func TestPrettyFormatter_EmptyResult(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&PrettyFormatter{}).Format(&buf, &Result{Source: "/nothing"}))
	assert.Contains(t, buf.String(), "No tree to display")
}

func TestPrettyFormatter_ManyWarnings(t *testing.T) {
	r := sampleResult()
	for i := 0; i < maxWarnings+3; i++ {
		r.Errors = append(r.Errors, types.ScanError{Path: "/x", Error: "denied"})
	}

	var buf bytes.Buffer
	require.NoError(t, (&PrettyFormatter{}).Format(&buf, r))
	assert.Contains(t, buf.String(), "and 3 more")
}

func TestRenderBar(t *testing.T) {
	assert.Equal(t, barWidth, strings.Count(renderBar(1), "█"))
	assert.Equal(t, 0, strings.Count(renderBar(0), "█"))
	assert.Equal(t, 5, strings.Count(renderBar(0.5), "█"))
	assert.Equal(t, barWidth, strings.Count(renderBar(3), "█"))
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		sec  float64
		want string
	}{
		{0.25, "250ms"},
		{1.5, "1.5s"},
		{125, "2m 5s"},
		{3725, "1h 2m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.sec))
	}
}

func TestJSONFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Format(&buf, sampleResult()))

	var parsed struct {
		Tree struct {
			Path     string `json:"path"`
			Size     int64  `json:"size"`
			Children []struct {
				Path string `json:"path"`
			} `json:"children"`
		} `json:"tree"`
		Stats struct {
			FilesScanned int64  `json:"files_scanned"`
			Duration     string `json:"duration"`
		} `json:"stats"`
		Meta struct {
			Source string `json:"source"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))

	assert.Equal(t, "/home/user", parsed.Tree.Path)
	assert.Equal(t, int64(100), parsed.Tree.Size)
	require.Len(t, parsed.Tree.Children, 2)
	assert.Equal(t, "/home/user/music", parsed.Tree.Children[0].Path)
	assert.Equal(t, int64(12), parsed.Stats.FilesScanned)
	assert.Equal(t, "1.5s", parsed.Stats.Duration)
	assert.Equal(t, "/home/user", parsed.Meta.Source)
}

func TestJSONFormatter_DepthLimit(t *testing.T) {
	r := sampleResult()
	r.Depth = 1

	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Format(&buf, r))
	assert.NotContains(t, buf.String(), "/home/user/docs/old")
}

func TestYAMLFormatter_Format(t *testing.T) {
	r := sampleResult()
	r.Errors = []types.ScanError{{Path: "/home/user/secret", Error: "permission denied"}}

	var buf bytes.Buffer
	require.NoError(t, (&YAMLFormatter{}).Format(&buf, r))

	var parsed map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &parsed))

	tree, ok := parsed["tree"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "/home/user", tree["path"])
	assert.Equal(t, "100 B", tree["size_human"])

	meta, ok := parsed["meta"].(map[string]interface{})
	require.True(t, ok)
	skipped, ok := meta["skipped"].([]interface{})
	require.True(t, ok)
	assert.Len(t, skipped, 1)
}
