package persist_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/jamesainslie/dirscan/pkg/dirscan/persist"
	"github.com/jamesainslie/dirscan/pkg/dirscan/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() *types.Node {
	root := types.NewNode("/data")
	root.Size = 15

	sub := types.NewNode("/data/sub")
	sub.Size = 20
	sub.AddChild(types.NewNode("/data/sub/empty"))

	root.AddChild(sub)
	root.AddChild(types.NewNode("/data/\"quoted\" ü"))
	return root
}

func TestEncode(t *testing.T) {
	root := types.NewNode("/r")
	root.Size = 15
	sub := types.NewNode("/r/sub")
	sub.Size = 20
	root.AddChild(sub)

	data, err := persist.Encode(root)
	require.NoError(t, err)
	assert.JSONEq(t, `["/r", 35, [["/r/sub", 20, []]]]`, string(data))
}

func TestEncode_NonUTF8PathKeptVerbatim(t *testing.T) {
	path := "/data/\xff\xfe"
	root := types.NewNode(path)
	root.Size = 3

	data, err := persist.Encode(root)
	require.NoError(t, err)
	assert.True(t, bytes.Contains(data, []byte(path)), "path bytes should be written unchanged: %q", data)
	assert.NotContains(t, string(data), `\ufffd`)

	decoded, err := persist.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, path, decoded.Path)
	assert.True(t, root.Equal(decoded))
}

func TestEncode_Nil(t *testing.T) {
	_, err := persist.Encode(nil)
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.json")
	tree := sampleTree()

	require.NoError(t, persist.Save(tree, path))

	loaded, err := persist.Load(path)
	require.NoError(t, err)
	assert.True(t, tree.Equal(loaded), "loaded tree should match the saved tree")
	assert.Equal(t, tree.Count(), loaded.Count())
}

func TestSave_DoesNotPersistTruncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.json")
	root := types.NewNode("/r")
	child := types.NewNode("/r/a")
	child.Truncated = true
	root.AddChild(child)
	require.True(t, root.Truncated)

	require.NoError(t, persist.Save(root, path))

	loaded, err := persist.Load(path)
	require.NoError(t, err)
	assert.False(t, loaded.Truncated)
	assert.False(t, loaded.Children[0].Truncated)
}

func TestSave_OverwritesAndLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tree.json")
	require.NoError(t, os.WriteFile(path, []byte("old content"), 0o644))

	require.NoError(t, persist.Save(sampleTree(), path))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "tree.json", entries[0].Name())

	loaded, err := persist.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data", loaded.Path)
}

func TestSave_Errors(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plain")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	tests := []struct {
		name string
		path string
	}{
		{"missing parent", filepath.Join(dir, "missing", "tree.json")},
		{"parent is a file", filepath.Join(file, "tree.json")},
		{"destination is a directory", dir},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := persist.Save(sampleTree(), tt.path)
			assert.ErrorIs(t, err, persist.ErrIO)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := persist.Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, persist.ErrIO)
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ``},
		{"not json", `hello`},
		{"object", `{"path": "/r"}`},
		{"two elements", `["/r", 1]`},
		{"four elements", `["/r", 1, [], 4]`},
		{"path not string", `[1, 1, []]`},
		{"null path", `[null, 1, []]`},
		{"size not number", `["/r", "1", []]`},
		{"null size", `["/r", null, []]`},
		{"fractional size", `["/r", 1.5, []]`},
		{"negative size", `["/r", -1, []]`},
		{"children not array", `["/r", 1, {}]`},
		{"null children", `["/r", 1, null]`},
		{"bad child", `["/r", 1, [["/r/a", 1]]]`},
		{"trailing data", `["/r", 1, []] ["/s", 1, []]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := persist.Decode([]byte(tt.data))
			assert.ErrorIs(t, err, persist.ErrFormat)
		})
	}
}

func TestDecode_Valid(t *testing.T) {
	node, err := persist.Decode([]byte(` ["/r", 35, [ ["/r/sub", 20, []] ] ]`))
	require.NoError(t, err)
	assert.Equal(t, "/r", node.Path)
	assert.Equal(t, int64(35), node.Size)
	require.Len(t, node.Children, 1)
	assert.Equal(t, "/r/sub", node.Children[0].Path)
	assert.Empty(t, node.Children[0].Children)
}

func TestLoad_InvalidFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.json")
	require.NoError(t, os.WriteFile(path, []byte(`["/r", -5, []]`), 0o644))

	_, err := persist.Load(path)
	assert.ErrorIs(t, err, persist.ErrFormat)
	assert.NotErrorIs(t, err, persist.ErrIO)
}
