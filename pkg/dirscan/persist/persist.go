// Package persist saves and loads directory trees as JSON.
//
// A tree is stored as a single nested array per node:
//
//	["/data", 35, [["/data/sub", 20, []]]]
//
// The first element is the absolute path, the second the recursive size in
// bytes and the third the list of child directories in the same shape.
//
// Paths are written byte for byte. Bytes that are not valid UTF-8 are kept
// as they are rather than replaced, so a file holding such a path is not
// strict JSON but still loads back to the exact path.
package persist

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jamesainslie/dirscan/pkg/dirscan/types"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrIO is returned when a tree file cannot be read or written.
	ErrIO = errors.New("tree file i/o error")

	// ErrFormat is returned when a tree file does not hold a valid tree.
	ErrFormat = errors.New("invalid tree format")
)

// Encode serialises node into its persisted form.
func Encode(node *types.Node) ([]byte, error) {
	if node == nil {
		return nil, errors.New("cannot encode nil tree")
	}

	stream := json.BorrowStream(nil)
	defer json.ReturnStream(stream)

	writeNode(stream, node)
	if stream.Error != nil {
		return nil, fmt.Errorf("encoding tree: %w", stream.Error)
	}

	out := make([]byte, len(stream.Buffer()))
	copy(out, stream.Buffer())
	return out, nil
}

func writeNode(stream *jsoniter.Stream, node *types.Node) {
	stream.WriteArrayStart()
	// WriteString leaves invalid UTF-8 untouched, unlike the HTML-escaping
	// writer which substitutes U+FFFD.
	stream.WriteString(node.Path)
	stream.WriteMore()
	stream.WriteInt64(node.Size)
	stream.WriteMore()
	stream.WriteArrayStart()
	for i, child := range node.Children {
		if i > 0 {
			stream.WriteMore()
		}
		writeNode(stream, child)
	}
	stream.WriteArrayEnd()
	stream.WriteArrayEnd()
}

// Decode parses a persisted tree. Any deviation from the
// [path, size, children] shape yields ErrFormat.
func Decode(data []byte) (*types.Node, error) {
	node, err := decodeNode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return node, nil
}

func decodeNode(data []byte) (*types.Node, error) {
	if !startsWith(data, '[') {
		return nil, errors.New("node is not an array")
	}

	var parts []jsoniter.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return nil, err
	}
	if len(parts) != 3 {
		return nil, fmt.Errorf("node has %d elements, want 3", len(parts))
	}

	if !startsWith(parts[0], '"') {
		return nil, errors.New("path is not a string")
	}
	var path string
	if err := json.Unmarshal(parts[0], &path); err != nil {
		return nil, fmt.Errorf("path: %w", err)
	}

	var size int64
	if err := json.Unmarshal(parts[1], &size); err != nil || startsWith(parts[1], 'n') {
		return nil, fmt.Errorf("size of %q is not an integer", path)
	}
	if size < 0 {
		return nil, fmt.Errorf("size of %q is negative", path)
	}

	if !startsWith(parts[2], '[') {
		return nil, fmt.Errorf("children of %q is not an array", path)
	}
	var rawChildren []jsoniter.RawMessage
	if err := json.Unmarshal(parts[2], &rawChildren); err != nil {
		return nil, fmt.Errorf("children of %q: %w", path, err)
	}

	node := types.NewNode(path)
	node.Size = size
	for _, raw := range rawChildren {
		child, err := decodeNode(raw)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}

	return node, nil
}

func startsWith(data []byte, c byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == c
}

// Save writes node to path. The file is written to a temporary file in the
// destination directory and renamed into place, so a failed save never
// leaves a partial file behind.
func Save(node *types.Node, path string) error {
	data, err := Encode(node)
	if err != nil {
		return err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%w: resolving %s: %v", ErrIO, path, err)
	}

	dir := filepath.Dir(abs)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrIO, dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(abs)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: creating temp file: %v", ErrIO, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: writing %s: %v", ErrIO, abs, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: closing %s: %v", ErrIO, abs, err)
	}

	if err := os.Rename(tmpPath, abs); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: renaming temp file: %v", ErrIO, err)
	}

	return nil
}

// Load reads a tree from path.
func Load(path string) (*types.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return Decode(data)
}
