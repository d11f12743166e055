// Package testdata embeds recorded wrist traces for replay tests.
package testdata

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
)

//go:embed traces/*.jsonl
var tracesFS embed.FS

// LoadTrace returns the JSONL trace with the given name, without extension.
func LoadTrace(name string) ([]byte, error) {
	data, err := tracesFS.ReadFile(path.Join("traces", name+".jsonl"))
	if err != nil {
		return nil, fmt.Errorf("load trace %s: %w", name, err)
	}
	return data, nil
}

// OpenTrace returns a reader over the named trace.
func OpenTrace(name string) (io.Reader, error) {
	data, err := LoadTrace(name)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// Traces lists the embedded trace names.
func Traces() []string {
	entries, err := tracesFS.ReadDir("traces")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".jsonl"))
	}
	sort.Strings(names)
	return names
}
