// Package bundle loads the bundle file handed to the importer. The importer
// treats bundle content as opaque bytes; Summarize is a best-effort peek used
// only for operator-facing output.
package bundle

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// DefaultFileName is the bundle the extraction pipeline writes under data/.
const DefaultFileName = "stage4_stix_bundle.json"

// ContentType is sent with the bundle's file part.
const ContentType = "application/json"

var (
	// ErrNotFound is returned when the bundle path does not exist.
	ErrNotFound = errors.New("bundle file not found")
	// ErrEmpty is returned when the bundle file has no content.
	ErrEmpty = errors.New("bundle file is empty")
	// ErrNotRegular is returned when the bundle path is a directory or device.
	ErrNotRegular = errors.New("bundle path is not a regular file")
)

// File is a bundle loaded into memory.
type File struct {
	// Path is the absolute path the bundle was read from.
	Path string
	// Name is the declared filename sent with the upload.
	Name string
	// Content is the raw bundle bytes.
	Content []byte
}

// Size returns the content length in bytes.
func (f *File) Size() int {
	return len(f.Content)
}

// Load reads the bundle at path. The file must exist, be a regular file and
// be non-empty.
func Load(path string) (*File, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrNotFound)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve bundle path %q: %w", path, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, abs)
		}
		return nil, fmt.Errorf("stat bundle %s: %w", abs, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotRegular, abs)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmpty, abs)
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read bundle %s: %w", abs, err)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmpty, abs)
	}

	return &File{
		Path:    abs,
		Name:    filepath.Base(abs),
		Content: content,
	}, nil
}

// TypeCount is the number of objects of one STIX type.
type TypeCount struct {
	Type  string
	Count int
}

// Summary describes a STIX-shaped bundle for display.
type Summary struct {
	Type        string
	ObjectCount int
	Types       []TypeCount
}

// Summarize peeks at content as a STIX bundle. ok is false when content is
// not a JSON object; the importer uploads such content unchanged.
func Summarize(content []byte) (summary Summary, ok bool) {
	var doc struct {
		Type    string `json:"type"`
		Objects []struct {
			Type string `json:"type"`
		} `json:"objects"`
	}
	if err := json.Unmarshal(content, &doc); err != nil {
		return Summary{}, false
	}

	counts := make(map[string]int)
	for _, obj := range doc.Objects {
		t := obj.Type
		if t == "" {
			t = "unknown"
		}
		counts[t]++
	}

	types := make([]TypeCount, 0, len(counts))
	for t, n := range counts {
		types = append(types, TypeCount{Type: t, Count: n})
	}
	sort.Slice(types, func(i, j int) bool {
		if types[i].Count != types[j].Count {
			return types[i].Count > types[j].Count
		}
		return types[i].Type < types[j].Type
	})

	return Summary{Type: doc.Type, ObjectCount: len(doc.Objects), Types: types}, true
}
