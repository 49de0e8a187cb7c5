package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"realtor-agents-scraper/models"
)

// JSONWriter writes agents as an indented JSON array to a file.
type JSONWriter struct {
	path string
}

// NewJSONWriter returns a writer for path. The file is created on Write.
func NewJSONWriter(path string) *JSONWriter {
	return &JSONWriter{path: path}
}

// Write replaces the file with the JSON encoding of agents. An empty slice
// produces "[]".
func (j *JSONWriter) Write(agents []models.Agent) error {
	f, err := createFile(j.path)
	if err != nil {
		return fmt.Errorf("json: %w", err)
	}
	defer f.Close()

	if err := EncodeJSON(f, agents); err != nil {
		return fmt.Errorf("json: write %q: %w", j.path, err)
	}
	return f.Close()
}

func (j *JSONWriter) Close() error { return nil }

// EncodeJSON writes agents to w as a two-space indented JSON array without
// HTML escaping. Beyond string quoting only U+2028 and U+2029 are escaped.
func EncodeJSON(w io.Writer, agents []models.Agent) error {
	if agents == nil {
		agents = []models.Agent{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(agents)
}

func createFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create file %q: %w", path, err)
	}
	return f, nil
}
