package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"

	"realtor-agents-scraper/models"
)

// ErrNoAgents is returned when a CSV export is asked to write nothing.
var ErrNoAgents = errors.New("no agents to write")

// CSVWriter writes agents as a CSV file with a header row.
type CSVWriter struct {
	path string
}

// NewCSVWriter returns a writer for path. The file is created on Write, so an
// empty export leaves no file behind.
func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

// Write replaces the file with the CSV rendering of agents.
func (c *CSVWriter) Write(agents []models.Agent) error {
	if len(agents) == 0 {
		return fmt.Errorf("csv: %w", ErrNoAgents)
	}
	f, err := createFile(c.path)
	if err != nil {
		return fmt.Errorf("csv: %w", err)
	}
	defer f.Close()

	if err := EncodeCSV(f, agents); err != nil {
		return fmt.Errorf("csv: write %q: %w", c.path, err)
	}
	return f.Close()
}

func (c *CSVWriter) Close() error { return nil }

// EncodeCSV writes a header and one row per agent to w.
func EncodeCSV(w io.Writer, agents []models.Agent) error {
	if len(agents) == 0 {
		return ErrNoAgents
	}
	header := csvHeader(agents)

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	row := make([]string, len(header))
	for _, a := range agents {
		cells := a.Strings()
		for i, name := range header {
			row[i] = cells[name]
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// csvHeader lists the canonical fields present in the records, then every
// other key seen in any record, sorted.
func csvHeader(agents []models.Agent) []string {
	present := make(map[string]bool)
	extras := make([]string, 0)
	for _, a := range agents {
		for _, col := range a.Columns() {
			if present[col.Name] {
				continue
			}
			present[col.Name] = true
			if !models.IsCanonical(col.Name) {
				extras = append(extras, col.Name)
			}
		}
	}

	header := make([]string, 0, len(models.FieldOrder)+len(extras))
	for _, name := range models.FieldOrder {
		if present[name] {
			header = append(header, name)
		}
	}
	sort.Strings(extras)
	return append(header, extras...)
}
