package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// SampleZipFile is read when neither a list nor a file of zip codes is given.
var SampleZipFile = "data/input_zip_codes.sample.json"

// ErrNoZipCodes is returned when no zip codes could be obtained.
var ErrNoZipCodes = errors.New("no zip codes provided")

// ZipSource describes where the zip codes of a run come from. List wins over
// File; with neither set the sample file is used.
type ZipSource struct {
	List string
	File string
}

// LoadZipCodes returns the zip codes to scrape, in input order.
func LoadZipCodes(src ZipSource) ([]string, error) {
	if src.List != "" {
		codes := splitList(src.List)
		if len(codes) == 0 {
			return nil, fmt.Errorf("config: %w: --zip-codes has no valid entries", ErrNoZipCodes)
		}
		return codes, nil
	}

	if src.File != "" {
		codes, err := readZipFile(src.File)
		if err != nil {
			return nil, err
		}
		if len(codes) == 0 {
			return nil, fmt.Errorf("config: %w: %s contains no valid entries", ErrNoZipCodes, src.File)
		}
		return codes, nil
	}

	if _, err := os.Stat(SampleZipFile); err == nil {
		if codes, err := readZipFile(SampleZipFile); err == nil && len(codes) > 0 {
			return codes, nil
		}
	}

	return nil, fmt.Errorf("config: %w: pass --zip-codes or --zip-file (see %s for the file format)",
		ErrNoZipCodes, SampleZipFile)
}

func splitList(list string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(list, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// readZipFile accepts a JSON array whose entries are strings or numbers.
func readZipFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: zip code file: %w", err)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("config: zip code file %s must contain a JSON array: %w", path, err)
	}

	codes := make([]string, 0, len(entries))
	for _, raw := range entries {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			var n json.Number
			if err := json.Unmarshal(raw, &n); err != nil {
				return nil, fmt.Errorf("config: zip code file %s: entry %s is neither a string nor a number", path, raw)
			}
			s = n.String()
		}
		if s = strings.TrimSpace(s); s != "" {
			codes = append(codes, s)
		}
	}
	return codes, nil
}
