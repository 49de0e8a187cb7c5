package storage

import (
	"errors"
	"fmt"
	"strings"

	"realtor-agents-scraper/config"
	"realtor-agents-scraper/utils"
)

// Output formats accepted by NewWriter.
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatPostgres = "postgres"
)

// ErrUnknownFormat is returned by NewWriter for an unsupported format name.
var ErrUnknownFormat = errors.New("unknown output format")

// NewWriter returns the AgentWriter for format. Path is ignored for postgres,
// which connects with settings.PostgresDSN.
func NewWriter(format, path string, settings *config.Settings, logger *utils.Logger) (AgentWriter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatJSON:
		return NewJSONWriter(path), nil
	case FormatCSV:
		return NewCSVWriter(path), nil
	case FormatPostgres:
		if settings == nil || settings.PostgresDSN == "" {
			return nil, fmt.Errorf("storage: postgres output needs POSTGRES_DSN or postgres_dsn")
		}
		return NewPostgresWriter(settings.PostgresDSN, DefaultPingRetry(logger))
	default:
		return nil, fmt.Errorf("storage: %w %q (want json, csv or postgres)", ErrUnknownFormat, format)
	}
}
