package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"realtor-agents-scraper/models"
	"realtor-agents-scraper/utils"
)

const (
	batchSize     = 50
	columnsPerRow = 14
)

// PostgresWriter persists normalized agents to PostgreSQL.
type PostgresWriter struct {
	db *sql.DB
}

// DefaultPingRetry is used when NewPostgresWriter is given a nil retry config.
func DefaultPingRetry(logger *utils.Logger) *utils.RetryConfig {
	return &utils.RetryConfig{MaxAttempts: 5, BaseDelay: time.Second, Logger: logger}
}

// NewPostgresWriter opens a connection to PostgreSQL, waits for it to answer
// pings, runs schema migrations, and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string, retry *utils.RetryConfig) (*PostgresWriter, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres: empty DSN")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if retry == nil {
		retry = DefaultPingRetry(nil)
	}
	if err := retry.Do("postgres ping", db.Ping); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS agents (
			id                 SERIAL PRIMARY KEY,
			name               TEXT        NOT NULL DEFAULT '',
			website            TEXT        NOT NULL DEFAULT '',
			email              TEXT        NOT NULL DEFAULT '',
			listing_count      INTEGER     NOT NULL DEFAULT 0,
			sold_count         INTEGER     NOT NULL DEFAULT 0,
			office_phone       TEXT        NOT NULL DEFAULT '',
			mobile_phones      TEXT        NOT NULL DEFAULT '',
			areas_serviced     TEXT        NOT NULL DEFAULT '',
			zip_codes_serviced TEXT        NOT NULL DEFAULT '',
			office_name        TEXT        NOT NULL DEFAULT '',
			company_website    TEXT,
			review_count       INTEGER     NOT NULL DEFAULT 0,
			photo_url          TEXT,
			extra              JSONB       NOT NULL DEFAULT '{}',
			created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_agents_website
			ON agents(website) WHERE website <> '';
		CREATE INDEX IF NOT EXISTS idx_agents_office_name ON agents(office_name);
		CREATE INDEX IF NOT EXISTS idx_agents_sold_count  ON agents(sold_count);
	`)
	return err
}

// Write batch-inserts agents. Rows with a non-empty website replace the
// stored row for that website.
func (pw *PostgresWriter) Write(agents []models.Agent) error {
	agents = dedupeByWebsite(agents)
	for i := 0; i < len(agents); i += batchSize {
		end := i + batchSize
		if end > len(agents) {
			end = len(agents)
		}
		query, args, err := buildInsert(agents[i:end])
		if err != nil {
			return fmt.Errorf("postgres: build insert: %w", err)
		}
		if _, err := pw.db.Exec(query, args...); err != nil {
			return fmt.Errorf("postgres: insert batch at %d: %w", i, err)
		}
	}
	return nil
}

// dedupeByWebsite keeps the first position of each website and the values of
// its last occurrence. A single upsert statement cannot touch a row twice.
func dedupeByWebsite(agents []models.Agent) []models.Agent {
	out := make([]models.Agent, 0, len(agents))
	seen := make(map[string]int, len(agents))
	for _, a := range agents {
		if a.Website != "" {
			if idx, ok := seen[a.Website]; ok {
				out[idx] = a
				continue
			}
			seen[a.Website] = len(out)
		}
		out = append(out, a)
	}
	return out
}

func buildInsert(batch []models.Agent) (string, []any, error) {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*columnsPerRow)

	for idx, a := range batch {
		placeholders := make([]string, columnsPerRow)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", idx*columnsPerRow+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")

		extra, err := encodeExtra(a.Extra)
		if err != nil {
			return "", nil, err
		}
		valueArgs = append(valueArgs,
			a.Name, a.Website, a.Email, a.ListingCount, a.SoldCount,
			a.OfficePhone, a.MobilePhones, a.AreasServiced, a.ZipCodesServiced,
			a.OfficeName, nullString(a.CompanyWebsite), a.ReviewCount,
			nullString(a.PhotoURL), extra)
	}

	query := fmt.Sprintf(`
		INSERT INTO agents (name, website, email, listing_count, sold_count,
			office_phone, mobile_phones, areas_serviced, zip_codes_serviced,
			office_name, company_website, review_count, photo_url, extra)
		VALUES %s
		ON CONFLICT (website) WHERE website <> '' DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			listing_count = EXCLUDED.listing_count,
			sold_count = EXCLUDED.sold_count,
			office_phone = EXCLUDED.office_phone,
			mobile_phones = EXCLUDED.mobile_phones,
			areas_serviced = EXCLUDED.areas_serviced,
			zip_codes_serviced = EXCLUDED.zip_codes_serviced,
			office_name = EXCLUDED.office_name,
			company_website = EXCLUDED.company_website,
			review_count = EXCLUDED.review_count,
			photo_url = EXCLUDED.photo_url,
			extra = EXCLUDED.extra
	`, strings.Join(valueStrings, ","))
	return query, valueArgs, nil
}

func encodeExtra(extra map[string]string) (string, error) {
	if len(extra) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(extra)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// FetchAll retrieves all stored agents in insertion order.
func (pw *PostgresWriter) FetchAll() ([]models.Agent, error) {
	rows, err := pw.db.Query(`
		SELECT name, website, email, listing_count, sold_count, office_phone,
			mobile_phones, areas_serviced, zip_codes_serviced, office_name,
			company_website, review_count, photo_url, extra
		FROM agents
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	agents := make([]models.Agent, 0)
	for rows.Next() {
		var (
			a              models.Agent
			companyWebsite sql.NullString
			photoURL       sql.NullString
			extra          []byte
		)
		if err := rows.Scan(
			&a.Name, &a.Website, &a.Email, &a.ListingCount, &a.SoldCount,
			&a.OfficePhone, &a.MobilePhones, &a.AreasServiced, &a.ZipCodesServiced,
			&a.OfficeName, &companyWebsite, &a.ReviewCount, &photoURL, &extra,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		if companyWebsite.Valid {
			a.CompanyWebsite = models.StringPtr(companyWebsite.String)
		}
		if photoURL.Valid {
			a.PhotoURL = models.StringPtr(photoURL.String)
		}
		if len(extra) > 0 {
			if err := json.Unmarshal(extra, &a.Extra); err != nil {
				return nil, fmt.Errorf("postgres: decode extra: %w", err)
			}
			if len(a.Extra) == 0 {
				a.Extra = nil
			}
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}
