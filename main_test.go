package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"realtor-agents-scraper/config"
	"realtor-agents-scraper/models"
	"realtor-agents-scraper/storage"
)

// directory serves cardsPerZip agent cards on the first page of every zip
// code and an empty second page.
type directory struct {
	mu          sync.Mutex
	requests    []string
	cardsPerZip int
}

func (d *directory) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	d.requests = append(d.requests, r.URL.Path)
	d.mu.Unlock()

	if strings.Contains(r.URL.Path, "/pg-") {
		fmt.Fprint(w, "<html><body></body></html>")
		return
	}
	zip := filepath.Base(r.URL.Path)
	var b strings.Builder
	for i := 0; i < d.cardsPerZip; i++ {
		fmt.Fprintf(&b, `<div class="agent-card">
			<a class="agent-name" href="https://www.realtor.com/realestateagents/%s-%d">Agent %s-%d</a>
			<span class="sold-count">%d sold</span>
			<span class="zip-codes-serviced">%s</span>
		</div>`, zip, i, zip, i, i+1, zip)
	}
	fmt.Fprint(w, b.String())
}

func (d *directory) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.requests)
}

// setup points the scraper at a fake directory and a temp output dir.
func setup(t *testing.T, cardsPerZip int) (*directory, string) {
	t.Helper()
	dir := &directory{cardsPerZip: cardsPerZip}
	srv := httptest.NewServer(dir)
	t.Cleanup(srv.Close)

	out := t.TempDir()
	t.Setenv("REALTOR_BASE_URL", srv.URL+"/realestateagents")
	t.Setenv("RATE_LIMIT_RPM", "60000")
	t.Setenv("OUTPUT_DIR", out)
	t.Setenv("TRIAL_LIMIT", "")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("POSTGRES_DSN", "")

	oldSample := config.SampleZipFile
	config.SampleZipFile = filepath.Join(out, "no-sample.json")
	t.Cleanup(func() { config.SampleZipFile = oldSample })
	return dir, out
}

func runCLI(t *testing.T, opts *cliOptions) (string, error) {
	t.Helper()
	if opts.outputFormat == "" {
		opts.outputFormat = storage.FormatJSON
	}
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), opts, &stdout, &stderr)
	return stdout.String(), err
}

func readAgents(t *testing.T, path string) []models.Agent {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	var agents []models.Agent
	if err := json.Unmarshal(data, &agents); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return agents
}

func TestRunWritesJSONToDefaultPath(t *testing.T) {
	dir, out := setup(t, 2)
	if _, err := runCLI(t, &cliOptions{zipCodes: "90049,90210"}); err != nil {
		t.Fatalf("run: %v", err)
	}

	agents := readAgents(t, filepath.Join(out, "agents.json"))
	if len(agents) != 4 {
		t.Fatalf("agents: got %d, want 4", len(agents))
	}
	want := []string{"Agent 90049-0", "Agent 90049-1", "Agent 90210-0", "Agent 90210-1"}
	for i, name := range want {
		if agents[i].Name != name {
			t.Errorf("agents[%d]: got %q, want %q", i, agents[i].Name, name)
		}
	}
	if agents[1].SoldCount != 2 || agents[2].ZipCodesServiced != "90210" {
		t.Errorf("normalized fields: got sold %d zips %q", agents[1].SoldCount, agents[2].ZipCodesServiced)
	}
	if dir.count() != 4 {
		t.Errorf("requests: got %d, want 4 (two pages per zip)", dir.count())
	}
}

func TestRunTrialLimit(t *testing.T) {
	dir, out := setup(t, 3)
	opts := &cliOptions{zipCodes: "90049,90210,10001", trialLimit: 4, trialLimitSet: true}
	if _, err := runCLI(t, opts); err != nil {
		t.Fatalf("run: %v", err)
	}
	if agents := readAgents(t, filepath.Join(out, "agents.json")); len(agents) != 4 {
		t.Errorf("agents: got %d, want 4", len(agents))
	}
	for _, p := range dir.requests {
		if strings.Contains(p, "10001") {
			t.Errorf("third zip code should not be queried, saw %s", p)
		}
	}
}

func TestRunZeroMaxPerZipWritesNothing(t *testing.T) {
	dir, out := setup(t, 2)
	opts := &cliOptions{zipCodes: "90049,90210", maxPerZip: 0, maxPerZipSet: true}
	if _, err := runCLI(t, opts); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "agents.json")); !os.IsNotExist(err) {
		t.Errorf("no output file expected, stat err = %v", err)
	}
	if dir.count() != 2 {
		t.Errorf("requests: got %d, want one per zip code", dir.count())
	}
}

func TestRunNoAgentsWritesNothing(t *testing.T) {
	_, out := setup(t, 0)
	if _, err := runCLI(t, &cliOptions{zipCodes: "99999", outputFormat: "csv"}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "agents.csv")); !os.IsNotExist(err) {
		t.Errorf("no output file expected, stat err = %v", err)
	}
}

func TestRunCSVWithSummary(t *testing.T) {
	_, out := setup(t, 2)
	path := filepath.Join(out, "custom", "agents.csv")
	stdout, err := runCLI(t, &cliOptions{zipCodes: "90049", outputFormat: "csv", outputPath: path, summary: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if !strings.HasPrefix(string(data), models.FieldAgentName+","+models.FieldWebsite) {
		t.Errorf("csv header: got %q", strings.SplitN(string(data), "\n", 2)[0])
	}
	if !strings.Contains(stdout, "Agent 90049-1") {
		t.Errorf("summary missing top agent:\n%s", stdout)
	}
}

func TestRunRejectsBadInputBeforeFetching(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		opts    cliOptions
		wantErr error
	}{
		{"zero rate", map[string]string{"RATE_LIMIT_RPM": "0"}, cliOptions{zipCodes: "90049"}, config.ErrInvalidSettings},
		{"negative max per zip", nil, cliOptions{zipCodes: "90049", maxPerZip: -1, maxPerZipSet: true}, config.ErrInvalidSettings},
		{"negative trial limit", nil, cliOptions{zipCodes: "90049", trialLimit: -1, trialLimitSet: true}, config.ErrInvalidSettings},
		{"negative trial limit from env", map[string]string{"TRIAL_LIMIT": "-3"}, cliOptions{zipCodes: "90049"}, config.ErrInvalidSettings},
		{"no zip codes", nil, cliOptions{zipCodes: " , "}, config.ErrNoZipCodes},
		{"no zip source", nil, cliOptions{}, config.ErrNoZipCodes},
		{"unknown format", nil, cliOptions{zipCodes: "90049", outputFormat: "xml"}, storage.ErrUnknownFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, _ := setup(t, 1)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			opts := tt.opts
			_, err := runCLI(t, &opts)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
			if dir.count() != 0 {
				t.Errorf("no requests expected, got %d", dir.count())
			}
		})
	}
}

func TestApplyFlags(t *testing.T) {
	s := config.Defaults()
	s.Cookie = "from-settings"
	applyFlags(s, &cliOptions{userAgent: "cli-agent", trialLimit: 0, trialLimitSet: true})

	if s.UserAgent != "cli-agent" {
		t.Errorf("UserAgent: got %q", s.UserAgent)
	}
	if s.Cookie != "from-settings" {
		t.Errorf("unset --cookie should keep the settings value, got %q", s.Cookie)
	}
	if s.TrialLimit == nil || *s.TrialLimit != 0 {
		t.Errorf("TrialLimit: got %v, want 0", s.TrialLimit)
	}
}

func TestResolveOutputPath(t *testing.T) {
	if got := resolveOutputPath("", "data", "csv"); got != filepath.Join("data", "agents.csv") {
		t.Errorf("default path: got %q", got)
	}
	if got := resolveOutputPath("out/x.json", "data", "json"); got != "out/x.json" {
		t.Errorf("explicit path: got %q", got)
	}
}
