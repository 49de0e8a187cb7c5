package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func noEnv(string) (string, bool) { return "", false }

func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

// isolate points the default settings paths at a temp dir for one test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	oldDefault, oldExample := DefaultSettingsPath, ExampleSettingsPath
	DefaultSettingsPath = filepath.Join(dir, "settings.yaml")
	ExampleSettingsPath = filepath.Join(dir, "settings.example.yaml")
	t.Cleanup(func() {
		DefaultSettingsPath, ExampleSettingsPath = oldDefault, oldExample
	})
	return dir
}

func TestLoadDefaults(t *testing.T) {
	dir := isolate(t)
	s, err := LoadFrom("", filepath.Join(dir, "missing.env"), noEnv)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if s.BaseURL != DefaultBaseURL || s.RateLimitRPM != 30 || s.OutputDir != "data" || s.LogLevel != "info" {
		t.Errorf("defaults: got %+v", s)
	}
	if s.TrialLimit != nil || s.Cookie != "" || s.UserAgent != "" || s.Source != "" {
		t.Errorf("optional fields should be unset: %+v", s)
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := isolate(t)
	yamlPath := filepath.Join(dir, "custom.yaml")
	writeFile(t, yamlPath, `
base_url: https://yaml.example.com/agents
rate_limit_rpm: 10
user_agent: yaml-agent
cookie: yaml-cookie
trial_limit: 5
output_dir: yaml-out
`)
	envPath := filepath.Join(dir, ".env")
	writeFile(t, envPath, "RATE_LIMIT_RPM=20\nUSER_AGENT=dotenv-agent\nPOSTGRES_DSN=postgres://dotenv\n")

	env := envMap(map[string]string{
		"USER_AGENT":  "env-agent",
		"TRIAL_LIMIT": "7",
		"OUTPUT_DIR":  "",
	})
	s, err := LoadFrom(yamlPath, envPath, env)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if s.BaseURL != "https://yaml.example.com/agents" {
		t.Errorf("BaseURL: got %q, want yaml value", s.BaseURL)
	}
	if s.RateLimitRPM != 20 {
		t.Errorf("RateLimitRPM: got %d, want 20 from .env", s.RateLimitRPM)
	}
	if s.UserAgent != "env-agent" {
		t.Errorf("UserAgent: got %q, want env-agent", s.UserAgent)
	}
	if s.Cookie != "yaml-cookie" {
		t.Errorf("Cookie: got %q, want yaml-cookie", s.Cookie)
	}
	if s.TrialLimit == nil || *s.TrialLimit != 7 {
		t.Errorf("TrialLimit: got %v, want 7", s.TrialLimit)
	}
	if s.OutputDir != "yaml-out" {
		t.Errorf("OutputDir: got %q, empty env must not override", s.OutputDir)
	}
	if s.PostgresDSN != "postgres://dotenv" {
		t.Errorf("PostgresDSN: got %q", s.PostgresDSN)
	}
	if s.Source != yamlPath {
		t.Errorf("Source: got %q, want %q", s.Source, yamlPath)
	}
}

func TestLoadBadIntegersIgnored(t *testing.T) {
	dir := isolate(t)
	env := envMap(map[string]string{"RATE_LIMIT_RPM": "fast", "TRIAL_LIMIT": "lots"})
	s, err := LoadFrom("", filepath.Join(dir, ".env"), env)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if s.RateLimitRPM != DefaultRateLimitRPM || s.TrialLimit != nil {
		t.Errorf("bad integers should be ignored: rpm %d trial %v", s.RateLimitRPM, s.TrialLimit)
	}
}

func TestLoadFallsBackToExample(t *testing.T) {
	dir := isolate(t)
	writeFile(t, ExampleSettingsPath, "rate_limit_rpm: 12\n")

	for _, explicit := range []string{"", filepath.Join(dir, "nope.yaml")} {
		s, err := LoadFrom(explicit, "", noEnv)
		if err != nil {
			t.Fatalf("LoadFrom(%q): %v", explicit, err)
		}
		if s.RateLimitRPM != 12 || s.Source != ExampleSettingsPath {
			t.Errorf("LoadFrom(%q): got rpm %d from %q", explicit, s.RateLimitRPM, s.Source)
		}
	}
}

func TestLoadDefaultFileWinsOverExample(t *testing.T) {
	isolate(t)
	writeFile(t, DefaultSettingsPath, "rate_limit_rpm: 45\n")
	writeFile(t, ExampleSettingsPath, "rate_limit_rpm: 12\n")

	s, err := LoadFrom("", "", noEnv)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if s.RateLimitRPM != 45 {
		t.Errorf("RateLimitRPM: got %d, want 45", s.RateLimitRPM)
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "bad.yaml")
	writeFile(t, path, "rate_limit_rpm: [oops\n")
	if _, err := LoadFrom(path, "", noEnv); err == nil {
		t.Errorf("expected a parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{"defaults", func(*Settings) {}, false},
		{"zero rate", func(s *Settings) { s.RateLimitRPM = 0 }, true},
		{"negative rate", func(s *Settings) { s.RateLimitRPM = -3 }, true},
		{"blank base url", func(s *Settings) { s.BaseURL = "  " }, true},
		{"zero trial limit", func(s *Settings) { s.TrialLimit = new(int) }, false},
		{"negative trial limit", func(s *Settings) { n := -1; s.TrialLimit = &n }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Defaults()
			tt.mutate(s)
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate: got %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidSettings) {
				t.Errorf("error should wrap ErrInvalidSettings: %v", err)
			}
		})
	}
}
