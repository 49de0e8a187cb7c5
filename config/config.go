package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default values applied before any file or environment override.
const (
	DefaultBaseURL      = "https://www.realtor.com/realestateagents"
	DefaultRateLimitRPM = 30
	DefaultOutputDir    = "data"
	DefaultLogLevel     = "info"
)

// Settings files tried, in order, when no explicit path is given or the
// explicit path does not exist.
var (
	DefaultSettingsPath = "config/settings.yaml"
	ExampleSettingsPath = "config/settings.example.yaml"
	DotEnvPath          = ".env"
)

// ErrInvalidSettings is returned by Validate.
var ErrInvalidSettings = errors.New("invalid settings")

// Settings holds the runtime configuration of a scrape.
type Settings struct {
	BaseURL      string `yaml:"base_url"`
	RateLimitRPM int    `yaml:"rate_limit_rpm"`
	UserAgent    string `yaml:"user_agent"`
	Cookie       string `yaml:"cookie"`
	TrialLimit   *int   `yaml:"trial_limit"`
	OutputDir    string `yaml:"output_dir"`
	LogLevel     string `yaml:"log_level"`
	PostgresDSN  string `yaml:"postgres_dsn"`

	// Source is the settings file that was read, empty when none was found.
	Source string `yaml:"-"`
}

// Defaults returns Settings populated with the built-in defaults.
func Defaults() *Settings {
	return &Settings{
		BaseURL:      DefaultBaseURL,
		RateLimitRPM: DefaultRateLimitRPM,
		OutputDir:    DefaultOutputDir,
		LogLevel:     DefaultLogLevel,
	}
}

// Load builds Settings from the defaults, a YAML settings file, the .env file
// and the process environment, in that order of increasing precedence.
func Load(settingsPath string) (*Settings, error) {
	return LoadFrom(settingsPath, DotEnvPath, os.LookupEnv)
}

// LoadFrom is Load with an explicit .env path and environment lookup.
func LoadFrom(settingsPath, dotEnvPath string, lookup func(string) (string, bool)) (*Settings, error) {
	s := Defaults()

	path, err := resolveSettingsFile(settingsPath)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := s.readYAML(path); err != nil {
			return nil, err
		}
	}

	dotEnv := map[string]string{}
	if dotEnvPath != "" {
		if _, err := os.Stat(dotEnvPath); err == nil {
			if dotEnv, err = godotenv.Read(dotEnvPath); err != nil {
				return nil, fmt.Errorf("config: read %s: %w", dotEnvPath, err)
			}
		}
	}

	s.applyEnv(func(key string) string {
		if val, ok := lookup(key); ok && val != "" {
			return val
		}
		return dotEnv[key]
	})
	return s, nil
}

func resolveSettingsFile(explicit string) (string, error) {
	candidates := []string{DefaultSettingsPath, ExampleSettingsPath}
	if explicit != "" {
		candidates = []string{explicit, ExampleSettingsPath}
	}
	for _, path := range candidates {
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}
		if err != nil && !os.IsNotExist(err) {
			return "", fmt.Errorf("config: stat %s: %w", path, err)
		}
	}
	return "", nil
}

func (s *Settings) readYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	s.Source = path
	return nil
}

func (s *Settings) applyEnv(getenv func(string) string) {
	s.BaseURL = getEnv(getenv, "REALTOR_BASE_URL", s.BaseURL)
	s.RateLimitRPM = getEnvInt(getenv, "RATE_LIMIT_RPM", s.RateLimitRPM)
	s.UserAgent = getEnv(getenv, "USER_AGENT", s.UserAgent)
	s.Cookie = getEnv(getenv, "KP_UIDZ_SSN", s.Cookie)
	s.OutputDir = getEnv(getenv, "OUTPUT_DIR", s.OutputDir)
	s.LogLevel = getEnv(getenv, "LOG_LEVEL", s.LogLevel)
	s.PostgresDSN = getEnv(getenv, "POSTGRES_DSN", s.PostgresDSN)

	if val := getenv("TRIAL_LIMIT"); val != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			s.TrialLimit = &n
		}
	}
}

// Validate reports settings that would make a scrape impossible.
func (s *Settings) Validate() error {
	if strings.TrimSpace(s.BaseURL) == "" {
		return fmt.Errorf("config: %w: base_url is empty", ErrInvalidSettings)
	}
	if s.RateLimitRPM <= 0 {
		return fmt.Errorf("config: %w: rate_limit_rpm must be positive, got %d", ErrInvalidSettings, s.RateLimitRPM)
	}
	if s.TrialLimit != nil && *s.TrialLimit < 0 {
		return fmt.Errorf("config: %w: trial_limit must not be negative, got %d", ErrInvalidSettings, *s.TrialLimit)
	}
	return nil
}

func getEnv(getenv func(string) string, key, fallback string) string {
	if val := getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(getenv func(string) string, key string, fallback int) int {
	if val := getenv(key); val != "" {
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err == nil {
			return n
		}
	}
	return fallback
}
