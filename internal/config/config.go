package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the recollect API configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	LLM     LLMConfig     `yaml:"llm"`
	Catalog CatalogConfig `yaml:"catalog"`
	Search  SearchConfig  `yaml:"search"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`

	// APIKeys enables Bearer auth on the search API when non-empty.
	APIKeys []string `yaml:"api_keys"`
}

// LLMConfig holds the chat-completion gateway settings.
type LLMConfig struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"` // empty = OpenAI default
	Model       string  `yaml:"model"`
	TimeoutSec  int     `yaml:"timeout_sec"`
	Temperature float32 `yaml:"temperature"`
}

// CatalogConfig holds settings shared by catalog clients plus per-provider credentials.
type CatalogConfig struct {
	DMM            DMMConfig    `yaml:"dmm"`
	Sokmil         SokmilConfig `yaml:"sokmil"`
	DLsite         DLsiteConfig `yaml:"dlsite"`
	FC2            FC2Config    `yaml:"fc2"`
	TimeoutSec     int          `yaml:"timeout_sec"`
	Hits           int          `yaml:"hits"`
	RequestsPerSec float64      `yaml:"requests_per_sec"`
	MaxConcurrency int          `yaml:"max_concurrency"`
}

// DMMConfig holds DMM affiliate API credentials.
type DMMConfig struct {
	APIID       string `yaml:"api_id"`
	AffiliateID string `yaml:"affiliate_id"`
	Floor       string `yaml:"floor"`
	BaseURL     string `yaml:"base_url"`
}

// SokmilConfig holds Sokmil affiliate API credentials.
type SokmilConfig struct {
	APIKey      string `yaml:"api_key"`
	AffiliateID string `yaml:"affiliate_id"`
	BaseURL     string `yaml:"base_url"`
}

// DLsiteConfig holds DLsite search page settings.
type DLsiteConfig struct {
	BaseURL string `yaml:"base_url"`
}

// FC2Config holds FC2 Live developer credentials.
type FC2Config struct {
	DevID     string `yaml:"dev_id"`
	DevSecret string `yaml:"dev_secret"`
	BaseURL   string `yaml:"base_url"`
}

// Enabled reports whether both FC2 credentials are set.
func (c FC2Config) Enabled() bool {
	return c.DevID != "" && c.DevSecret != ""
}

// SearchConfig holds ranking settings.
type SearchConfig struct {
	ResultLimit    int  `yaml:"result_limit"`
	BroadenOnEmpty bool `yaml:"broaden_on_empty"`
	// RequestTimeoutSec bounds one search request end to end.
	// Default covers two LLM calls and two catalog rounds.
	RequestTimeoutSec int `yaml:"request_timeout_sec"`
}

// CacheConfig holds the completion cache settings. Empty Addrs disables caching.
type CacheConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	TTLSec           int      `yaml:"ttl_sec"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Enabled reports whether a cache backend is configured.
func (c CacheConfig) Enabled() bool {
	return len(c.Addrs) > 0
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// .env files are loaded first so their values can be referenced from YAML.
func Load(env string) (Config, error) {
	if err := loadEnvFiles(); err != nil {
		return Config{}, err
	}

	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes raw YAML, expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// requestMarginSec is headroom for scoring and writing the response.
const requestMarginSec = 5

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o-mini"
	}
	if c.LLM.TimeoutSec <= 0 {
		c.LLM.TimeoutSec = 30
	}
	if c.Catalog.TimeoutSec <= 0 {
		c.Catalog.TimeoutSec = 5
	}
	if c.Catalog.Hits <= 0 {
		c.Catalog.Hits = 20
	}
	if c.Catalog.Hits > 100 {
		c.Catalog.Hits = 100
	}
	if c.Catalog.RequestsPerSec <= 0 {
		c.Catalog.RequestsPerSec = 5
	}
	if c.Catalog.MaxConcurrency <= 0 {
		c.Catalog.MaxConcurrency = 8
	}
	if c.Catalog.DMM.Floor == "" {
		c.Catalog.DMM.Floor = "videoa"
	}
	if c.Search.ResultLimit <= 0 {
		c.Search.ResultLimit = 50
	}
	if c.Search.RequestTimeoutSec <= 0 {
		c.Search.RequestTimeoutSec = 2*c.LLM.TimeoutSec + 2*c.Catalog.TimeoutSec + requestMarginSec
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = c.Search.RequestTimeoutSec + requestMarginSec
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 24 * 60 * 60
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "recollect:"
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.LLM.APIKey == "" {
		return errors.New("llm.api_key is required")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2, got %g", c.LLM.Temperature)
	}
	if c.Catalog.DMM.APIID != "" && c.Catalog.DMM.AffiliateID == "" {
		return errors.New("catalog.dmm.affiliate_id is required when catalog.dmm.api_id is set")
	}
	if c.Catalog.Sokmil.APIKey != "" && c.Catalog.Sokmil.AffiliateID == "" {
		return errors.New("catalog.sokmil.affiliate_id is required when catalog.sokmil.api_key is set")
	}
	if (c.Catalog.FC2.DevID == "") != (c.Catalog.FC2.DevSecret == "") {
		return errors.New("catalog.fc2.dev_id and catalog.fc2.dev_secret must be set together")
	}
	if c.HTTP.WriteTimeoutSec > 0 && c.HTTP.WriteTimeoutSec <= c.Search.RequestTimeoutSec {
		return fmt.Errorf("http.write_timeout_sec (%d) must exceed search.request_timeout_sec (%d)",
			c.HTTP.WriteTimeoutSec, c.Search.RequestTimeoutSec)
	}
	return nil
}

// loadEnvFiles loads ENV_FILE if set, otherwise .env.local then .env.
// Missing files are ignored; already-set variables are never overridden.
func loadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// Relative to the source file, for tests run from package dirs
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b)))
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
