package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	domthrottle "github.com/kailas-cloud/ccdb/internal/domain/throttle"
)

// Throttle counter backends.
const (
	ThrottleStoreMemory = "memory"
	ThrottleStoreRedis  = "redis"
)

// Config holds the ccdb API configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Logging  LoggingConfig  `yaml:"logging"`
	Engine   EngineConfig   `yaml:"engine"`
	Search   SearchConfig   `yaml:"search"`
	Export   ExportConfig   `yaml:"export"`
	Throttle ThrottleConfig `yaml:"throttle"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int  `yaml:"port"`
	ReadTimeoutSec  int  `yaml:"read_timeout_sec"`
	WriteTimeoutSec int  `yaml:"write_timeout_sec"` // 0 disables the limit so long exports can finish
	ShutdownSec     int  `yaml:"shutdown_timeout_sec"`
	CORS            bool `yaml:"cors"`
	Compression     bool `yaml:"compression"`
	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	// Enable only behind a proxy that overwrites these headers.
	TrustProxy bool `yaml:"trust_proxy"`
}

// EngineConfig locates the Redis Query Engine and the complaint index.
type EngineConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	Index            string   `yaml:"index"`
	KeyPrefix        string   `yaml:"key_prefix"`
	CreateIndex      bool     `yaml:"create_index"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// SearchConfig tunes query compilation.
type SearchConfig struct {
	DefaultSize         int  `yaml:"default_size"`
	AggSize             int  `yaml:"agg_size"`
	ExcludeFilteredAggs bool `yaml:"exclude_filtered_aggs"`
	SuggestSize         int  `yaml:"suggest_size"`
}

// ExportConfig tunes the streaming exporter.
type ExportConfig struct {
	ChunkSize int `yaml:"chunk_size"`
}

// ThrottleConfig holds request quotas. Rates maps classification
// (anonymous, ui) to endpoint class (document, search, export) to "N/period".
type ThrottleConfig struct {
	Enabled   bool                         `yaml:"enabled"`
	UIURL     string                       `yaml:"ui_url"`
	Store     string                       `yaml:"store"` // memory (default), redis
	KeyPrefix string                       `yaml:"key_prefix"`
	Rates     map[string]map[string]string `yaml:"rates"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
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

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Engine.ReadinessTimeout <= 0 {
		c.Engine.ReadinessTimeout = 10
	}
	if c.Engine.Index == "" {
		c.Engine.Index = "complaints"
	}
	if c.Engine.KeyPrefix == "" {
		c.Engine.KeyPrefix = "complaint:"
	}
	if c.Search.DefaultSize <= 0 {
		c.Search.DefaultSize = 10
	}
	if c.Search.AggSize <= 0 {
		c.Search.AggSize = 10
	}
	if c.Search.SuggestSize <= 0 {
		c.Search.SuggestSize = 10
	}
	if c.Export.ChunkSize <= 0 {
		c.Export.ChunkSize = 512
	}
	if c.Throttle.Store == "" {
		c.Throttle.Store = ThrottleStoreMemory
	}
	if c.Throttle.KeyPrefix == "" {
		c.Throttle.KeyPrefix = "ccdb:throttle:"
	}
	if c.Throttle.Rates == nil {
		c.Throttle.Rates = defaultRates()
	}
}

func defaultRates() map[string]map[string]string {
	return map[string]map[string]string{
		string(domthrottle.Anonymous): {
			string(domthrottle.EndpointDocument): "5/min",
			string(domthrottle.EndpointSearch):   "20/min",
			string(domthrottle.EndpointExport):   "2/min",
		},
		string(domthrottle.UI): {
			string(domthrottle.EndpointDocument): "2000/min",
			string(domthrottle.EndpointSearch):   "2000/min",
			string(domthrottle.EndpointExport):   "6/min",
		},
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Engine.Addrs) == 0 {
		return fmt.Errorf("engine.addrs is required")
	}
	switch c.Throttle.Store {
	case ThrottleStoreMemory, ThrottleStoreRedis:
	default:
		return fmt.Errorf("throttle.store must be %q or %q, got %q",
			ThrottleStoreMemory, ThrottleStoreRedis, c.Throttle.Store)
	}
	if _, err := c.ThrottlePolicy(); err != nil {
		return err
	}
	return nil
}

// ThrottlePolicy parses the configured rates.
func (c *Config) ThrottlePolicy() (domthrottle.Policy, error) {
	rates := make(map[domthrottle.Classification]map[domthrottle.Endpoint]domthrottle.Rate, len(c.Throttle.Rates))
	for class, byEndpoint := range c.Throttle.Rates {
		cl := domthrottle.Classification(class)
		if cl != domthrottle.Anonymous && cl != domthrottle.UI {
			return domthrottle.Policy{}, fmt.Errorf("throttle.rates: unknown classification %q", class)
		}
		inner := make(map[domthrottle.Endpoint]domthrottle.Rate, len(byEndpoint))
		for ep, raw := range byEndpoint {
			e := domthrottle.Endpoint(ep)
			if !isEndpoint(e) {
				return domthrottle.Policy{}, fmt.Errorf("throttle.rates.%s: unknown endpoint %q", class, ep)
			}
			r, err := domthrottle.ParseRate(raw)
			if err != nil {
				return domthrottle.Policy{}, fmt.Errorf("throttle.rates.%s.%s: %w", class, ep, err)
			}
			inner[e] = r
		}
		rates[cl] = inner
	}
	return domthrottle.NewPolicy(rates), nil
}

func isEndpoint(e domthrottle.Endpoint) bool {
	for _, known := range domthrottle.Endpoints {
		if e == known {
			return true
		}
	}
	return false
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
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
