// Package config loads application configuration from
// ~/.promptdock/config.yaml and the environment. Environment variables take
// precedence over file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the resolved application configuration.
type Config struct {
	AnthropicAPIKey string
	OpenAIAPIKey    string
	GoogleAPIKey    string
	DeepSeekAPIKey  string

	Reasoner ReasonerConfig
	Memory   MemoryConfig
	Project  ProjectConfig

	ConfigDir string
}

// ReasonerConfig selects the adapter and model for reasoning calls.
type ReasonerConfig struct {
	Adapter     string  `yaml:"adapter"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
}

// MemoryConfig locates the persistent memory file.
type MemoryConfig struct {
	Path string `yaml:"path"`
}

// ProjectConfig describes the active project for the context hierarchy.
type ProjectConfig struct {
	Name      string `yaml:"name"`
	Language  string `yaml:"language"`
	Framework string `yaml:"framework"`
}

// FileConfig is the structure of ~/.promptdock/config.yaml.
type FileConfig struct {
	APIKeys  APIKeysConfig  `yaml:"api_keys"`
	Reasoner ReasonerConfig `yaml:"reasoner"`
	Memory   MemoryConfig   `yaml:"memory"`
	Project  ProjectConfig  `yaml:"project"`
}

// APIKeysConfig holds API key configuration from file.
type APIKeysConfig struct {
	Anthropic string `yaml:"anthropic"`
	OpenAI    string `yaml:"openai"`
	Google    string `yaml:"google"`
	DeepSeek  string `yaml:"deepseek"`
}

// Load reads configuration from the config file and environment variables.
func Load() (*Config, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	return loadFrom(configDir)
}

// LoadFromDir loads configuration rooted at a specific directory, mainly
// for tests.
func LoadFromDir(configDir string) (*Config, error) {
	return loadFrom(configDir)
}

func loadFrom(configDir string) (*Config, error) {
	fileConfig := loadFileConfig(filepath.Join(configDir, "config.yaml"))

	cfg := &Config{
		AnthropicAPIKey: getEnvOrDefault("ANTHROPIC_API_KEY", fileConfig.APIKeys.Anthropic),
		OpenAIAPIKey:    getEnvOrDefault("OPENAI_API_KEY", fileConfig.APIKeys.OpenAI),
		GoogleAPIKey:    getEnvOrDefault("GOOGLE_API_KEY", fileConfig.APIKeys.Google),
		DeepSeekAPIKey:  getEnvOrDefault("DEEPSEEK_API_KEY", fileConfig.APIKeys.DeepSeek),
		Reasoner:        fileConfig.Reasoner,
		Memory:          fileConfig.Memory,
		Project:         fileConfig.Project,
		ConfigDir:       configDir,
	}

	cfg.Reasoner.Adapter = getEnvOrDefault("PROMPTDOCK_ADAPTER", cfg.Reasoner.Adapter)
	cfg.Reasoner.Model = getEnvOrDefault("PROMPTDOCK_MODEL", cfg.Reasoner.Model)
	if v := os.Getenv("PROMPTDOCK_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Reasoner.Temperature = f
		}
	}
	cfg.Memory.Path = getEnvOrDefault("PROMPTDOCK_MEMORY_PATH", cfg.Memory.Path)

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Reasoner.Adapter == "" {
		cfg.Reasoner.Adapter = cfg.DefaultAdapter()
	}
	// Temperature zero is meaningful: the reasoner keeps its per-call
	// defaults when no override is configured.
	if cfg.Memory.Path == "" {
		cfg.Memory.Path = filepath.Join(cfg.ConfigDir, "memory.json")
	}
}

// HasAdapter reports whether the API key for the given adapter is
// configured. The mock adapter needs no key.
func (c *Config) HasAdapter(name string) bool {
	switch name {
	case "anthropic":
		return c.AnthropicAPIKey != ""
	case "openai":
		return c.OpenAIAPIKey != ""
	case "google":
		return c.GoogleAPIKey != ""
	case "deepseek":
		return c.DeepSeekAPIKey != ""
	case "mock":
		return true
	default:
		return false
	}
}

// DefaultAdapter returns the first adapter with a configured key, falling
// back to the mock adapter when none is.
func (c *Config) DefaultAdapter() string {
	for _, name := range []string{"anthropic", "openai", "google", "deepseek"} {
		if c.HasAdapter(name) {
			return name
		}
	}
	return "mock"
}

// loadFileConfig reads the config file, returning empty config if not found.
func loadFileConfig(path string) *FileConfig {
	cfg := &FileConfig{}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}

	_ = yaml.Unmarshal(data, cfg) // Ignore parse errors, use defaults
	return cfg
}

// getEnvOrDefault returns the environment variable value if set,
// otherwise returns the default value.
func getEnvOrDefault(envVar, defaultValue string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return defaultValue
}

func getConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(home, ".promptdock")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}
	return configDir, nil
}
