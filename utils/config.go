package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	LLMProviders map[string]ProviderConfig `json:"llm_providers" yaml:"llm_providers"`
	Backend      BackendConfig             `json:"backend" yaml:"backend"`
	Server       ServerConfig              `json:"server" yaml:"server"`
	UI           UIConfig                  `json:"ui" yaml:"ui"`
	Data         DataConfig                `json:"data" yaml:"data"`
	Log          LogConfig                 `json:"log" yaml:"log"`
}

// ProviderConfig represents an OpenAI-compatible provider
type ProviderConfig struct {
	DisplayName  string  `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	APIKey       string  `json:"api_key" yaml:"api_key"`
	BaseURL      string  `json:"base_url" yaml:"base_url"`
	DefaultModel string  `json:"default_model" yaml:"default_model"`
	Enabled      bool    `json:"enabled" yaml:"enabled"`
	MaxTokens    int     `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	Temperature  float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
}

// BackendConfig points the desktop client at the chat streaming endpoint
type BackendConfig struct {
	ChatURL string `json:"chat_url" yaml:"chat_url"`
	Token   string `json:"token" yaml:"token"`
	UserID  string `json:"user_id" yaml:"user_id"`
	// TitleProvider names an llm_providers entry used to title briefs; empty disables it
	TitleProvider string `json:"title_provider,omitempty" yaml:"title_provider,omitempty"`
}

// ServerConfig configures the chat relay started by `serve`
type ServerConfig struct {
	ListenAddr  string `json:"listen_addr" yaml:"listen_addr"`
	MetricsAddr string `json:"metrics_addr" yaml:"metrics_addr"`
	Token       string `json:"token" yaml:"token"`
	// Provider names an llm_providers entry; empty or unknown falls back to canned replies
	Provider string `json:"provider" yaml:"provider"`
}

// UIConfig represents UI configuration
type UIConfig struct {
	Theme        string `json:"theme" yaml:"theme"`
	FontSize     int    `json:"font_size" yaml:"font_size"`
	WindowWidth  int    `json:"window_width" yaml:"window_width"`
	WindowHeight int    `json:"window_height" yaml:"window_height"`
}

// DataConfig represents data storage configuration
type DataConfig struct {
	DBPath     string `json:"db_path" yaml:"db_path"`
	MaxHistory int    `json:"max_history" yaml:"max_history"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level string `json:"level" yaml:"level"`
	Path  string `json:"path,omitempty" yaml:"path,omitempty"`
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// LoadConfig loads configuration from a JSON or YAML file
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if isYAML(configPath) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Expand paths
	if config.Data.DBPath != "" {
		config.Data.DBPath = expandPath(config.Data.DBPath)
	}
	if config.Log.Path != "" {
		config.Log.Path = expandPath(config.Log.Path)
	}

	return config, nil
}

// SaveConfig saves configuration to file, in YAML when the extension asks for it
func SaveConfig(configPath string, config *Config) error {
	var data []byte
	var err error
	if isYAML(configPath) {
		data, err = yaml.Marshal(config)
	} else {
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Ensure directory exists
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// expandPath expands ~ and relative paths
func expandPath(path string) string {
	if len(path) == 0 {
		return path
	}

	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[1:])
		}
	}

	absPath, err := filepath.Abs(path)
	if err == nil {
		return absPath
	}

	return path
}

// GetConfigPath returns the default config path
func GetConfigPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		// Fallback to current directory
		return "./config/default.json"
	}

	return filepath.Join(configDir, "brief-copilot", "config.json")
}

// DefaultConfig returns the configuration written on first start
func DefaultConfig() *Config {
	return &Config{
		LLMProviders: map[string]ProviderConfig{
			"openai": {
				DisplayName:  "OpenAI",
				BaseURL:      "https://api.openai.com/v1",
				DefaultModel: "gpt-4o-mini",
				Enabled:      false,
				MaxTokens:    1024,
				Temperature:  0.7,
			},
		},
		Backend: BackendConfig{
			ChatURL: "http://localhost:8080",
		},
		Server: ServerConfig{
			ListenAddr:  ":8080",
			MetricsAddr: ":2112",
		},
		UI: UIConfig{
			Theme:        "light",
			FontSize:     14,
			WindowWidth:  1200,
			WindowHeight: 800,
		},
		Data: DataConfig{
			DBPath:     "./data/briefs.db",
			MaxHistory: 100,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// EnsureDefaultConfig creates a default config file if it doesn't exist
func EnsureDefaultConfig() (string, error) {
	configPath := GetConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil
	}

	if err := SaveConfig(configPath, DefaultConfig()); err != nil {
		return "", err
	}

	return configPath, nil
}
