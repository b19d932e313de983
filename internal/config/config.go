package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the process configuration, loaded from config.yaml.
// Secrets (OPENAI_API_KEY, REDIS_URL) come from the environment.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Session struct {
		Threshold  int `yaml:"threshold"`
		TTLSeconds int `yaml:"ttl_seconds"`
	} `yaml:"session"`

	Chat struct {
		Provider       string  `yaml:"provider"`
		Model          string  `yaml:"model"`
		BaseURL        string  `yaml:"base_url"`
		MaxTokens      int     `yaml:"max_tokens"`
		Temperature    float64 `yaml:"temperature"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
	} `yaml:"chat"`

	Speech struct {
		Enabled bool   `yaml:"enabled"`
		Model   string `yaml:"model"`
		Voice   string `yaml:"voice"`
		Dir     string `yaml:"dir"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"speech"`

	Lead struct {
		Sink     string `yaml:"sink"` // "file" or "redis"
		FilePath string `yaml:"file_path"`
		RedisKey string `yaml:"redis_key"`
	} `yaml:"lead"`

	Log struct {
		Level    string `yaml:"level"`
		Format   string `yaml:"format"`
		Output   string `yaml:"output"`
		FilePath string `yaml:"file_path"`
	} `yaml:"log"`
}

// Load reads configuration from the given YAML file and fills defaults
// for anything left unset.
func Load(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing YAML: %v", err)
	}

	config.applyDefaults()
	return &config, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var config Config
	config.applyDefaults()
	return &config
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":5001"
	}
	if c.Session.Threshold <= 0 {
		c.Session.Threshold = 3
	}
	if c.Session.TTLSeconds <= 0 {
		c.Session.TTLSeconds = 3600 // 1 hour
	}
	if c.Chat.Provider == "" {
		c.Chat.Provider = "openai"
	}
	if c.Chat.Model == "" {
		c.Chat.Model = "gpt-4"
	}
	if c.Chat.MaxTokens <= 0 {
		c.Chat.MaxTokens = 1024
	}
	if c.Chat.Temperature <= 0 {
		c.Chat.Temperature = 0.7
	}
	if c.Chat.TimeoutSeconds <= 0 {
		c.Chat.TimeoutSeconds = 30
	}
	if c.Speech.Model == "" {
		c.Speech.Model = "tts-1"
	}
	if c.Speech.Voice == "" {
		c.Speech.Voice = "alloy"
	}
	if c.Speech.Dir == "" {
		c.Speech.Dir = "data/audio"
	}
	if c.Lead.Sink == "" {
		c.Lead.Sink = "file"
	}
	if c.Lead.FilePath == "" {
		c.Lead.FilePath = "data/leads.csv"
	}
	if c.Lead.RedisKey == "" {
		c.Lead.RedisKey = "leads"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}
}
