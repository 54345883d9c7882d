package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig is the single-file configuration schema. Nested sections map
// naturally to the flag namespaces.
type FileConfig struct {
	Input  string `yaml:"input" json:"input"`
	Output string `yaml:"output" json:"output"`

	LLM struct {
		BaseURL   string `yaml:"base" json:"base"`
		Model     string `yaml:"model" json:"model"`
		APIKey    string `yaml:"key" json:"key"`
		MaxTokens int    `yaml:"maxTokens" json:"maxTokens"`
	} `yaml:"llm" json:"llm"`

	Convert struct {
		Mode   string  `yaml:"mode" json:"mode"`
		Scale  float64 `yaml:"scale" json:"scale"`
		Stream *bool   `yaml:"stream" json:"stream"`
	} `yaml:"convert" json:"convert"`

	Preview struct {
		Addr string `yaml:"addr" json:"addr"`
	} `yaml:"preview" json:"preview"`

	Cache struct {
		Dir string `yaml:"dir" json:"dir"`
		// MaxAge is a Go duration string such as "168h".
		MaxAge string `yaml:"maxAge" json:"maxAge"`
		Clear  bool   `yaml:"clear" json:"clear"`
	} `yaml:"cache" json:"cache"`

	Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for any fields
// still at their defaults. Flags win; the file supplies fallbacks.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	if cfg.InputPath == "" && fc.Input != "" {
		cfg.InputPath = fc.Input
	}
	if cfg.OutputPath == "" && fc.Output != "" {
		cfg.OutputPath = fc.Output
	}
	if cfg.LLMBaseURL == "" && fc.LLM.BaseURL != "" {
		cfg.LLMBaseURL = fc.LLM.BaseURL
	}
	if cfg.LLMModel == "" && fc.LLM.Model != "" {
		cfg.LLMModel = fc.LLM.Model
	}
	if cfg.LLMAPIKey == "" && fc.LLM.APIKey != "" {
		cfg.LLMAPIKey = fc.LLM.APIKey
	}
	if cfg.MaxTokens == 0 && fc.LLM.MaxTokens > 0 {
		cfg.MaxTokens = fc.LLM.MaxTokens
	}
	if cfg.Mode == "" && fc.Convert.Mode != "" {
		cfg.Mode = fc.Convert.Mode
	}
	if cfg.Scale == 0 && fc.Convert.Scale > 0 {
		cfg.Scale = fc.Convert.Scale
	}
	if fc.Convert.Stream != nil {
		cfg.Stream = *fc.Convert.Stream
	}
	if cfg.PreviewAddr == "" && fc.Preview.Addr != "" {
		cfg.PreviewAddr = fc.Preview.Addr
	}
	if cfg.CacheDir == "" && fc.Cache.Dir != "" {
		cfg.CacheDir = fc.Cache.Dir
	}
	if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge != "" {
		if d, err := time.ParseDuration(fc.Cache.MaxAge); err == nil && d > 0 {
			cfg.CacheMaxAge = d
		}
	}
	if fc.Cache.Clear {
		cfg.CacheClear = true
	}
	if fc.Verbose {
		cfg.Verbose = true
	}
}
