// Package config loads streamfill's configuration from defaults, YAML files, and the environment, with predictable precedence.
//
// From lowest to highest precedence:
//   - built-in defaults
//   - the global file, ~/.streamfill/config.yaml
//   - the nearest .streamfill/config.yaml found by walking up from the working directory
//   - environment variables: STREAMFILL_ followed by the key with dots replaced by underscores (ex: STREAMFILL_PROVIDER_API_KEY)
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	EnvPrefix = "STREAMFILL"
	dirName   = ".streamfill"
	fileName  = "config.yaml"
)

// Config is streamfill's configuration.
type Config struct {
	Provider Provider `mapstructure:"provider" json:"provider"`
	Preview  Preview  `mapstructure:"preview" json:"preview"`

	// Accounts are the account names a bill may be assigned to. A model-reported account that doesn't match one of these is discarded.
	Accounts []string `mapstructure:"accounts" json:"accounts"`

	// AccountNoise are words stripped from a model-reported account name before matching (ex: card network names).
	AccountNoise []string `mapstructure:"account_noise" json:"account_noise"`

	// Book is the bookkeeping app ledger that deep links target. Empty means the app's default ledger.
	Book string `mapstructure:"book" json:"book"`

	// Sources lists the config files that were read, lowest precedence first.
	Sources []string `mapstructure:"-" json:"sources,omitempty"`
}

// Provider configures the OpenAI-compatible chat completions endpoint.
type Provider struct {
	BaseURL     string  `mapstructure:"base_url" json:"base_url"`
	APIKey      string  `mapstructure:"api_key" json:"api_key"`
	Model       string  `mapstructure:"model" json:"model"`
	MaxTokens   int     `mapstructure:"max_tokens" json:"max_tokens"`
	Temperature float64 `mapstructure:"temperature" json:"temperature"`
	TopP        float64 `mapstructure:"top_p" json:"top_p"`
}

// Preview configures how a document is laid out.
type Preview struct {
	Width    int     `mapstructure:"width" json:"width"`         // terminal columns
	Density  float64 `mapstructure:"density" json:"density"`     // pixels per dp for glyph bounds
	TextSize int     `mapstructure:"text_size" json:"text_size"` // default text size in sp
}

var defaults = map[string]any{
	"provider.base_url":    "https://api.openai.com/v1",
	"provider.api_key":     "",
	"provider.model":       "gpt-4o-mini",
	"provider.max_tokens":  1024,
	"provider.temperature": 0.7,
	"provider.top_p":       0.7,
	"preview.width":        80,
	"preview.density":      1.0,
	"preview.text_size":    16,
	"accounts":             []string{"Cash", "WeChat Pay", "Alipay", "CMB Debit Card(2333)", "CMB Credit Card"},
	"account_noise":        []string{"UnionPay", "International"},
	"book":                 "",
}

// Options control where Load looks. Zero values mean the real home and working directories.
type Options struct {
	HomeDir string
	WorkDir string
}

// Load loads the configuration and validates it.
func Load(opts Options) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	var sources []string
	for _, path := range candidateFiles(opts) {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return Config{}, fmt.Errorf("load configuration %s: %w", path, err)
		}
		sources = append(sources, path)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("load configuration: %w", err)
	}
	cfg.Sources = sources

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// candidateFiles returns the readable, non-empty config files, lowest precedence first. The nearest project file is skipped if it is the global file.
func candidateFiles(opts Options) []string {
	var files []string

	home := opts.HomeDir
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	var global string
	if home != "" {
		global = filepath.Join(home, dirName, fileName)
		if nonEmptyFile(global) {
			files = append(files, global)
		}
	}

	start := opts.WorkDir
	if start == "" {
		start, _ = os.Getwd()
	}
	if start == "" {
		return files
	}
	for dir := start; ; dir = filepath.Dir(dir) {
		candidate := filepath.Join(dir, dirName, fileName)
		if nonEmptyFile(candidate) {
			if candidate != global {
				files = append(files, candidate)
			}
			break
		}
		if parent := filepath.Dir(dir); parent == dir {
			break
		}
	}
	return files
}

func nonEmptyFile(path string) bool {
	data, err := os.ReadFile(path)
	return err == nil && strings.TrimSpace(string(data)) != ""
}

// Validate rejects configurations that can't produce a working session.
func (c Config) Validate() error {
	switch {
	case c.Provider.MaxTokens <= 0:
		return fmt.Errorf("invalid configuration: provider.max_tokens must be > 0 (got %d)", c.Provider.MaxTokens)
	case c.Provider.Temperature < 0 || c.Provider.Temperature > 2:
		return fmt.Errorf("invalid configuration: provider.temperature must be in [0, 2] (got %v)", c.Provider.Temperature)
	case c.Provider.TopP <= 0 || c.Provider.TopP > 1:
		return fmt.Errorf("invalid configuration: provider.top_p must be in (0, 1] (got %v)", c.Provider.TopP)
	case c.Preview.Width <= 0:
		return fmt.Errorf("invalid configuration: preview.width must be > 0 (got %d)", c.Preview.Width)
	case c.Preview.Density <= 0:
		return fmt.Errorf("invalid configuration: preview.density must be > 0 (got %v)", c.Preview.Density)
	case c.Preview.TextSize <= 0:
		return fmt.Errorf("invalid configuration: preview.text_size must be > 0 (got %d)", c.Preview.TextSize)
	}
	return nil
}

// Redacted returns a copy of c that is safe to print: the API key is masked except for its last four characters.
func (c Config) Redacted() Config {
	key := c.Provider.APIKey
	switch {
	case key == "":
	case len(key) <= 8:
		c.Provider.APIKey = "****"
	default:
		c.Provider.APIKey = "****" + key[len(key)-4:]
	}
	return c
}

// WriteJSON writes c as indented JSON, with the API key redacted.
func WriteJSON(w io.Writer, c Config) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(c.Redacted())
}
