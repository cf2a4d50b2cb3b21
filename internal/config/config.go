// Package config loads console settings from a YAML or JSON file and HEADLESS_* environment
// variables.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/headless/pkg/registry"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "HEADLESS_"

// Config holds the settings of a console process.
type Config struct {
	Prompt       string        `mapstructure:"prompt"`
	HistorySize  int           `mapstructure:"history_size"`
	TickInterval time.Duration `mapstructure:"tick_interval"`
	MaxInputSize int           `mapstructure:"max_input_size"`
	Markdown     bool          `mapstructure:"markdown"`
	Log          LogConfig     `mapstructure:"log"`
	HTTP         HTTPConfig    `mapstructure:"http"`
	Redis        RedisConfig   `mapstructure:"redis"`
}

// LogConfig selects the level and destination of diagnostics.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// HTTPConfig configures the HTTP and WebSocket front end.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// RedisConfig configures the Redis list source and sink. An empty Addr disables them.
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	InputKey  string `mapstructure:"input_key"`
	OutputKey string `mapstructure:"output_key"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Prompt:       "> ",
		HistorySize:  registry.DefaultHistorySize,
		TickInterval: 16 * time.Millisecond,
		MaxInputSize: 4096,
		Log:          LogConfig{Level: "info"},
		HTTP:         HTTPConfig{Addr: ":8080"},
		Redis: RedisConfig{
			InputKey:  "headless:input",
			OutputKey: "headless:output",
		},
	}
}

// envKeys maps environment variables to nested config keys.
var envKeys = map[string][]string{
	"PROMPT":           {"prompt"},
	"HISTORY_SIZE":     {"history_size"},
	"TICK_INTERVAL":    {"tick_interval"},
	"MAX_INPUT_SIZE":   {"max_input_size"},
	"MARKDOWN":         {"markdown"},
	"LOG_LEVEL":        {"log", "level"},
	"LOG_FILE":         {"log", "file"},
	"HTTP_ADDR":        {"http", "addr"},
	"REDIS_ADDR":       {"redis", "addr"},
	"REDIS_PASSWORD":   {"redis", "password"},
	"REDIS_DB":         {"redis", "db"},
	"REDIS_INPUT_KEY":  {"redis", "input_key"},
	"REDIS_OUTPUT_KEY": {"redis", "output_key"},
}

// Load reads path (if it exists) and applies environment overrides on top of Default.
// An empty path skips the file.
func Load(path string) (Config, error) {
	raw := map[string]any{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := unmarshal(path, data, &raw); err != nil {
				return Config{}, err
			}
		case os.IsNotExist(err):
			// Missing file means defaults.
		default:
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}
	applyEnv(raw, os.LookupEnv)

	cfg := Default()
	if err := decode(raw, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func unmarshal(path string, data []byte, raw *map[string]any) error {
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, raw); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, raw); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if *raw == nil {
		*raw = map[string]any{}
	}
	return nil
}

func applyEnv(raw map[string]any, lookup func(string) (string, bool)) {
	for name, path := range envKeys {
		val, ok := lookup(EnvPrefix + name)
		if !ok {
			continue
		}
		node := raw
		for _, key := range path[:len(path)-1] {
			child, ok := node[key].(map[string]any)
			if !ok {
				child = map[string]any{}
				node[key] = child
			}
			node = child
		}
		node[path[len(path)-1]] = val
	}
}

func decode(raw map[string]any, cfg *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return fmt.Errorf("failed to create config decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LogLevel parses Log.Level, falling back to info.
func (c Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}
