package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"greetbot/internal/domain"
)

// Config is the root configuration for greetbot.
type Config struct {
	General  GeneralConfig  `json:"general"`
	Telegram TelegramConfig `json:"telegram"`
	Quotes   QuotesConfig   `json:"quotes"`
	Render   RenderConfig   `json:"render"`
	Schedule ScheduleConfig `json:"schedule"`
	Store    StoreConfig    `json:"store"`
	Metrics  MetricsConfig  `json:"metrics"`
}

type GeneralConfig struct {
	LogLevel     string `json:"logLevel"`
	TemplatesDir string `json:"templatesDir,omitempty"` // optional YAML greeting packs
	OutputDir    string `json:"outputDir"`              // where the CLI channel writes images
}

type TelegramConfig struct {
	Enabled   bool     `json:"enabled"`
	Token     string   `json:"token"`
	AllowFrom []string `json:"allowFrom"` // chat/user IDs; empty = allow all
}

type QuotesConfig struct {
	APIURL         string `json:"apiUrl"`
	MaxAttempts    int    `json:"maxAttempts"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

type RenderConfig struct {
	BackgroundURL  string `json:"backgroundUrl"`
	FontsDir       string `json:"fontsDir,omitempty"` // optional extra TTF fonts
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

type ScheduleConfig struct {
	Enabled          bool `json:"enabled"`
	DefaultIntervalS int  `json:"defaultIntervalSeconds"` // used when /subscribe gives no interval
}

type StoreConfig struct {
	DBPath string `json:"dbPath"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
}

// envVarPattern matches ${VAR} and ${VAR:-default} in config files.
var envVarPattern = regexp.MustCompile(`\$\{(\w+)(?::-([^}]*))?\}`)

func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".greetbot"
	}
	return filepath.Join(home, ".greetbot")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

// Load reads, env-expands, and validates a config file. The
// TELEGRAM_BOT_TOKEN environment variable always overrides the token
// in the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	cfg.Store.DBPath = ExpandPath(cfg.Store.DBPath)
	cfg.General.OutputDir = ExpandPath(cfg.General.OutputDir)
	cfg.General.TemplatesDir = ExpandPath(cfg.General.TemplatesDir)
	cfg.Render.FontsDir = ExpandPath(cfg.Render.FontsDir)

	ApplyEnv(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides secrets from the environment. An unexpanded
// ${VAR} placeholder left in the token counts as unset.
func ApplyEnv(cfg *Config) {
	if strings.HasPrefix(cfg.Telegram.Token, "${") {
		cfg.Telegram.Token = ""
	}
	if tok := os.Getenv("TELEGRAM_BOT_TOKEN"); tok != "" {
		cfg.Telegram.Token = tok
	}
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks structural limits. Token presence is checked
// separately by ValidateStartup so offline commands (preview, doctor)
// can run without one.
func Validate(cfg *Config) error {
	var errs []string

	switch cfg.General.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, "general.logLevel must be one of: debug, info, warn, error")
	}
	if cfg.Quotes.MaxAttempts < 1 || cfg.Quotes.MaxAttempts > 10 {
		errs = append(errs, "quotes.maxAttempts must be between 1 and 10")
	}
	if cfg.Quotes.TimeoutSeconds < 1 {
		errs = append(errs, "quotes.timeoutSeconds must be >= 1")
	}
	if cfg.Render.Width < 100 || cfg.Render.Height < 100 {
		errs = append(errs, "render.width and render.height must be >= 100")
	}
	if cfg.Render.TimeoutSeconds < 1 {
		errs = append(errs, "render.timeoutSeconds must be >= 1")
	}
	if cfg.Schedule.DefaultIntervalS < 60 {
		errs = append(errs, "schedule.defaultIntervalSeconds must be >= 60")
	}
	if cfg.Metrics.Port < 0 || cfg.Metrics.Port > 65535 {
		errs = append(errs, "metrics.port must be between 0 and 65535")
	}

	if len(errs) > 0 {
		return &domain.ConfigError{
			Field: "validation",
			Err:   fmt.Errorf("%s", strings.Join(errs, "; ")),
		}
	}
	return nil
}

// ValidateStartup checks everything the bot process needs to start.
func ValidateStartup(cfg *Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}
	if cfg.Telegram.Enabled && cfg.Telegram.Token == "" {
		return &domain.ConfigError{Field: "telegram.token", Err: fmt.Errorf("missing (set TELEGRAM_BOT_TOKEN or telegram.token)")}
	}
	return nil
}

// ExpandEnvVars substitutes ${VAR} and ${VAR:-default} occurrences.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match
		}
		return val
	})
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
