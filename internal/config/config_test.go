package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"greetbot/internal/domain"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := Defaults()
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected valid config, got: %v", err)
	}
}

func TestValidate_BadLogLevel(t *testing.T) {
	cfg := Defaults()
	cfg.General.LogLevel = "verbose"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for logLevel=verbose")
	}
}

func TestValidate_QuoteAttempts_Boundary(t *testing.T) {
	cfg := Defaults()

	cfg.Quotes.MaxAttempts = 0
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for maxAttempts=0")
	}

	cfg.Quotes.MaxAttempts = 1
	if err := Validate(cfg); err != nil {
		t.Fatalf("maxAttempts=1 should be valid: %v", err)
	}

	cfg.Quotes.MaxAttempts = 11
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for maxAttempts=11")
	}
}

func TestValidate_TinyImage(t *testing.T) {
	cfg := Defaults()
	cfg.Render.Width = 50
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for render.width=50")
	}
}

func TestValidate_ReturnsConfigError(t *testing.T) {
	cfg := Defaults()
	cfg.Metrics.Port = 70000
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error for metrics.port=70000")
	}
	var ce *domain.ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *domain.ConfigError, got %T", err)
	}
}

func TestValidateStartup_MissingToken(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	cfg := Defaults()
	cfg.Telegram.Token = ""
	err := ValidateStartup(cfg)
	if err == nil {
		t.Fatal("expected ConfigError for missing token")
	}
	var ce *domain.ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *domain.ConfigError, got %T", err)
	}
	if ce.Field != "telegram.token" {
		t.Errorf("expected field telegram.token, got %s", ce.Field)
	}
}

func TestValidateStartup_TelegramDisabled(t *testing.T) {
	cfg := Defaults()
	cfg.Telegram.Enabled = false
	cfg.Telegram.Token = ""
	if err := ValidateStartup(cfg); err != nil {
		t.Fatalf("token should not be required when telegram is disabled: %v", err)
	}
}

func TestApplyEnv_TokenOverride(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	cfg := Defaults()
	cfg.Telegram.Token = "from-file"
	ApplyEnv(cfg)
	if cfg.Telegram.Token != "123:abc" {
		t.Errorf("expected env token to win, got %q", cfg.Telegram.Token)
	}
}

func TestApplyEnv_UnexpandedPlaceholderIsUnset(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	cfg := Defaults()
	ApplyEnv(cfg)
	if cfg.Telegram.Token != "" {
		t.Errorf("expected empty token, got %q", cfg.Telegram.Token)
	}
}

func TestLoadSave_RoundTrip(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "55:roundtrip")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg := Defaults()
	cfg.General.LogLevel = "debug"
	cfg.Schedule.DefaultIntervalS = 3600
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.General.LogLevel != "debug" {
		t.Errorf("logLevel lost: %q", loaded.General.LogLevel)
	}
	if loaded.Schedule.DefaultIntervalS != 3600 {
		t.Errorf("interval lost: %d", loaded.Schedule.DefaultIntervalS)
	}
	if loaded.Telegram.Token != "55:roundtrip" {
		t.Errorf("expected token from env, got %q", loaded.Telegram.Token)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("GREETBOT_TEST_VAR", "hello")

	out := ExpandEnvVars("token: ${GREETBOT_TEST_VAR}")
	if out != "token: hello" {
		t.Errorf("got %q", out)
	}

	out = ExpandEnvVars("x: ${GREETBOT_UNSET_VAR:-fallback}")
	if out != "x: fallback" {
		t.Errorf("got %q", out)
	}

	out = ExpandEnvVars("x: ${GREETBOT_UNSET_VAR}")
	if out != "x: ${GREETBOT_UNSET_VAR}" {
		t.Errorf("unset var without default should stay, got %q", out)
	}
}
