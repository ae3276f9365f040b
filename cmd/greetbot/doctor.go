package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"greetbot/internal/config"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostic checks on your greetbot installation",
		Long: `Verifies that greetbot's configuration, token, quote API, background
source, fonts, and database are correctly set up. Reports pass/fail for
each check.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			fmt.Printf("greetbot doctor v%s\n", version)
			fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

			passed := 0
			failed := 0
			warned := 0

			// 1. Config file exists
			if _, err := os.Stat(cfgPath); err != nil {
				printFail("Config file", fmt.Sprintf("not found at %s", cfgPath))
				failed++
				fmt.Printf("\nRun 'greetbot init' to create a default configuration.\n")
				return fmt.Errorf("1 check(s) failed")
			}
			printPass("Config file", cfgPath)
			passed++

			// 2. Config loads and validates
			cfg, err := config.Load(cfgPath)
			if err != nil {
				printFail("Config validation", err.Error())
				fmt.Printf("\nResults: %d passed, %d failed\n", passed, 1)
				return fmt.Errorf("1 check(s) failed")
			}
			printPass("Config validation", "valid")
			passed++

			// 3. Telegram token
			if !cfg.Telegram.Enabled {
				printWarn("Telegram token", "telegram channel disabled")
				warned++
			} else if cfg.Telegram.Token == "" {
				printFail("Telegram token", "missing (set TELEGRAM_BOT_TOKEN or telegram.token)")
				failed++
			} else {
				printPass("Telegram token", "configured")
				passed++
			}

			// 4. Quote API reachable
			if err := checkURL(cfg.Quotes.APIURL); err != nil {
				printWarn("Quote API", fmt.Sprintf("unreachable (fallback quotes will be used): %v", err))
				warned++
			} else {
				printPass("Quote API", cfg.Quotes.APIURL)
				passed++
			}

			// 5. Background source reachable
			if err := checkURL(cfg.Render.BackgroundURL); err != nil {
				printWarn("Background source", fmt.Sprintf("unreachable (gradient fallback will be used): %v", err))
				warned++
			} else {
				printPass("Background source", cfg.Render.BackgroundURL)
				passed++
			}

			// 6. Fonts directory
			if cfg.Render.FontsDir == "" {
				printWarn("Fonts", "no fonts directory configured (builtin font only)")
				warned++
			} else if info, err := os.Stat(cfg.Render.FontsDir); err != nil || !info.IsDir() {
				printFail("Fonts", fmt.Sprintf("not a directory: %s", cfg.Render.FontsDir))
				failed++
			} else {
				printPass("Fonts", cfg.Render.FontsDir)
				passed++
			}

			// 7. Database writable
			if err := checkDatabase(cfg.Store.DBPath); err != nil {
				printFail("Database", err.Error())
				failed++
			} else {
				printPass("Database", cfg.Store.DBPath)
				passed++
			}

			fmt.Printf("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
			fmt.Printf("Results: %d passed, %d warnings, %d failed\n", passed, warned, failed)
			if failed > 0 {
				fmt.Printf("\nPlease fix the failed checks before running greetbot.\n")
				return fmt.Errorf("%d check(s) failed", failed)
			}
			if warned > 0 {
				fmt.Printf("\ngreetbot should work but consider fixing the warnings.\n")
			} else {
				fmt.Printf("\nAll checks passed! greetbot is ready to run.\n")
			}
			return nil
		},
	}
}

func checkURL(url string) error {
	if url == "" {
		return fmt.Errorf("not configured")
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("returned %s", resp.Status)
	}
	return nil
}

func checkDatabase(dbPath string) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("cannot create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("cannot open: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("cannot ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS _doctor_test (id INTEGER PRIMARY KEY)"); err != nil {
		return fmt.Errorf("not writable: %w", err)
	}
	_, _ = db.ExecContext(ctx, "DROP TABLE _doctor_test")
	return nil
}

func printPass(name, detail string) {
	fmt.Printf("  ✓ %-20s %s\n", name, detail)
}

func printFail(name, detail string) {
	fmt.Printf("  ✗ %-20s %s\n", name, detail)
}

func printWarn(name, detail string) {
	fmt.Printf("  ! %-20s %s\n", name, detail)
}
