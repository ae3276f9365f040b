package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"greetbot/internal/bus"
	"greetbot/internal/channel"
	"greetbot/internal/config"
	"greetbot/internal/domain"
	"greetbot/internal/greeting"
	"greetbot/internal/metrics"
	"greetbot/internal/quote"
	"greetbot/internal/render"
	"greetbot/internal/schedule"
	"greetbot/internal/store"

	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "greetbot",
		Short: "greetbot: gloriously over-edited greeting images for your chats",
		Long:  "greetbot is a Telegram bot that stamps inspirational quotes and greetings onto random photos, on command or on a schedule.",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.greetbot/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(runCmd())
	root.AddCommand(previewCmd())
	root.AddCommand(localCmd())
	root.AddCommand(doctorCmd())
	root.AddCommand(configCmd())
	root.AddCommand(installDaemonCmd())
	root.AddCommand(uninstallDaemonCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize config and output directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg := config.Defaults()
			if err := config.Save(cfgPath, cfg); err != nil {
				return err
			}
			if err := os.MkdirAll(cfg.General.OutputDir, 0o755); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath, "output", cfg.General.OutputDir)
			return nil
		},
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the bot (Telegram polling + scheduler)",
		Long:  "Connects to Telegram, restores greeting subscriptions, and serves /greet until interrupted.",
		RunE:  runBot,
	}
}

func loadConfig() (*config.Config, error) {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("config not found, using defaults", "path", cfgPath)
			cfg = config.Defaults()
			config.ApplyEnv(cfg)
			return cfg, nil
		}
		return nil, err
	}
	return cfg, nil
}

func runBot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := config.ValidateStartup(cfg); err != nil {
		return err
	}
	applyLogLevel(cfg.General.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	triggerBus := bus.New(100, logger)
	defer triggerBus.Close()

	st, err := store.NewSQLiteStore(cfg.Store.DBPath, logger)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer st.Close()

	dispatcher, err := buildDispatcher(cfg, st)
	if err != nil {
		return err
	}

	var sched *schedule.Scheduler
	if cfg.Schedule.Enabled {
		sched, err = schedule.New(triggerBus, st, logger)
		if err != nil {
			return fmt.Errorf("scheduler: %w", err)
		}
		go sched.Start(ctx)
	} else {
		logger.Info("scheduler disabled")
	}

	var subMgr domain.SubscriptionManager
	if sched != nil {
		subMgr = sched
	}

	var telegramCh *channel.Telegram
	if cfg.Telegram.Enabled {
		telegramCh = channel.NewTelegram(channel.TelegramConfig{
			Token:            cfg.Telegram.Token,
			AllowFrom:        cfg.Telegram.AllowFrom,
			Subscriptions:    subMgr,
			DefaultIntervalS: cfg.Schedule.DefaultIntervalS,
			Logger:           logger,
		})
		dispatcher.RegisterChannel(telegramCh)
		go func() {
			if err := telegramCh.Start(ctx, triggerBus); err != nil {
				logger.Error("telegram channel error", "err", err)
				stop()
			}
		}()
	} else {
		logger.Info("telegram channel disabled")
	}

	go dispatcher.Run(ctx, triggerBus)

	if cfg.Metrics.Enabled {
		go serveMetrics(ctx, cfg.Metrics)
	}

	logger.Info("greetbot started. Press Ctrl+C to stop.", "version", version)
	<-ctx.Done()
	logger.Info("shutting down...")

	const shutdownTimeout = 10 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if telegramCh != nil {
			telegramCh.Stop()
		}
		if sched != nil {
			sched.Stop()
		}
	}()

	select {
	case <-done:
		logger.Info("shutdown complete")
		return nil
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timed out, forcing exit")
		return fmt.Errorf("shutdown timed out")
	}
}

// buildDispatcher wires the quote client, renderer, and template pool.
func buildDispatcher(cfg *config.Config, st *store.SQLiteStore) (*greeting.Dispatcher, error) {
	quotes := quote.New(quote.Config{
		APIURL:      cfg.Quotes.APIURL,
		MaxAttempts: cfg.Quotes.MaxAttempts,
		Timeout:     time.Duration(cfg.Quotes.TimeoutSeconds) * time.Second,
		Logger:      logger,
	})

	composer, err := render.NewComposer(render.Config{
		BackgroundURL: cfg.Render.BackgroundURL,
		FontsDir:      cfg.Render.FontsDir,
		Width:         cfg.Render.Width,
		Height:        cfg.Render.Height,
		Timeout:       time.Duration(cfg.Render.TimeoutSeconds) * time.Second,
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("renderer: %w", err)
	}

	templates := greeting.NewTemplates(greeting.LoadPacks(cfg.General.TemplatesDir, logger))

	var history greeting.HistoryRecorder
	if st != nil {
		history = st
	}
	return greeting.NewDispatcher(greeting.DispatcherConfig{
		Quotes:    quotes,
		Renderer:  composer,
		Templates: templates,
		History:   history,
		Logger:    logger,
	}), nil
}

func localCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "local",
		Short: "Interactive local mode (no Telegram, images written to disk)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			applyLogLevel(cfg.General.LogLevel)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			triggerBus := bus.New(100, logger)
			defer triggerBus.Close()

			dispatcher, err := buildDispatcher(cfg, nil)
			if err != nil {
				return err
			}

			cliCh := channel.NewCLI(channel.CLIConfig{
				OutputDir: cfg.General.OutputDir,
				Logger:    logger,
			})
			dispatcher.RegisterChannel(cliCh)

			go dispatcher.Run(ctx, triggerBus)
			return cliCh.Start(ctx, triggerBus)
		},
	}
}

func previewCmd() *cobra.Command {
	var message, outPath string
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render one greeting image to a file and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			dispatcher, err := buildDispatcher(cfg, nil)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()

			art := dispatcher.Generate(ctx, domain.GreetingRequest{
				Channel:   "cli",
				ChatID:    "preview",
				Message:   message,
				Trigger:   domain.TriggerCommand,
				Timestamp: time.Now(),
			})
			if len(art.Image) == 0 {
				fmt.Println(art.Text)
				return fmt.Errorf("no image produced")
			}
			if err := os.WriteFile(outPath, art.Image, 0o644); err != nil {
				return err
			}
			logger.Info("greeting rendered", "path", outPath, "bytes", len(art.Image))
			return nil
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "greeting text (default: random template)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "greeting.jpg", "output file")
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			sanitized := *cfg
			if sanitized.Telegram.Token != "" {
				sanitized.Telegram.Token = "***"
			}
			data, _ := json.MarshalIndent(sanitized, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(resolveConfigPath())
		},
	})

	return cmd
}

func serveMetrics(ctx context.Context, cfg config.MetricsConfig) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Default.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("metrics server error", "err", err)
	}
}

func applyLogLevel(level string) {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
