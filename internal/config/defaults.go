package config

import "path/filepath"

func Defaults() *Config {
	dir := DefaultConfigDir()
	return &Config{
		General: GeneralConfig{
			LogLevel:  "info",
			OutputDir: filepath.Join(dir, "out"),
		},
		Telegram: TelegramConfig{
			Enabled: true,
			Token:   "${TELEGRAM_BOT_TOKEN}",
		},
		Quotes: QuotesConfig{
			APIURL:         "http://api.forismatic.com/api/1.0/?method=getQuote&lang=en&format=json",
			MaxAttempts:    3,
			TimeoutSeconds: 10,
		},
		Render: RenderConfig{
			BackgroundURL:  "https://picsum.photos/400/300",
			Width:          400,
			Height:         300,
			TimeoutSeconds: 15,
		},
		Schedule: ScheduleConfig{
			Enabled:          true,
			DefaultIntervalS: 24 * 60 * 60, // daily
		},
		Store: StoreConfig{
			DBPath: filepath.Join(dir, "greetbot.db"),
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Host:    "127.0.0.1",
			Port:    9190,
		},
	}
}
