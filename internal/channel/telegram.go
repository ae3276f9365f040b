package channel

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"greetbot/internal/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const telegramPollTimeout = 30 // seconds

// Telegram implements domain.Channel for the Telegram Bot API.
type Telegram struct {
	token     string
	allowFrom []int64 // Allowed user IDs (empty = allow all)

	bot              *tgbotapi.BotAPI
	bus              domain.TriggerBus
	subs             domain.SubscriptionManager
	defaultIntervalS int
	logger           *slog.Logger
}

type TelegramConfig struct {
	Token            string
	AllowFrom        []string // User IDs as strings
	Subscriptions    domain.SubscriptionManager
	DefaultIntervalS int
	Logger           *slog.Logger
}

func NewTelegram(cfg TelegramConfig) *Telegram {
	var allowed []int64
	for _, s := range cfg.AllowFrom {
		if id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			allowed = append(allowed, id)
		}
	}
	if cfg.DefaultIntervalS <= 0 {
		cfg.DefaultIntervalS = 24 * 60 * 60
	}
	return &Telegram{
		token:            cfg.Token,
		allowFrom:        allowed,
		subs:             cfg.Subscriptions,
		defaultIntervalS: cfg.DefaultIntervalS,
		logger:           cfg.Logger,
	}
}

func (t *Telegram) Name() string { return "telegram" }

// Start connects to Telegram and polls for updates until ctx ends.
func (t *Telegram) Start(ctx context.Context, bus domain.TriggerBus) error {
	t.bus = bus

	bot, err := tgbotapi.NewBotAPI(t.token)
	if err != nil {
		return fmt.Errorf("telegram bot init: %w", err)
	}
	t.bot = bot
	t.logger.Info("telegram bot connected",
		"username", bot.Self.UserName,
		"id", bot.Self.ID,
	)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = telegramPollTimeout
	updates := bot.GetUpdatesChan(u)

	t.logger.Info("telegram polling started")

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("telegram channel stopping")
			bot.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			t.handleUpdate(ctx, update)
		}
	}
}

// Stop is a no-op: the bot stops when Start's context is cancelled.
// StopReceivingUpdates panics when called twice.
func (t *Telegram) Stop() error {
	return nil
}

// Send delivers one artifact with a single platform call. Greetings
// are fire-and-forget: any failure comes back as DeliveryError and is
// never retried.
func (t *Telegram) Send(ctx context.Context, chatID string, art domain.GreetingArtifact) error {
	if t.bot == nil {
		return &domain.DeliveryError{Channel: t.Name(), ChatID: chatID,
			Err: fmt.Errorf("not connected yet")}
	}

	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return &domain.DeliveryError{Channel: t.Name(), ChatID: chatID,
			Err: fmt.Errorf("invalid chat ID: %w", err)}
	}

	var msg tgbotapi.Chattable
	if len(art.Image) > 0 {
		photo := tgbotapi.NewPhoto(id, tgbotapi.FileBytes{Name: art.ImageName, Bytes: art.Image})
		photo.Caption = art.Text
		msg = photo
	} else {
		msg = tgbotapi.NewMessage(id, art.Text)
	}

	if _, err := t.bot.Send(msg); err != nil {
		return &domain.DeliveryError{Channel: t.Name(), ChatID: chatID, Err: err}
	}
	return nil
}

func (t *Telegram) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || update.Message.From == nil || update.Message.Chat == nil {
		return
	}

	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	if !t.isAllowed(userID) {
		t.logger.Warn("unauthorized telegram user",
			"user_id", userID,
			"username", update.Message.From.UserName,
		)
		t.reply(chatID, "Sorry, this bot is private.")
		return
	}

	if !update.Message.IsCommand() {
		return
	}
	t.handleCommand(ctx, chatID, update.Message)
}

func (t *Telegram) handleCommand(ctx context.Context, chatID int64, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start", "help":
		t.reply(chatID, "Hello! I make gloriously over-edited greeting images.\n\n"+
			"/greet [message] — send a greeting now\n"+
			"/subscribe [daily|hourly|seconds] — recurring greetings for this chat\n"+
			"/unsubscribe — stop recurring greetings\n"+
			"/help — this message")

	case "greet":
		t.logger.Info("greet command received", "chat_id", chatID, "user_id", msg.From.ID)
		action := tgbotapi.NewChatAction(chatID, tgbotapi.ChatUploadPhoto)
		_, _ = t.bot.Request(action)
		t.bus.Publish(domain.GreetingRequest{
			Channel:   t.Name(),
			ChatID:    strconv.FormatInt(chatID, 10),
			SenderID:  strconv.FormatInt(msg.From.ID, 10),
			Message:   strings.TrimSpace(msg.CommandArguments()),
			Trigger:   domain.TriggerCommand,
			Timestamp: msg.Time(),
		})

	case "subscribe":
		t.handleSubscribe(ctx, chatID, msg)

	case "unsubscribe":
		if t.subs == nil {
			t.reply(chatID, "Scheduling is disabled on this bot.")
			return
		}
		removed, err := t.subs.Unsubscribe(ctx, t.Name(), strconv.FormatInt(chatID, 10))
		if err != nil {
			t.logger.Error("unsubscribe failed", "chat_id", chatID, "err", err)
			t.reply(chatID, "Something went wrong, try again later.")
			return
		}
		if removed {
			t.reply(chatID, "Okay, no more scheduled greetings for this chat.")
		} else {
			t.reply(chatID, "This chat has no scheduled greetings.")
		}

	default:
		t.reply(chatID, "Unknown command. Type /help for available commands.")
	}
}

func (t *Telegram) handleSubscribe(ctx context.Context, chatID int64, msg *tgbotapi.Message) {
	if t.subs == nil {
		t.reply(chatID, "Scheduling is disabled on this bot.")
		return
	}

	interval, err := ParseInterval(msg.CommandArguments(), t.defaultIntervalS)
	if err != nil {
		t.reply(chatID, "I couldn't read that interval. Try /subscribe daily, /subscribe hourly, or /subscribe 3600.")
		return
	}

	sub, err := t.subs.Subscribe(ctx, domain.Subscription{
		Channel:   t.Name(),
		ChatID:    strconv.FormatInt(chatID, 10),
		IntervalS: interval,
	})
	if err != nil {
		t.logger.Error("subscribe failed", "chat_id", chatID, "err", err)
		t.reply(chatID, "Something went wrong, try again later.")
		return
	}
	t.reply(chatID, fmt.Sprintf("Done! A fresh greeting every %s. /unsubscribe to stop.",
		FormatInterval(sub.IntervalS)))
}

// ParseInterval understands "daily", "hourly", an empty string (the
// default) or a raw number of seconds of at least a minute.
func ParseInterval(arg string, defaultS int) (int, error) {
	arg = strings.TrimSpace(strings.ToLower(arg))
	switch arg {
	case "":
		return defaultS, nil
	case "daily":
		return 24 * 60 * 60, nil
	case "hourly":
		return 60 * 60, nil
	}
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("bad interval %q: %w", arg, err)
	}
	if n < 60 {
		return 0, fmt.Errorf("interval %d below one minute", n)
	}
	return n, nil
}

// FormatInterval renders an interval for chat replies.
func FormatInterval(seconds int) string {
	switch {
	case seconds%(24*60*60) == 0:
		d := seconds / (24 * 60 * 60)
		if d == 1 {
			return "day"
		}
		return fmt.Sprintf("%d days", d)
	case seconds%(60*60) == 0:
		h := seconds / (60 * 60)
		if h == 1 {
			return "hour"
		}
		return fmt.Sprintf("%d hours", h)
	default:
		return fmt.Sprintf("%d seconds", seconds)
	}
}

func (t *Telegram) isAllowed(userID int64) bool {
	if len(t.allowFrom) == 0 {
		return true // Empty list = allow all
	}
	for _, id := range t.allowFrom {
		if id == userID {
			return true
		}
	}
	return false
}

func (t *Telegram) reply(chatID int64, text string) {
	if _, err := t.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		t.logger.Warn("telegram reply failed", "chat_id", chatID, "err", err)
	}
}
