// Package quote fetches random inspirational quotes from the
// Forismatic API. Quotes written in the first person are rejected (a
// greeting card that says "I" reads wrong), and a baked-in pool backs
// the API so callers always get a quote.
package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"regexp"
	"strings"
	"time"

	"greetbot/internal/domain"
	"greetbot/internal/metrics"
)

const userAgentString = "greetbot/0.1"

// firstPersonPatterns reject quotes that only make sense from the
// speaker's mouth.
var firstPersonPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bI\b`),
	regexp.MustCompile(`(?i)\bm[ey]\b`),
}

// fallbackQuotes keeps greetings flowing when the API is down or keeps
// returning first-person quotes.
var fallbackQuotes = []domain.Quote{
	{Text: "Every day is a new beginning.", Author: ""},
	{Text: "Happiness is not by chance, but by choice.", Author: "Jim Rohn"},
	{Text: "The best way to predict the future is to create it.", Author: "Peter Drucker"},
	{Text: "A smile is happiness found right under the nose.", Author: "Tom Wilson"},
	{Text: "Wherever you go, go with all your heart.", Author: "Confucius"},
	{Text: "Each morning we are born again. What we do today matters most.", Author: ""},
}

type Config struct {
	APIURL      string
	MaxAttempts int
	Timeout     time.Duration
	Logger      *slog.Logger
}

// Client retrieves quotes with bounded retries and fallback.
type Client struct {
	client      *http.Client
	apiURL      string
	maxAttempts int
	logger      *slog.Logger
	rng         *rand.Rand
}

func New(cfg Config) *Client {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		client:      &http.Client{Timeout: cfg.Timeout},
		apiURL:      cfg.APIURL,
		maxAttempts: cfg.MaxAttempts,
		logger:      cfg.Logger,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Random returns a quote suitable for a greeting card. It tries the
// API up to MaxAttempts times, skipping first-person quotes, then
// falls back to the baked-in pool. It never fails.
func (c *Client) Random(ctx context.Context) domain.Quote {
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		q, err := c.fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			c.logger.Warn("quote fetch failed", "attempt", attempt+1, "err", err)
			continue
		}
		if !Acceptable(q.Text) {
			c.logger.Debug("quote rejected by first-person filter", "quote", q.Text)
			continue
		}
		return q
	}
	q := fallbackQuotes[c.rng.Intn(len(fallbackQuotes))]
	metrics.QuoteFallbacks().Inc()
	c.logger.Info("using fallback quote", "quote", q.Text)
	return q
}

// forismaticResponse mirrors the API's JSON payload.
type forismaticResponse struct {
	QuoteText   string `json:"quoteText"`
	QuoteAuthor string `json:"quoteAuthor"`
}

func (c *Client) fetch(ctx context.Context) (domain.Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL, nil)
	if err != nil {
		return domain.Quote{}, err
	}
	req.Header.Set("User-Agent", userAgentString)

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("quote request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Quote{}, fmt.Errorf("quote API returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("read response: %w", err)
	}

	// Forismatic emits bare \' escapes that break encoding/json.
	cleaned := strings.ReplaceAll(string(body), `\'`, `'`)

	var fr forismaticResponse
	if err := json.Unmarshal([]byte(cleaned), &fr); err != nil {
		return domain.Quote{}, fmt.Errorf("parse response: %w", err)
	}

	text := strings.TrimSpace(fr.QuoteText)
	if text == "" {
		return domain.Quote{}, fmt.Errorf("empty quote in response")
	}

	return domain.Quote{Text: text, Author: strings.TrimSpace(fr.QuoteAuthor)}, nil
}

// Acceptable reports whether a quote passes the first-person filter.
func Acceptable(text string) bool {
	for _, re := range firstPersonPatterns {
		if re.MatchString(text) {
			return false
		}
	}
	return true
}
