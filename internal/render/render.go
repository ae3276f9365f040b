// Package render composes the greeting image: a random background
// photo with the quote stamped on the top half and the greeting on the
// bottom half, each in a random font and a garish color with a black
// stroke. The family-group forward aesthetic is the point.
package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"greetbot/internal/domain"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"

	_ "image/png"
)

const (
	maxBackgroundBytes = 5 << 20
	lineSpacing        = 1.3
	strokeRadius       = 3
	// Text may fill 90% of the image width and 80% of its half-height.
	widthFill  = 0.9
	heightFill = 0.8
)

// colorPool is the fixed set of loud text colors.
var colorPool = []color.RGBA{
	{255, 255, 0, 255},   // yellow
	{255, 215, 0, 255},   // gold
	{0, 255, 127, 255},   // spring green
	{255, 0, 255, 255},   // magenta
	{255, 69, 0, 255},    // orange red
	{255, 0, 0, 255},     // red
	{0, 255, 255, 255},   // cyan
	{255, 255, 255, 255}, // white
}

type Config struct {
	BackgroundURL string
	FontsDir      string
	Width         int
	Height        int
	Timeout       time.Duration
	Logger        *slog.Logger
}

// Composer renders greeting artifacts.
type Composer struct {
	client        *http.Client
	backgroundURL string
	width, height int
	fonts         *FontPool
	logger        *slog.Logger
	rng           *rand.Rand
}

func NewComposer(cfg Config) (*Composer, error) {
	if cfg.Width <= 0 {
		cfg.Width = 400
	}
	if cfg.Height <= 0 {
		cfg.Height = 300
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	fonts, err := LoadFonts(cfg.FontsDir, cfg.Logger)
	if err != nil {
		return nil, err
	}
	return &Composer{
		client:        &http.Client{Timeout: cfg.Timeout},
		backgroundURL: cfg.BackgroundURL,
		width:         cfg.Width,
		height:        cfg.Height,
		fonts:         fonts,
		logger:        cfg.Logger,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Compose renders quote and greeting onto a background and returns
// JPEG bytes.
func (c *Composer) Compose(ctx context.Context, quote domain.Quote, greeting string) ([]byte, error) {
	bg := c.background(ctx)
	dc := gg.NewContextForImage(bg)

	w := float64(dc.Width())
	h := float64(dc.Height())

	c.drawBlock(dc, quote.Text, 0, w, h/2)
	c.drawBlock(dc, greeting, h/2, w, h/2)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dc.Image(), &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("encode greeting image: %w", err)
	}
	return buf.Bytes(), nil
}

// drawBlock stamps text centered in the horizontal band starting at
// top with the given height, in a random font and color.
func (c *Composer) drawBlock(dc *gg.Context, text string, top, width, height float64) {
	if text == "" {
		return
	}

	fnt := c.fonts.Pick(c.rng)
	face, text := fitText(dc, fnt, text, width*widthFill, height*heightFill)
	dc.SetFontFace(face)

	cx := width / 2
	cy := top + height/2

	// Black stroke first, color on top.
	dc.SetColor(color.Black)
	for dy := -strokeRadius; dy <= strokeRadius; dy++ {
		for dx := -strokeRadius; dx <= strokeRadius; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			dc.DrawStringWrapped(text, cx+float64(dx), cy+float64(dy),
				0.5, 0.5, width*widthFill, lineSpacing, gg.AlignCenter)
		}
	}

	col := colorPool[c.rng.Intn(len(colorPool))]
	dc.SetColor(col)
	dc.DrawStringWrapped(text, cx, cy, 0.5, 0.5, width*widthFill, lineSpacing, gg.AlignCenter)
}

// fitText walks font sizes down until the wrapped text fits the box.
// When even the smallest size overflows, the text is elided from the
// end so the block never spills out of its band.
func fitText(dc *gg.Context, fnt *truetype.Font, text string, maxW, maxH float64) (font.Face, string) {
	for size := 72.0; size > 8; size -= 2 {
		face := truetype.NewFace(fnt, &truetype.Options{Size: size})
		dc.SetFontFace(face)
		if fits(dc, text, maxW, maxH) {
			return face, text
		}
	}

	face := truetype.NewFace(fnt, &truetype.Options{Size: 8})
	dc.SetFontFace(face)
	if fits(dc, text, maxW, maxH) {
		return face, text
	}

	runes := []rune(text)
	lo, hi := 0, len(runes)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if fits(dc, elide(runes[:mid]), maxW, maxH) {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return face, elide(runes[:lo])
}

func elide(runes []rune) string {
	return strings.TrimSpace(string(runes)) + "…"
}

func fits(dc *gg.Context, text string, maxW, maxH float64) bool {
	lines := dc.WordWrap(text, maxW)
	var widest float64
	for _, line := range lines {
		w, _ := dc.MeasureString(line)
		if w > widest {
			widest = w
		}
	}
	_, lineH := dc.MeasureString("M")
	total := lineH * lineSpacing * float64(len(lines))
	return widest <= maxW && total <= maxH
}

// background fetches a random photo, or paints a dusk gradient when
// the fetch fails so rendering never depends on the network.
func (c *Composer) background(ctx context.Context) image.Image {
	if c.backgroundURL != "" {
		img, err := c.fetchBackground(ctx)
		if err == nil {
			return img
		}
		c.logger.Warn("background fetch failed, using gradient", "err", err)
	}
	return c.gradient()
}

func (c *Composer) fetchBackground(ctx context.Context) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.backgroundURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("background request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("background source returned %s", resp.Status)
	}

	img, _, err := image.Decode(io.LimitReader(resp.Body, maxBackgroundBytes))
	if err != nil {
		return nil, fmt.Errorf("decode background: %w", err)
	}
	return img, nil
}

func (c *Composer) gradient() image.Image {
	dc := gg.NewContext(c.width, c.height)
	grad := gg.NewLinearGradient(0, 0, 0, float64(c.height))
	grad.AddColorStop(0, color.RGBA{25, 42, 86, 255})
	grad.AddColorStop(1, color.RGBA{235, 125, 60, 255})
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, float64(c.width), float64(c.height))
	dc.Fill()
	return dc.Image()
}
