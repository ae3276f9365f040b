package render

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

// FontPool holds the parsed TTF fonts the composer picks from. The
// embedded Go Regular face is always present so the pool is never
// empty.
type FontPool struct {
	fonts []*truetype.Font
	names []string
}

// LoadFonts parses every .ttf file in dir (if set) on top of the
// built-in face. Unparseable files are logged and skipped.
func LoadFonts(dir string, logger *slog.Logger) (*FontPool, error) {
	base, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse builtin font: %w", err)
	}
	pool := &FontPool{
		fonts: []*truetype.Font{base},
		names: []string{"goregular"},
	}

	if dir == "" {
		return pool, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("fonts directory does not exist, using builtin font", "dir", dir)
			return pool, nil
		}
		return nil, fmt.Errorf("read fonts dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".ttf") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("cannot read font file", "path", path, "err", err)
			continue
		}
		fnt, err := truetype.Parse(data)
		if err != nil {
			logger.Warn("cannot parse font file", "path", path, "err", err)
			continue
		}
		pool.fonts = append(pool.fonts, fnt)
		pool.names = append(pool.names, entry.Name())
	}

	logger.Info("fonts loaded", "count", len(pool.fonts))
	return pool, nil
}

// Pick returns a random font from the pool.
func (p *FontPool) Pick(rng *rand.Rand) *truetype.Font {
	return p.fonts[rng.Intn(len(p.fonts))]
}

// Len reports the number of loaded fonts.
func (p *FontPool) Len() int { return len(p.fonts) }
