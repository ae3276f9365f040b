package greeting

import (
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// TemplatePack is a named set of greeting messages loaded from YAML.
type TemplatePack struct {
	Name      string   `yaml:"name"`
	Greetings []string `yaml:"greetings"`
}

// defaultGreetings keeps the bot greeting even with no packs installed.
var defaultGreetings = []string{
	"Good Morning!",
	"Good Morning! Have a blessed day!",
	"Good Morning, beautiful people!",
	"Wishing you a wonderful day ahead!",
	"Have a fantastic day, dear family!",
}

// LoadPacks loads template packs from YAML files in dir. Files must
// have a .yaml or .yml extension; unreadable or malformed files are
// logged and skipped.
func LoadPacks(dir string, logger *slog.Logger) []TemplatePack {
	if dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		logger.Debug("templates directory does not exist, skipping", "dir", dir)
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn("cannot read templates dir", "dir", dir, "err", err)
		return nil
	}

	var packs []TemplatePack
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("cannot read template pack", "path", path, "err", err)
			continue
		}

		var pack TemplatePack
		if err := yaml.Unmarshal(data, &pack); err != nil {
			logger.Warn("cannot parse template pack", "path", path, "err", err)
			continue
		}
		if pack.Name == "" {
			pack.Name = strings.TrimSuffix(name, filepath.Ext(name))
		}

		logger.Info("loaded template pack", "name", pack.Name, "greetings", len(pack.Greetings))
		packs = append(packs, pack)
	}
	return packs
}

// Templates is the merged greeting pool the dispatcher picks from.
type Templates struct {
	greetings []string
}

// NewTemplates merges pack greetings on top of the built-in defaults.
func NewTemplates(packs []TemplatePack) *Templates {
	seen := make(map[string]bool)
	var pool []string
	add := func(g string) {
		g = strings.TrimSpace(g)
		if g == "" || seen[g] {
			return
		}
		seen[g] = true
		pool = append(pool, g)
	}
	for _, g := range defaultGreetings {
		add(g)
	}
	for _, pack := range packs {
		for _, g := range pack.Greetings {
			add(g)
		}
	}
	return &Templates{greetings: pool}
}

// Pick returns a random greeting from the pool.
func (t *Templates) Pick(rng *rand.Rand) string {
	return t.greetings[rng.Intn(len(t.greetings))]
}

// Len reports the pool size.
func (t *Templates) Len() int { return len(t.greetings) }
