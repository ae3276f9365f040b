package greeting

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"
)

func TestNewTemplates_DefaultsOnly(t *testing.T) {
	tpl := NewTemplates(nil)
	if tpl.Len() == 0 {
		t.Fatal("default greeting pool must not be empty")
	}

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		if tpl.Pick(rng) == "" {
			t.Fatal("Pick returned an empty greeting")
		}
	}
}

func TestNewTemplates_MergesAndDedupes(t *testing.T) {
	base := NewTemplates(nil).Len()
	packs := []TemplatePack{
		{Name: "festive", Greetings: []string{"Happy Diwali!", "Good Morning!", "  "}},
	}
	tpl := NewTemplates(packs)
	// "Good Morning!" is already a default and the blank entry is
	// dropped, so only one new greeting lands in the pool.
	if tpl.Len() != base+1 {
		t.Errorf("expected %d greetings, got %d", base+1, tpl.Len())
	}
}

func TestLoadPacks_FromDirectory(t *testing.T) {
	dir := t.TempDir()
	good := "name: festive\ngreetings:\n  - Happy New Year!\n  - Merry Christmas!\n"
	if err := os.WriteFile(filepath.Join(dir, "festive.yaml"), []byte(good), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("greetings: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}

	packs := LoadPacks(dir, testLogger())
	if len(packs) != 1 {
		t.Fatalf("expected 1 valid pack, got %d", len(packs))
	}
	if packs[0].Name != "festive" || len(packs[0].Greetings) != 2 {
		t.Errorf("unexpected pack: %+v", packs[0])
	}
}

func TestLoadPacks_NameFromFilename(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "mornings.yml"), []byte("greetings:\n  - Rise and shine!\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	packs := LoadPacks(dir, testLogger())
	if len(packs) != 1 || packs[0].Name != "mornings" {
		t.Fatalf("expected pack named after file, got %+v", packs)
	}
}

func TestLoadPacks_MissingDir(t *testing.T) {
	if packs := LoadPacks(filepath.Join(t.TempDir(), "nope"), testLogger()); packs != nil {
		t.Errorf("expected nil for missing dir, got %v", packs)
	}
}
