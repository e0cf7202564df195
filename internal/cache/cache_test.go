package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/corroborate/internal/model"
)

func TestKey(t *testing.T) {
	base := Key("openai", "gpt-4o-mini", "sys", "prompt")

	tests := []struct {
		other string
		same  bool
		desc  string
	}{
		{other: Key("openai", "gpt-4o-mini", "sys", "prompt"), same: true, desc: "identical inputs"},
		{other: Key("anthropic", "gpt-4o-mini", "sys", "prompt"), desc: "provider differs"},
		{other: Key("openai", "gpt-4o", "sys", "prompt"), desc: "model differs"},
		{other: Key("openai", "gpt-4o-mini", "sys2", "prompt"), desc: "system prompt differs"},
		{other: Key("openai", "gpt-4o-mini", "sysp", "rompt"), desc: "boundary shift is not a collision"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if (tt.other == base) != tt.same {
				t.Errorf("key equality = %v, want %v", tt.other == base, tt.same)
			}
		})
	}

	if !strings.HasPrefix(base, "corroborate:judge:v1:") {
		t.Errorf("unexpected key prefix: %s", base)
	}
}

func TestNew(t *testing.T) {
	if c := New(model.CacheConfig{Enabled: false}); c != nil {
		t.Errorf("expected nil cache when disabled, got %T", c)
	}
	if _, ok := New(model.CacheConfig{Enabled: true}).(*Memory); !ok {
		t.Error("expected memory cache without a directory")
	}
	tiered, ok := New(model.CacheConfig{Enabled: true, Dir: t.TempDir()}).(*Tiered)
	if !ok {
		t.Fatal("expected tiered cache with a directory")
	}
	if len(tiered.tiers) != 2 {
		t.Errorf("expected memory and disk tiers, got %d", len(tiered.tiers))
	}
}

func TestMemory(t *testing.T) {
	c := NewMemory(time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss on empty cache")
	}
	value := []byte("v")
	if err := c.Set("k", value, 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	value[0] = 'x'

	got, ok := c.Get("k")
	if !ok || string(got) != "v" {
		t.Fatalf("expected stored copy v, got %q %v", got, ok)
	}
	got[0] = 'y'
	if again, _ := c.Get("k"); string(again) != "v" {
		t.Errorf("returned slice aliases the stored value: %q", again)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 item, got %d", c.Len())
	}

	_ = c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after delete")
	}

	_ = c.Set("a", []byte("1"), 0)
	_ = c.Clear()
	if c.Len() != 0 {
		t.Errorf("expected empty cache after clear, got %d", c.Len())
	}
}

func TestDisk_RoundTripAndExpiry(t *testing.T) {
	dir := t.TempDir()
	c := NewDisk(dir, time.Hour)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	key := Key("openai", "m", "s", "p")
	if err := c.Set(key, []byte(`{"verdict":"verified"}`), 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, ok := c.Get(key)
	if !ok || string(got) != `{"verdict":"verified"}` {
		t.Fatalf("expected stored value, got %q %v", got, ok)
	}

	file := c.file(key)
	if strings.Contains(filepath.Base(file), ":") {
		t.Errorf("entry file name carries the key prefix: %s", file)
	}
	if _, err := os.Stat(file); err != nil {
		t.Fatalf("expected entry on disk: %v", err)
	}

	now = now.Add(2 * time.Hour)
	if _, ok := c.Get(key); ok {
		t.Fatal("expected miss after expiry")
	}
	if _, err := os.Stat(file); !os.IsNotExist(err) {
		t.Error("expected expired entry removed")
	}
}

func TestDisk_RejectsBadEntries(t *testing.T) {
	tests := []struct {
		content string
		desc    string
	}{
		{content: "{not json", desc: "corrupt file"},
		{content: `{"key":"corroborate:judge:v1:other","expires_at":"2999-01-01T00:00:00Z","value":"eA=="}`, desc: "entry written for another key"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			c := NewDisk(t.TempDir(), time.Hour)
			key := "corroborate:judge:v1:abcdef"
			file := c.file(key)
			if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(file, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}

			if _, ok := c.Get(key); ok {
				t.Fatal("expected miss")
			}
			if _, err := os.Stat(file); !os.IsNotExist(err) {
				t.Error("expected bad entry removed")
			}
		})
	}
}

func TestDisk_DeleteMissing(t *testing.T) {
	c := NewDisk(t.TempDir(), time.Hour)
	if err := c.Delete("nothing-here"); err != nil {
		t.Errorf("expected nil error deleting missing key, got %v", err)
	}
}

func TestTiered_BackfillsFasterTiers(t *testing.T) {
	dir := t.TempDir()
	key := Key("ollama", "llama3", "", "p")

	// Entry written by an earlier process exists only on disk
	if err := NewDisk(dir, time.Hour).Set(key, []byte("cached"), 0); err != nil {
		t.Fatalf("seed disk: %v", err)
	}

	mem := NewMemory(time.Hour)
	c := NewTiered(mem, nil, NewDisk(dir, time.Hour))
	if len(c.tiers) != 2 {
		t.Fatalf("expected nil tier skipped, got %d tiers", len(c.tiers))
	}

	got, ok := c.Get(key)
	if !ok || string(got) != "cached" {
		t.Fatalf("expected disk hit, got %q %v", got, ok)
	}
	if _, ok := mem.Get(key); !ok {
		t.Error("expected value copied into memory")
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok := c.Get(key); ok {
		t.Error("expected miss after clear")
	}
}
