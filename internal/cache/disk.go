package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Disk persists responses across runs. Entries are sharded into
// subdirectories by the first two characters of their digest.
type Disk struct {
	root string
	ttl  time.Duration
	now  func() time.Time
}

// NewDisk returns a cache rooted at dir with a default entry lifetime of ttl
func NewDisk(dir string, ttl time.Duration) *Disk {
	return &Disk{root: dir, ttl: ttl, now: time.Now}
}

// record is the on-disk form of one entry
type record struct {
	Key       string    `json:"key"`
	StoredAt  time.Time `json:"stored_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Value     []byte    `json:"value"`
}

func (d *Disk) Get(key string) ([]byte, bool) {
	file := d.file(key)
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, false
	}

	var rec record
	switch {
	case json.Unmarshal(raw, &rec) != nil, rec.Key != key:
		// unreadable or foreign entry
		_ = os.Remove(file)
		return nil, false
	case !d.now().Before(rec.ExpiresAt):
		_ = os.Remove(file)
		return nil, false
	}
	return rec.Value, true
}

// Set writes the entry through a temp file and rename, so readers in other
// workers see either the old entry or the new one.
func (d *Disk) Set(key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = d.ttl
	}
	now := d.now()
	raw, err := json.Marshal(record{Key: key, StoredAt: now, ExpiresAt: now.Add(ttl), Value: value})
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	file := d.file(key)
	shard := filepath.Dir(file)
	if err := os.MkdirAll(shard, 0o755); err != nil {
		return fmt.Errorf("create cache shard: %w", err)
	}
	tmp, err := os.CreateTemp(shard, ".pending-*")
	if err != nil {
		return fmt.Errorf("create cache entry: %w", err)
	}
	_, werr := tmp.Write(raw)
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := os.Rename(tmp.Name(), file); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("commit cache entry: %w", err)
	}
	return nil
}

// Delete removes one entry; a missing entry is not an error
func (d *Disk) Delete(key string) error {
	err := os.Remove(d.file(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Clear drops the whole cache directory
func (d *Disk) Clear() error {
	return os.RemoveAll(d.root)
}

// file maps a key to its entry path. Keys carry a ':'-separated prefix that
// is dropped so file names stay portable.
func (d *Disk) file(key string) string {
	digest := key[strings.LastIndex(key, ":")+1:]
	if len(digest) < 3 {
		return filepath.Join(d.root, "_", digest+".json")
	}
	return filepath.Join(d.root, digest[:2], digest[2:]+".json")
}
