// Package fscache is a filename-sanitizing JSON file cache for API
// responses. Both metadata clients share it so repeated catalog
// refreshes do not re-fetch unchanged author data.
package fscache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	unsafeCharRe  = regexp.MustCompile(`[/\\'"<>|:*?&]`)
	controlCharRe = regexp.MustCompile(`[\x00-\x1f\x7f]`)
	underscoreRe  = regexp.MustCompile(`_+`)
)

// SanitizeFilename maps an arbitrary cache key to a string safe for
// every filesystem the cache directory might live on (cloud-synced
// folders included). Unsafe characters collapse to single underscores.
func SanitizeFilename(text string) string {
	safe := unsafeCharRe.ReplaceAllString(text, "_")
	safe = controlCharRe.ReplaceAllString(safe, "_")
	safe = underscoreRe.ReplaceAllString(safe, "_")
	safe = strings.Trim(safe, "_ ")
	if safe == "" {
		return "empty"
	}
	return safe
}

// Cache stores JSON documents under an explicit directory. A nil *Cache
// is a valid no-op cache, so callers can disable caching by passing nil.
type Cache struct {
	dir string
}

// New creates the cache directory if needed.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, SanitizeFilename(key)+".json")
}

// Get unmarshals the cached document for key into target. It reports
// false on a miss; a corrupt cache file is treated as a miss, never an
// error.
func (c *Cache) Get(key string, target any) bool {
	if c == nil {
		return false
	}
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, target); err != nil {
		return false
	}
	return true
}

// Set writes the document for key. Write errors are returned so callers
// can log them, but a full disk must never fail a fetch.
func (c *Cache) Set(key string, value any) error {
	if c == nil {
		return nil
	}
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.path(key), data, 0o644)
}
