// Package cache is a small file-backed cache for API listings.
//
// Entries are JSON files named "<key>_<server hash>_<user>.json" so
// one directory can hold caches for several servers and accounts
// side by side. The default TTL is 5 minutes. Setting PD_NO_CACHE
// bypasses both reads and writes.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const DefaultTTL = 5 * time.Minute

// hashLen is the number of hex digits of the server-URL hash kept in
// cache filenames.
const hashLen = 12

type entry struct {
	CachedAt time.Time       `json:"cached_at"`
	Items    json.RawMessage `json:"items"`
}

// Store reads and writes one cache file, scoped to a resource key, a
// server, and a username.
type Store struct {
	path string
	ttl  time.Duration
}

// NewStore builds a Store with the default TTL. key names the cached
// resource (e.g. "groups"), baseURL and username scope it.
func NewStore(dir, key, baseURL, username string) *Store {
	return NewStoreWithTTL(dir, key, baseURL, username, DefaultTTL)
}

// NewStoreWithTTL builds a Store with a custom TTL.
func NewStoreWithTTL(dir, key, baseURL, username string, ttl time.Duration) *Store {
	return &Store{
		path: filepath.Join(dir, cacheFilename(key, baseURL, username)),
		ttl:  ttl,
	}
}

func cacheFilename(key, baseURL, username string) string {
	sum := sha256.Sum256([]byte(baseURL))
	server := hex.EncodeToString(sum[:])[:hashLen]
	return fmt.Sprintf("%s_%s_%s.json", sanitizeKey(key), server, sanitizeKey(username))
}

// Get loads the cached value into dst. It reports false on any kind
// of miss: missing file, unreadable entry, expired TTL, or caching
// disabled.
func (s *Store) Get(dst any) bool {
	if disabled() {
		return false
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return false
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return false
	}
	if time.Since(e.CachedAt) > s.ttl {
		return false
	}
	return json.Unmarshal(e.Items, dst) == nil
}

// Put stores items in the cache. Failures are swallowed; the cache is
// an optimization, never a requirement.
func (s *Store) Put(items any) {
	if disabled() {
		return
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return
	}
	data, err := json.Marshal(entry{CachedAt: time.Now(), Items: raw})
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return
	}

	// Write to a temp file first so readers never see a torn entry.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return
	}
	_ = os.Rename(tmp, s.path)
}

// Clear removes this store's cache file.
func (s *Store) Clear() {
	_ = os.Remove(s.path)
}

// ClearAll removes every cache file in dir. Only files matching the
// cache filename scheme are touched, so a mistyped --cache-dir cannot
// wipe unrelated files.
func ClearAll(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if !e.IsDir() && isCacheFilename(e.Name()) {
			_ = os.Remove(filepath.Join(dir, e.Name()))
		}
	}
}

// DefaultDir returns the per-user cache directory for pd.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "passdrive-cli"), nil
}

func disabled() bool {
	return os.Getenv("PD_NO_CACHE") != ""
}

func sanitizeKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return "cache"
	}
	key = strings.ReplaceAll(key, "/", "-")
	return strings.ReplaceAll(key, "\\", "-")
}

func isCacheFilename(name string) bool {
	if filepath.Ext(name) != ".json" {
		return false
	}
	parts := strings.Split(strings.TrimSuffix(name, ".json"), "_")
	if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
		return false
	}
	return len(parts[1]) == hashLen && isHex(parts[1])
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
