package source

import (
	"fmt"
	"os"
	"path/filepath"
)

// Cache stores the last successfully parsed remote bytes in a single file.
type Cache struct {
	path string
}

// NewCache returns a cache at path.
func NewCache(path string) *Cache {
	return &Cache{path: path}
}

// Path returns the cache file location.
func (c *Cache) Path() string { return c.path }

// Read returns the cached bytes. A missing file yields an error matching os.ErrNotExist.
func (c *Cache) Read() ([]byte, error) {
	return os.ReadFile(c.path)
}

// Write replaces the cache file atomically: the data is written to a temporary
// file in the same directory and renamed over the target, so concurrent writers
// never leave a torn file and the last rename wins.
func (c *Cache) Write(data []byte) (err error) {
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec,mnd // shared data dir
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil { //nolint:gosec,mnd // readable cache
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

