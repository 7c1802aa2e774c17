// Package assets resolves resource paths against configured roots and caches
// file contents.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Manager resolves relative resource paths against a list of root
// directories. Roots are searched in reverse order (last added wins).
type Manager struct {
	roots []string
	cache *Cache
	mu    sync.RWMutex
}

// NewManager creates a manager searching the given roots.
func NewManager(roots ...string) *Manager {
	m := &Manager{cache: NewCache()}
	for _, r := range roots {
		m.roots = append(m.roots, filepath.Clean(r))
	}
	return m
}

// AddRoot adds a directory to search. It must exist.
func (m *Manager) AddRoot(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("adding asset root %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("asset root %s is not a directory", dir)
	}

	m.mu.Lock()
	m.roots = append(m.roots, filepath.Clean(dir))
	m.mu.Unlock()
	return nil
}

// Roots returns the search roots in priority order (highest first).
func (m *Manager) Roots() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.roots))
	for i := len(m.roots) - 1; i >= 0; i-- {
		out = append(out, m.roots[i])
	}
	return out
}

// Resolve returns the on-disk path for p. Absolute paths and paths that
// exist relative to the working directory are returned unchanged. The
// returned error wraps fs.ErrNotExist when nothing matches.
func (m *Manager) Resolve(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("empty asset path: %w", fs.ErrNotExist)
	}
	if filepath.IsAbs(p) {
		if _, err := os.Stat(p); err != nil {
			return "", err
		}
		return p, nil
	}

	for _, root := range m.Roots() {
		candidate := filepath.Join(root, p)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	if _, err := os.Stat(p); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("asset %s: %w", p, fs.ErrNotExist)
}

// Load returns the contents of p, reading through the cache.
func (m *Manager) Load(p string) ([]byte, error) {
	resolved, err := m.Resolve(p)
	if err != nil {
		return nil, err
	}
	if data, ok := m.cache.Get(resolved); ok {
		return data, nil
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("reading asset %s: %w", resolved, err)
	}
	m.cache.Set(resolved, data)
	return data, nil
}

// Invalidate drops p from the cache so the next Load rereads it.
func (m *Manager) Invalidate(p string) {
	if resolved, err := m.Resolve(p); err == nil {
		m.cache.Delete(resolved)
	}
	m.cache.Delete(p)
}

// Close drops the cache.
func (m *Manager) Close() {
	m.cache.Clear()
}

// IsNotExist reports whether err means the asset does not exist.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// Cache is an in-memory byte cache keyed by resolved path.
type Cache struct {
	data map[string][]byte
	mu   sync.RWMutex

	hits   int
	misses int
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{data: make(map[string][]byte)}
}

// Get retrieves an item and counts the hit or miss.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Delete removes an item.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Clear empties the cache and resets stats.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}

// Stats returns hit and miss counts.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
