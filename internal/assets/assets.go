// Package assets locates maps in GRF archives and caches the parsed tables.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/squaremesh/pkg/formats"
	"github.com/Faultbox/squaremesh/pkg/grf"
)

// Lookup errors.
var (
	ErrNoArchive   = errors.New("no GRF archive found")
	ErrMapNotFound = errors.New("map not found in any GRF archive")
)

// Manager handles map loading from GRF files. It is safe for concurrent
// use; archive reads are serialized because an archive shares one file
// offset.
type Manager struct {
	archives []*grf.Archive
	cache    *Cache
	mu       sync.Mutex
	log      *zap.Logger
}

// NewManager creates a new asset manager.
func NewManager(log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		cache: NewCache(),
		log:   log,
	}
}

// AddArchive adds a GRF archive to the manager.
// Archives are searched in reverse order (last added = highest priority).
func (m *Manager) AddArchive(path string) error {
	archive, err := grf.Open(path)
	if err != nil {
		return fmt.Errorf("opening archive %s: %w", path, err)
	}

	m.mu.Lock()
	m.archives = append(m.archives, archive)
	m.mu.Unlock()

	m.log.Debug("archive added", zap.String("path", path), zap.Int("files", len(archive.List())))
	return nil
}

// AddArchives adds every path that exists, skipping missing files. It fails
// if none could be added.
func (m *Manager) AddArchives(paths []string) error {
	added := 0
	for _, p := range paths {
		err := m.AddArchive(p)
		if errors.Is(err, fs.ErrNotExist) {
			m.log.Debug("skipping missing archive", zap.String("path", p))
			continue
		}
		if err != nil {
			return err
		}
		added++
	}
	if added == 0 {
		return fmt.Errorf("%w in %v", ErrNoArchive, paths)
	}
	return nil
}

// Maps returns the sorted, de-duplicated map names of all archives.
func (m *Manager) Maps() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var names []string
	for _, a := range m.archives {
		names = append(names, a.Maps()...)
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// LoadGAT returns the altitude table of a map, parsing it on first use.
func (m *Manager) LoadGAT(name string) (*formats.GAT, error) {
	if gat, ok := m.cache.Get(name); ok {
		return gat, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	path := grf.MapPath(name)
	for i := len(m.archives) - 1; i >= 0; i-- {
		if !m.archives[i].Contains(path) {
			continue
		}
		gat, err := m.archives[i].ReadGAT(name)
		if err != nil {
			return nil, err
		}
		m.cache.Set(name, gat)
		return gat, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrMapNotFound, name)
}

// Close closes all archives.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, archive := range m.archives {
		archive.Close()
	}
	m.archives = nil
	m.cache.Clear()
}

// Cache holds parsed altitude tables by map name.
type Cache struct {
	data map[string]*formats.GAT
	mu   sync.RWMutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]*formats.GAT),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(name string) (*formats.GAT, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	gat, ok := c.data[name]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return gat, ok
}

// Set stores an item in cache.
func (c *Cache) Set(name string, gat *formats.GAT) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[name] = gat
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]*formats.GAT)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
