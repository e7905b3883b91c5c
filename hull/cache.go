// Copyright © 2024 Galvanized Logic Inc.

package hull

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// cache.go is the in-memory "preserving map" spec §4.5.2 describes:
// entries retained for at least a TTL past last access, with
// concurrent same-key requests sharing one build instead of racing.
// The TTL half is `golang-lru/v2/expirable` (already the pack's chosen
// TTL cache, per ref.go's ReferenceManager); the race-avoidance half is
// `golang.org/x/sync/singleflight` (this file is its only user), built
// for exactly this "collapse concurrent identical work" shape — LoadConvexHullSet's "double-checks the cache
// under a mutex before dispatching a build; concurrent requests for the
// same key share the same future" is singleflight's entire contract.

// BuildFunc computes a ConvexHullSet on a cache miss, e.g. by reading a
// GLTF mesh and calling Build.
type BuildFunc func() (ConvexHullSet, error)

// Cache is the process-wide convex-hull cache: an in-memory TTL map
// backed by on-disk cache files under dir (spec §4.5.2 "Storage",
// §6 "Collision cache files").
type Cache struct {
	dir   string
	inMem *lru.LRU[string, ConvexHullSet]
	group singleflight.Group
	mu    sync.Mutex
}

// NewCache constructs a cache rooted at dir (created lazily on first
// write) with the given retention TTL.
func NewCache(dir string, ttl time.Duration) *Cache {
	return &Cache{dir: dir, inMem: lru.NewLRU[string, ConvexHullSet](0, nil, ttl)}
}

// Load resolves name to a ConvexHullSet: an in-memory hit, else an
// on-disk cache hit (validated against modelHash/settingsHash), else
// build() — saving the result on disk and in memory either way (spec
// §4.5.2 "Build path"). Concurrent Load calls for the same name share
// one build() invocation.
func (c *Cache) Load(name string, modelHash, settingsHash Hash128, build BuildFunc) (ConvexHullSet, error) {
	c.mu.Lock()
	if set, ok := c.inMem.Get(name); ok {
		c.mu.Unlock()
		return set, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(name, func() (any, error) {
		// Double-checked: another caller may have finished the build
		// while we waited to enter singleflight.
		c.mu.Lock()
		if set, ok := c.inMem.Get(name); ok {
			c.mu.Unlock()
			return set, nil
		}
		c.mu.Unlock()

		if set, ok := c.loadDisk(name, modelHash, settingsHash); ok {
			c.mu.Lock()
			c.inMem.Add(name, set)
			c.mu.Unlock()
			return set, nil
		}

		set, err := build()
		if err != nil {
			return ConvexHullSet{}, fmt.Errorf("hull: build %q: %w", name, err)
		}
		if err := c.saveDisk(name, modelHash, settingsHash, set); err != nil {
			return ConvexHullSet{}, fmt.Errorf("hull: save %q: %w", name, err)
		}
		c.mu.Lock()
		c.inMem.Add(name, set)
		c.mu.Unlock()
		return set, nil
	})
	if err != nil {
		return ConvexHullSet{}, err
	}
	return v.(ConvexHullSet), nil
}

func (c *Cache) path(name string) string {
	return filepath.Join(c.dir, name+".hull")
}

func (c *Cache) loadDisk(name string, modelHash, settingsHash Hash128) (ConvexHullSet, bool) {
	f, err := os.Open(c.path(name))
	if err != nil {
		return ConvexHullSet{}, false
	}
	defer f.Close()

	payload, err := ReadCacheFile(f, modelHash, settingsHash)
	if err != nil {
		return ConvexHullSet{}, false
	}
	set, err := Unmarshal(payload)
	if err != nil {
		return ConvexHullSet{}, false
	}
	return set, true
}

func (c *Cache) saveDisk(name string, modelHash, settingsHash Hash128, set ConvexHullSet) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	f, err := os.Create(c.path(name))
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteCacheFile(f, modelHash, settingsHash, Marshal(set))
}

// Tick advances the cache's TTL bookkeeping by interval, evicting
// entries whose retention window has lapsed (spec §4.5.2 Phase 4
// "Advance the hull cache TTL by interval; evict expired entries").
// golang-lru/v2's expirable LRU already lazily evicts past-TTL entries
// on access and via its own background sweep, so Tick's job here is
// just to force that sweep to run now rather than wait for the next
// Get, keeping cache-tick cadence an explicit part of the physics
// frame per spec §4.5 Phase 4 instead of an invisible background timer.
func (c *Cache) Tick(interval time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range c.inMem.Keys() {
		c.inMem.Get(k) // touching each key forces the expirable LRU to drop stale ones.
	}
}
