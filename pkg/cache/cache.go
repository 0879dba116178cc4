package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// Config holds the tunables from spec.md §6's cache.* configuration keys.
type Config struct {
	// VersionCheckInterval is the minimum interval between live
	// abci_info probes for a given chain (cache.version_check_interval_ms).
	VersionCheckInterval time.Duration
	// SchemaTTL is the in-memory schema cache entry lifetime
	// (cache.schema_ttl_ms).
	SchemaTTL time.Duration
	// Dir is the disk cache root (cache.dir), holding descriptors/ and
	// versions.json.
	Dir string
}

// DefaultConfig returns the cache defaults from spec.md §6.
func DefaultConfig(dir string) Config {
	return Config{
		VersionCheckInterval: 24 * time.Hour,
		SchemaTTL:            24 * time.Hour,
		Dir:                  dir,
	}
}

// nowFunc is overridden in tests to control time deterministically.
var nowFunc = time.Now

// Probe fetches the live application version for a chain's rpc endpoint.
// Implemented by fetchAppVersion in production; swapped for a fake in
// tests.
type Probe func(ctx context.Context, rpcEndpoint string) (string, error)

// Cache is the descriptor/version cache described in spec.md §4.3: an
// in-memory LRU front, a write-through disk tier, and a single-flight
// guard preventing two concurrent probes of the same chain_id.
type Cache struct {
	cfg   Config
	mem   *memoryTier
	disk  *diskStore
	probe Probe
	group singleflight.Group
}

// NewWithDefaultProbe constructs a Cache wired to the real abci_info probe,
// for production callers outside this package that cannot reference the
// unexported fetchAppVersion directly.
func NewWithDefaultProbe(cfg Config) *Cache {
	return New(cfg, fetchAppVersion)
}

// New constructs a Cache. probe is typically fetchAppVersion; tests
// inject a fake.
func New(cfg Config, probe Probe) *Cache {
	return &Cache{
		cfg:   cfg,
		mem:   newMemoryTier(),
		disk:  newDiskStore(cfg.Dir),
		probe: probe,
	}
}

// CheckNeedsUpdate implements the check_needs_update logic of spec.md
// §4.3: a cached verdict is reused within VersionCheckInterval; otherwise
// a live probe is attempted, single-flighted per chain_id so concurrent
// callers share one in-flight abci_info call.
func (c *Cache) CheckNeedsUpdate(ctx context.Context, chainID, rpcEndpoint string) (NeedsUpdateResult, error) {
	res, err, _ := c.group.Do(chainID, func() (any, error) {
		return c.checkNeedsUpdate(ctx, chainID, rpcEndpoint)
	})
	if err != nil {
		return NeedsUpdateResult{}, err
	}
	return res.(NeedsUpdateResult), nil
}

func (c *Cache) checkNeedsUpdate(ctx context.Context, chainID, rpcEndpoint string) (NeedsUpdateResult, error) {
	cached, haveCached := c.loadVersion(chainID)
	now := nowFunc()

	if haveCached && now.Sub(cached.LastChecked) < c.cfg.VersionCheckInterval {
		return NeedsUpdateResult{NeedsUpdate: false, CurrentVersion: cached.AppVersion, CachedVersion: cached.AppVersion}, nil
	}

	live, err := c.probe(ctx, rpcEndpoint)
	if err != nil {
		if !haveCached {
			return NeedsUpdateResult{NeedsUpdate: true}, nil
		}
		return NeedsUpdateResult{NeedsUpdate: false, CachedVersion: cached.AppVersion, CurrentVersion: cached.AppVersion}, nil
	}

	entry := VersionEntry{ChainID: chainID, AppVersion: live, LastChecked: now}
	c.storeVersion(entry)

	if !haveCached {
		return NeedsUpdateResult{NeedsUpdate: true, CurrentVersion: live}, nil
	}
	if cached.AppVersion != live {
		return NeedsUpdateResult{NeedsUpdate: true, CurrentVersion: live, CachedVersion: cached.AppVersion}, nil
	}
	return NeedsUpdateResult{NeedsUpdate: false, CurrentVersion: live, CachedVersion: cached.AppVersion}, nil
}

func (c *Cache) loadVersion(chainID string) (VersionEntry, bool) {
	if entry, ok := c.mem.versions.Get(chainID); ok {
		return entry, true
	}
	versions := c.disk.loadVersions()
	entry, ok := versions[chainID]
	if ok {
		c.mem.versions.Add(chainID, entry)
	}
	return entry, ok
}

func (c *Cache) storeVersion(entry VersionEntry) {
	c.mem.versions.Add(entry.ChainID, entry)
	// Disk write errors are swallowed: the in-memory tier remains
	// authoritative for the process lifetime, and a missing/unwritable
	// cache dir degrades to "always probe live" on the next run, not a
	// hard failure of the current audit.
	_ = c.disk.storeVersion(entry)
}

// Descriptor returns a cached schema blob for endpoint if one exists and
// is not stale relative to liveVersion (when known) and SchemaTTL.
func (c *Cache) Descriptor(endpoint, liveVersion string) (DescriptorCacheEntry, bool) {
	now := nowFunc()

	if entry, ok := c.mem.descriptors.Get(endpoint); ok {
		if !entry.stale(liveVersion, c.cfg.SchemaTTL, now) {
			return entry, true
		}
		c.mem.descriptors.Remove(endpoint)
	}

	entry, ok := c.disk.loadDescriptor(endpoint)
	if !ok || entry.stale(liveVersion, c.cfg.SchemaTTL, now) {
		return DescriptorCacheEntry{}, false
	}
	c.mem.descriptors.Add(endpoint, entry)
	return entry, true
}

// StoreDescriptor writes a freshly-fetched schema blob to both tiers.
func (c *Cache) StoreDescriptor(entry DescriptorCacheEntry) {
	entry.FetchedAt = nowFunc()
	c.mem.descriptors.Add(entry.Endpoint, entry)
	_ = c.disk.storeDescriptor(entry)
}
