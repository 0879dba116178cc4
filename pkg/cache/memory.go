package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	descriptorLRUSize = 256
	versionLRUSize    = 1024
)

// memoryTier is the in-process LRU front for both caches. It never talks
// to disk; cache.go consults this first and falls back to diskStore on a
// miss, then repopulates memoryTier.
type memoryTier struct {
	descriptors *lru.Cache[string, DescriptorCacheEntry]
	versions    *lru.Cache[string, VersionEntry]
}

func newMemoryTier() *memoryTier {
	descriptors, err := lru.New[string, DescriptorCacheEntry](descriptorLRUSize)
	if err != nil {
		// Only returns an error for a non-positive size, which never
		// happens with the constant above.
		panic(err)
	}
	versions, err := lru.New[string, VersionEntry](versionLRUSize)
	if err != nil {
		panic(err)
	}
	return &memoryTier{descriptors: descriptors, versions: versions}
}
