package cachemanager

import (
	"sync"
	"time"

	"github.com/zjrosen/strand/internal/component"
	"github.com/zjrosen/strand/internal/log"
)

// ArtifactKey identifies one cached artifact: a component name qualified by
// the purpose the artifact was derived for.
type ArtifactKey struct {
	Name    string
	Purpose component.Purpose
}

// Stats reports cache effectiveness counters.
type Stats struct {
	Hits   int `json:"hits"`
	Misses int `json:"misses"`
	Size   int `json:"size"`
}

// ArtifactOptions configures an ArtifactCache.
type ArtifactOptions struct {
	// TTL is the entry lifetime. Zero means entries never expire.
	TTL time.Duration

	// MaxEntries bounds the number of live entries. Zero means unbounded.
	// Inserting beyond the bound evicts the least-recently-used entry.
	MaxEntries int

	// Sliding makes each successful Get reset the expiration deadline.
	// When false the deadline is absolute from insertion.
	Sliding bool

	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

type artifactEntry[V any] struct {
	value          V
	insertedAt     time.Time
	lastAccessedAt time.Time
	expiresAt      time.Time
	accessSeq      uint64
}

// ArtifactCache stores expensive derived artifacts keyed by
// (component name, purpose). Expired entries are treated as absent on read;
// no background sweeper is required, but Size and eviction accounting drop
// expired entries deterministically.
type ArtifactCache[V any] struct {
	mu      sync.Mutex
	entries map[ArtifactKey]*artifactEntry[V]
	opts    ArtifactOptions
	hits    int
	misses  int
	seq     uint64
}

// NewArtifactCache creates an artifact cache with the given options.
func NewArtifactCache[V any](opts ArtifactOptions) *ArtifactCache[V] {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &ArtifactCache[V]{
		entries: make(map[ArtifactKey]*artifactEntry[V]),
		opts:    opts,
	}
}

// Set stores an artifact, evicting the least-recently-used entry first when
// inserting a new key would exceed MaxEntries.
func (c *ArtifactCache[V]) Set(key ArtifactKey, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.opts.Now()
	c.dropExpiredLocked(now)

	if _, exists := c.entries[key]; !exists && c.opts.MaxEntries > 0 && len(c.entries) >= c.opts.MaxEntries {
		c.evictLRULocked()
	}

	c.seq++
	entry := &artifactEntry[V]{
		value:          value,
		insertedAt:     now,
		lastAccessedAt: now,
		accessSeq:      c.seq,
	}
	if c.opts.TTL > 0 {
		entry.expiresAt = now.Add(c.opts.TTL)
	}
	c.entries[key] = entry
}

// Get returns the artifact for key. An entry past its deadline reads as
// absent. A hit updates lastAccessedAt; under sliding expiration it also
// pushes the deadline out by one TTL.
func (c *ArtifactCache[V]) Get(key ArtifactKey) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	now := c.opts.Now()

	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		return zero, false
	}
	if c.expiredLocked(entry, now) {
		delete(c.entries, key)
		c.misses++
		return zero, false
	}

	entry.lastAccessedAt = now
	c.seq++
	entry.accessSeq = c.seq
	if c.opts.Sliding && c.opts.TTL > 0 {
		entry.expiresAt = now.Add(c.opts.TTL)
	}
	c.hits++
	return entry.value, true
}

// Remove deletes a single artifact.
func (c *ArtifactCache[V]) Remove(key ArtifactKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// RemoveComponent deletes every artifact derived from the named component,
// across all purposes.
func (c *ArtifactCache[V]) RemoveComponent(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, purpose := range component.Purposes {
		delete(c.entries, ArtifactKey{Name: name, Purpose: purpose})
	}
}

// Clear drops every entry. Counters are kept.
func (c *ArtifactCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[ArtifactKey]*artifactEntry[V])
}

// Size returns the number of live (unexpired) entries.
func (c *ArtifactCache[V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropExpiredLocked(c.opts.Now())
	return len(c.entries)
}

// GetStats returns hit/miss counters and the live entry count.
func (c *ArtifactCache[V]) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropExpiredLocked(c.opts.Now())
	return Stats{Hits: c.hits, Misses: c.misses, Size: len(c.entries)}
}

func (c *ArtifactCache[V]) expiredLocked(entry *artifactEntry[V], now time.Time) bool {
	return !entry.expiresAt.IsZero() && now.After(entry.expiresAt)
}

func (c *ArtifactCache[V]) dropExpiredLocked(now time.Time) {
	for key, entry := range c.entries {
		if c.expiredLocked(entry, now) {
			delete(c.entries, key)
		}
	}
}

func (c *ArtifactCache[V]) evictLRULocked() {
	var victim ArtifactKey
	var victimEntry *artifactEntry[V]
	for key, entry := range c.entries {
		if victimEntry == nil || entry.accessSeq < victimEntry.accessSeq {
			victim = key
			victimEntry = entry
		}
	}
	if victimEntry != nil {
		delete(c.entries, victim)
		log.Debug(log.CatCache, "evicted least-recently-used entry", "name", victim.Name, "purpose", victim.Purpose)
	}
}
