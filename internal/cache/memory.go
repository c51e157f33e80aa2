// Package cache provides the two content cache tiers: a process-lifetime
// in-memory map and a Redis-backed persistent store. Both enforce the same
// validity rule: an entry is live while now - storedAt < maxAge.
package cache

import (
	"sync"
	"time"
)

type memoryEntry struct {
	data     []byte
	storedAt time.Time
	maxAge   time.Duration
}

func (e memoryEntry) valid(now time.Time) bool {
	return now.Sub(e.storedAt) < e.maxAge
}

// Memory is the first cache tier consulted on every read. Expired entries
// are deleted lazily on Get; the cleanup loop only reclaims space early.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	done    chan struct{}
	once    sync.Once
}

func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		done:    make(chan struct{}),
	}
}

// StartCleanup evicts expired entries on the given interval until Close.
// Purely an optimization: Get re-checks the timestamp on every read.
func (m *Memory) StartCleanup(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-m.done:
				return
			case <-ticker.C:
				m.evictExpired()
			}
		}
	}()
}

func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !entry.valid(time.Now()) {
		m.Delete(key)
		return nil, false
	}
	return entry.data, true
}

// Age reports how long ago the entry was stored. ok is false on miss or
// expiry.
func (m *Memory) Age(key string) (time.Duration, bool) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	now := time.Now()
	if !ok || !entry.valid(now) {
		return 0, false
	}
	return now.Sub(entry.storedAt), true
}

func (m *Memory) Set(key string, data []byte, maxAge time.Duration) {
	m.mu.Lock()
	m.entries[key] = memoryEntry{data: data, storedAt: time.Now(), maxAge: maxAge}
	m.mu.Unlock()
}

func (m *Memory) Delete(key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

func (m *Memory) Clear() {
	m.mu.Lock()
	m.entries = make(map[string]memoryEntry)
	m.mu.Unlock()
}

func (m *Memory) evictExpired() {
	now := time.Now()
	m.mu.Lock()
	for key, entry := range m.entries {
		if !entry.valid(now) {
			delete(m.entries, key)
		}
	}
	m.mu.Unlock()
}

func (m *Memory) Close() {
	m.once.Do(func() { close(m.done) })
}
