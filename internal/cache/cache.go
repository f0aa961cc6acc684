package cache

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// feedsKey caches the feed list with unread counts, the hottest read path.
const feedsKey = "feeds"

// Manager is a small TTL cache for hot read paths. Any write to feeds or
// articles invalidates the cached feed list, since unread counts shift.
type Manager struct {
	cache *cache.Cache
}

func NewManager(defaultTTL time.Duration) *Manager {
	return &Manager{
		cache: cache.New(defaultTTL, 10*time.Minute),
	}
}

func (m *Manager) Get(key string) (interface{}, bool) {
	return m.cache.Get(key)
}

func (m *Manager) Set(key string, value interface{}, ttl time.Duration) {
	m.cache.Set(key, value, ttl)
}

func (m *Manager) Delete(key string) {
	m.cache.Delete(key)
}

func (m *Manager) GetFeeds() (interface{}, bool) {
	return m.cache.Get(feedsKey)
}

func (m *Manager) SetFeeds(value interface{}) {
	m.cache.Set(feedsKey, value, cache.DefaultExpiration)
}

func (m *Manager) InvalidateFeeds() {
	m.cache.Delete(feedsKey)
}

func (m *Manager) Flush() {
	m.cache.Flush()
}
