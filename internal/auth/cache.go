package auth

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache holds the per-user role-name projection. It is an optimization,
// not a correctness boundary: the authoritative source is the userRole
// bucket, and callers invalidate via InvalidateRoles once a membership
// change commits. Injected so tests can substitute a fake.
type Cache interface {
	Get(key string) ([]string, bool)
	Set(key string, roles []string, ttl time.Duration)
	Invalidate(key string)
}

type memCache struct {
	c *gocache.Cache
}

func NewCache(defaultTTL time.Duration) Cache {
	return &memCache{c: gocache.New(defaultTTL, 10*time.Minute)}
}

func (m *memCache) Get(key string) ([]string, bool) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, false
	}
	roles, ok := v.([]string)
	return roles, ok
}

func (m *memCache) Set(key string, roles []string, ttl time.Duration) {
	m.c.Set(key, roles, ttl)
}

func (m *memCache) Invalidate(key string) {
	m.c.Delete(key)
}
