package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Store holds encoded response bodies for the public read endpoints.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte)
	InvalidatePrefix(ctx context.Context, prefix string)
}

// Cache is the in-process Store with a fixed TTL per entry.
type Cache struct {
	mu  sync.RWMutex
	ttl time.Duration
	m   map[string]entry
	now func() time.Time
}

type entry struct {
	val []byte
	exp time.Time
}

func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Cache{
		ttl: ttl,
		m:   make(map[string]entry),
		now: time.Now,
	}
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, bool) {
	now := c.now()
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if now.After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, false
	}

	return e.val, true
}

func (c *Cache) Set(_ context.Context, key string, val []byte) {
	c.mu.Lock()
	c.m[key] = entry{val: val, exp: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *Cache) InvalidatePrefix(_ context.Context, prefix string) {
	c.mu.Lock()
	for k := range c.m {
		if strings.HasPrefix(k, prefix) {
			delete(c.m, k)
		}
	}
	c.mu.Unlock()
}

func (c *Cache) Clear() {
	c.mu.Lock()
	c.m = make(map[string]entry)
	c.mu.Unlock()
}

// Observer is told about every lookup; observability.Prom implements it.
type Observer interface {
	ObserveCache(name string, hit bool)
}

type instrumented struct {
	Store
	name string
	obs  Observer
}

// Instrument reports hits and misses of s under name.
func Instrument(s Store, name string, obs Observer) Store {
	if obs == nil {
		return s
	}
	return &instrumented{Store: s, name: name, obs: obs}
}

func (i *instrumented) Get(ctx context.Context, key string) ([]byte, bool) {
	val, ok := i.Store.Get(ctx, key)
	i.obs.ObserveCache(i.name, ok)
	return val, ok
}
