package driver

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryKV process-local KeyValueDB for single instance deployments and tests
type MemoryKV struct {
	cache *cache.Cache
}

var _ KeyValueDB = &MemoryKV{}

// NewMemoryKV create an empty store, expired keys are purged every minute
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{cache.New(cache.NoExpiration, time.Minute)}
}

// ttl maps KeyValueDB expirations, where zero means forever, onto go-cache's
func ttl(expiration time.Duration) time.Duration {
	if expiration <= 0 {
		return cache.NoExpiration
	}
	return expiration
}

// SetEX implement KeyValueDB
func (m *MemoryKV) SetEX(key string, value string, expiration time.Duration) error {
	m.cache.Set(key, value, ttl(expiration))
	return nil
}

// SetNX implement KeyValueDB
func (m *MemoryKV) SetNX(key string, value string, expiration time.Duration) (bool, error) {
	if err := m.cache.Add(key, value, ttl(expiration)); err != nil {
		return false, nil
	}
	return true, nil
}

// Get implement KeyValueDB
func (m *MemoryKV) Get(key string) (string, error) {
	if v, ok := m.cache.Get(key); ok {
		return v.(string), nil
	}
	return "", ErrKeyNotFound
}

// Exists implement KeyValueDB
func (m *MemoryKV) Exists(key string) (bool, error) {
	_, ok := m.cache.Get(key)
	return ok, nil
}

// Del implement KeyValueDB
func (m *MemoryKV) Del(key string) error {
	m.cache.Delete(key)
	return nil
}

// Ping implement KeyValueDB
func (m *MemoryKV) Ping() error {
	return nil
}
