package driver

import "time"

// KeyValueDB define a key-value storage interface
type KeyValueDB interface {
	SetEX(key string, value string, expiration time.Duration) error
	// SetNX set key only if absent, reports whether it was set
	SetNX(key string, value string, expiration time.Duration) (bool, error)
	Get(key string) (string, error)
	Exists(key string) (bool, error)
	Del(key string) error
	Ping() error
}
