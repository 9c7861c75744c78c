// Package cache defines the key/value cache used for derived read models.
package cache

import (
	"context"
	"encoding"
	"errors"
	"sync"
	"time"
)

var (
	ErrNotFound     = errors.New("key not found in cache")
	ErrInvalidValue = errors.New("invalid value for cache")
	ErrClosed       = errors.New("cache is closed")
	ErrInvalidKey   = errors.New("invalid cache key")
)

type Cache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	Get(ctx context.Context, key string, value interface{}) error

	Delete(ctx context.Context, key string) error

	Clear(ctx context.Context) error

	Close() error
}

type Options struct {
	DefaultTTL time.Duration

	RedisURL string

	RedisPassword string

	RedisDB int
}

func DefaultOptions() Options {
	return Options{
		DefaultTTL: 5 * time.Minute,
	}
}

// Memory is an in-process Cache. It stores encoded values, so Get accepts the
// same targets as the redis implementation.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
	closed  bool
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

func NewMemory(opts Options) *Memory {
	ttl := opts.DefaultTTL
	if ttl <= 0 {
		ttl = DefaultOptions().DefaultTTL
	}
	return &Memory{entries: make(map[string]memoryEntry), ttl: ttl, now: time.Now}
}

func (m *Memory) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	if key == "" {
		return ErrInvalidKey
	}
	data, err := Encode(value)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = m.ttl
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.entries[key] = memoryEntry{data: data, expires: m.now().Add(ttl)}
	return nil
}

func (m *Memory) Get(_ context.Context, key string, value interface{}) error {
	m.mu.RLock()
	entry, ok := m.entries[key]
	closed := m.closed
	m.mu.RUnlock()

	if closed {
		return ErrClosed
	}
	if !ok || !m.now().Before(entry.expires) {
		return ErrNotFound
	}
	return Decode(entry.data, value)
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]memoryEntry)
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Encode converts a cacheable value to bytes.
func Encode(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	case encoding.BinaryMarshaler:
		return v.MarshalBinary()
	default:
		return nil, ErrInvalidValue
	}
}

// Decode fills value from bytes produced by Encode.
func Decode(data []byte, value interface{}) error {
	switch v := value.(type) {
	case *string:
		*v = string(data)
	case encoding.BinaryUnmarshaler:
		return v.UnmarshalBinary(data)
	default:
		return ErrInvalidValue
	}
	return nil
}
