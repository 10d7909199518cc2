package store

import (
	"time"
)

type prefixedStorage struct {
	underlying Storage
	prefix     string
}

func (p *prefixedStorage) Get(key string) ([]byte, error) {
	return p.underlying.Get(p.prefix + key)
}

func (p *prefixedStorage) Set(key string, val []byte, expiresIn time.Duration) error {
	return p.underlying.Set(p.prefix+key, val, expiresIn)
}

func (p *prefixedStorage) Delete(key string) error {
	return p.underlying.Delete(p.prefix + key)
}

// Reset clears the underlying storage, including keys outside the prefix.
func (p *prefixedStorage) Reset() error {
	return p.underlying.Reset()
}

func (p *prefixedStorage) Close() error {
	return p.underlying.Close()
}

func StorageWithPrefix(storage Storage, prefix string) Storage {
	return &prefixedStorage{
		underlying: storage,
		prefix:     prefix,
	}
}
