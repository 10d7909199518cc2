package store

import (
	"encoding/json"
	"time"
)

type store[T any] struct {
	storage Storage
}

func (s *store[T]) Get(key string) (T, error) {
	var obj T
	data, err := s.storage.Get(key)
	if err != nil {
		return obj, err
	}
	if data == nil {
		return obj, ErrNotFound
	}
	err = json.Unmarshal(data, &obj)
	return obj, err
}

func (s *store[T]) Set(key string, val T, expiresIn time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return s.storage.Set(key, data, expiresIn)
}

func (s *store[T]) Delete(key string) error {
	return s.storage.Delete(key)
}

// New returns a Store that JSON encodes values of type T into storage under
// keyPrefix.
func New[T any](storage Storage, keyPrefix string) Store[T] {
	return &store[T]{
		storage: StorageWithPrefix(storage, keyPrefix),
	}
}
