package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound    = errors.New("kv: key not found")
	ErrUnavailable = errors.New("kv: backend unavailable")
	ErrInvalidKey  = errors.New("kv: invalid key")
	ErrCorrupt     = errors.New("kv: value does not decode")
)

// Store is the blob store contract. Delete of an absent key is not an error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
}

// GetJSON loads key and decodes it into a new T.
func GetJSON[T any](ctx context.Context, s Store, key string) (*T, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	return &out, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("kv: encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw, ttl)
}

func validateKey(key string) error {
	if key == "" || strings.ContainsAny(key, "\r\n") {
		return ErrInvalidKey
	}
	return nil
}

func joinNamespace(namespace, key string) string {
	if namespace == "" {
		return key
	}
	return namespace + ":" + key
}

func stripNamespace(namespace, key string) string {
	if namespace == "" {
		return key
	}
	return strings.TrimPrefix(key, namespace+":")
}
