// Package kv is the durability layer for board state: a synchronous
// string key-value contract with several interchangeable media.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

var (
	ErrNotFound   = errors.New("kv key not found")
	ErrInvalidKey = errors.New("kv key is empty")
)

// Store is the persistence contract shared by every board store.
// Get returns ErrNotFound when key holds nothing.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Unavailable is the medium used when nothing is configured: reads find
// nothing and writes are dropped.
type Unavailable struct{}

var _ Store = Unavailable{}

func (Unavailable) Get(context.Context, string) (string, error) {
	return "", ErrNotFound
}

func (Unavailable) Set(context.Context, string, string) error {
	return nil
}

// GetJSON decodes key into dst. A missing or malformed value reports
// found=false with a nil error and leaves the stored value as is.
func GetJSON(ctx context.Context, s Store, key string, dst any) (bool, error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(raw) == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("kv: ignoring malformed value")
		return false, nil
	}
	return true, nil
}

func SetJSON(ctx context.Context, s Store, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.Set(ctx, key, string(payload))
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	return nil
}
