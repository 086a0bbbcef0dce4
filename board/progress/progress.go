// Package progress tracks numeric progress per goal, keyed by a normalized
// goal title.
package progress

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	kvx "github.com/tanpawarit/yearboard/board/kv"
	"github.com/tanpawarit/yearboard/pkg/keylock"
	logx "github.com/tanpawarit/yearboard/pkg/logger"
)

const (
	StorageKey   = "goal-progress"
	maxKeyLength = 50
)

// Map is goal key -> progress. Values carry no bounds; callers clamp for display.
type Map map[string]float64

// NormalizeKey lower-cases title, collapses whitespace runs into one hyphen
// and truncates to 50 runes. Distinct titles may collide.
func NormalizeKey(title string) string {
	fields := strings.FieldsFunc(strings.ToLower(title), unicode.IsSpace)
	key := strings.Join(fields, "-")

	runes := []rune(key)
	if len(runes) > maxKeyLength {
		return string(runes[:maxKeyLength])
	}
	return key
}

type Store struct {
	kv     kvx.Store
	locks  *keylock.Map
	logger zerolog.Logger
}

func NewStore(store kvx.Store) *Store {
	if store == nil {
		store = kvx.Unavailable{}
	}
	return &Store{
		kv:     store,
		locks:  keylock.New(),
		logger: logx.Component("progress"),
	}
}

// GetAll returns every stored value. Missing or corrupt state is an empty map.
func (s *Store) GetAll(ctx context.Context) (Map, error) {
	all := Map{}
	found, err := kvx.GetJSON(ctx, s.kv, StorageKey, &all)
	if err != nil {
		return nil, fmt.Errorf("load goal progress: %w", err)
	}
	if !found || all == nil {
		return Map{}, nil
	}
	return all, nil
}

// GetCurrent reports the value for title; ok is false when none was recorded.
func (s *Store) GetCurrent(ctx context.Context, title string) (value float64, ok bool, err error) {
	all, err := s.GetAll(ctx)
	if err != nil {
		return 0, false, err
	}
	value, ok = all[NormalizeKey(title)]
	return value, ok, nil
}

// SetCurrent rewrites the whole map with title's entry replaced. Writers in
// this process are serialized; writers elsewhere are last-write-wins.
func (s *Store) SetCurrent(ctx context.Context, title string, value float64) error {
	key := NormalizeKey(title)
	return s.locks.Do(StorageKey, func() error {
		all, err := s.GetAll(ctx)
		if err != nil {
			return err
		}
		all[key] = value
		if err := kvx.SetJSON(ctx, s.kv, StorageKey, all); err != nil {
			return fmt.Errorf("save goal progress: %w", err)
		}
		s.logger.Debug().Str("goal_key", key).Float64("value", value).Msg("goal progress updated")
		return nil
	})
}
