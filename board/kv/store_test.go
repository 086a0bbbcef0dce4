package kv

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewLocalStore()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
	if err := s.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "v" {
		t.Fatalf("Get() = %q, want %q", got, "v")
	}
}

func TestLocalStoreRejectsEmptyKey(t *testing.T) {
	t.Parallel()

	s := NewLocalStore()
	if err := s.Set(context.Background(), "  ", "v"); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("Set() error = %v, want ErrInvalidKey", err)
	}
}

func TestUnavailableDegradesSilently(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	var s Store = Unavailable{}
	if err := s.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set() error = %v, want nil", err)
	}

	var dst map[string]float64
	found, err := GetJSON(ctx, s, "k", &dst)
	if err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if found {
		t.Fatal("GetJSON() found = true on unavailable medium")
	}
}

func TestGetJSONMalformedIsAbsent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewLocalStore()
	if err := s.Set(ctx, "goal-progress", "{not json"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	dst := map[string]float64{}
	found, err := GetJSON(ctx, s, "goal-progress", &dst)
	if err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if found {
		t.Fatal("GetJSON() found = true for malformed value")
	}

	raw, _ := s.Get(ctx, "goal-progress")
	if raw != "{not json" {
		t.Fatalf("malformed value was rewritten: %q", raw)
	}
}

type failingStore struct{ err error }

func (f failingStore) Get(context.Context, string) (string, error) { return "", f.err }
func (f failingStore) Set(context.Context, string, string) error { return f.err }

func TestGetJSONPropagatesTransportErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	var dst map[string]any
	if _, err := GetJSON(context.Background(), failingStore{err: boom}, "k", &dst); !errors.Is(err, boom) {
		t.Fatalf("GetJSON() error = %v, want boom", err)
	}
}

func TestSetJSONRejectsUnserializable(t *testing.T) {
	t.Parallel()

	err := SetJSON(context.Background(), NewLocalStore(), "k", map[string]float64{"x": math.NaN()})
	if err == nil {
		t.Fatal("SetJSON() error = nil, want marshal error")
	}
}

func TestOpenDrivers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	s, closer, err := Open(ctx, Config{Driver: "none"})
	if err != nil {
		t.Fatalf("Open(none) error = %v", err)
	}
	if _, ok := s.(Unavailable); !ok {
		t.Fatalf("Open(none) = %T, want Unavailable", s)
	}
	_ = closer.Close()

	s, _, err = Open(ctx, Config{Driver: "local"})
	if err != nil {
		t.Fatalf("Open(local) error = %v", err)
	}
	if _, ok := s.(*LocalStore); !ok {
		t.Fatalf("Open(local) = %T, want *LocalStore", s)
	}

	s, closer, err = Open(ctx, Config{SQLite: SQLiteConfig{Path: filepath.Join(t.TempDir(), "board.db")}})
	if err != nil {
		t.Fatalf("Open(default) error = %v", err)
	}
	if _, ok := s.(*SQLStore); !ok {
		t.Fatalf("Open(default) = %T, want *SQLStore", s)
	}
	_ = closer.Close()

	if _, _, err := Open(ctx, Config{Driver: "etcd"}); err == nil {
		t.Fatal("Open(etcd) error = nil, want unsupported driver")
	}

	if _, _, err := Open(ctx, Config{Driver: "upstash"}); err == nil {
		t.Fatal("Open(upstash) error = nil, want missing url")
	}
}

func TestConfigDurable(t *testing.T) {
	t.Parallel()

	for driver, want := range map[string]bool{
		"":         true,
		"sqlite":   true,
		"postgres": true,
		"redis":    true,
		"upstash":  true,
		"LOCAL":    false,
		"none":     false,
	} {
		if got := (Config{Driver: driver}).Durable(); got != want {
			t.Fatalf("Config{Driver: %q}.Durable() = %v, want %v", driver, got, want)
		}
	}
}
