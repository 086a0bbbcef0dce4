package memory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	kvx "github.com/tanpawarit/yearboard/board/kv"
	"github.com/tanpawarit/yearboard/pkg/keylock"
	logx "github.com/tanpawarit/yearboard/pkg/logger"
)

var ErrNilMemory = errors.New("memory is nil")

const storageKeyPrefix = "memory:"

func StorageKey(orgID string) string {
	return storageKeyPrefix + NormalizeOrgID(orgID)
}

// Publisher receives every event after it has been saved.
type Publisher interface {
	Publish(ctx context.Context, orgID string, ev Event) error
}

type Option func(*Store)

func WithPublisher(p Publisher) Option {
	return func(s *Store) {
		s.publisher = p
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store loads and saves one Memory per organization.
type Store struct {
	kv        kvx.Store
	locks     *keylock.Map
	publisher Publisher
	now       func() time.Time
	logger    zerolog.Logger
}

func NewStore(store kvx.Store, opts ...Option) *Store {
	if store == nil {
		store = kvx.Unavailable{}
	}
	s := &Store{
		kv:     store,
		locks:  keylock.New(),
		now:    time.Now,
		logger: logx.Component("memory"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Load returns the stored memory or a fresh one when nothing usable is stored.
func (s *Store) Load(ctx context.Context, orgID string) (*Memory, error) {
	orgID = NormalizeOrgID(orgID)

	var stored Memory
	found, err := kvx.GetJSON(ctx, s.kv, StorageKey(orgID), &stored)
	if err != nil {
		return nil, fmt.Errorf("load memory %s: %w", orgID, err)
	}
	if !found {
		return New(orgID), nil
	}

	m := stored.Clone()
	m.OrgID = orgID
	return &m, nil
}

// Save overwrites whatever is stored for m.OrgID.
func (s *Store) Save(ctx context.Context, m *Memory) error {
	if m == nil {
		return ErrNilMemory
	}
	m.OrgID = NormalizeOrgID(m.OrgID)
	if err := kvx.SetJSON(ctx, s.kv, StorageKey(m.OrgID), m); err != nil {
		return fmt.Errorf("save memory %s: %w", m.OrgID, err)
	}
	return nil
}

// Fire loads, processes and saves as one step. Fires for the same org are
// serialized within this process.
func (s *Store) Fire(ctx context.Context, orgID string, ev Event) (*Memory, error) {
	if ev == nil {
		return nil, fmt.Errorf("%w: nil event", ErrInvalidEvent)
	}
	orgID = NormalizeOrgID(orgID)

	var saved *Memory
	err := s.locks.Do(orgID, func() error {
		current, err := s.Load(ctx, orgID)
		if err != nil {
			return err
		}
		next := Process(*current, ev, s.now())
		if err := s.Save(ctx, &next); err != nil {
			return err
		}
		saved = &next
		return nil
	})
	if err != nil {
		return nil, err
	}

	if _, ok := ev.(Unknown); ok {
		s.logger.Debug().Str("org_id", orgID).Str("event_type", string(ev.Type())).Msg("unhandled memory event")
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, orgID, ev); err != nil {
			s.logger.Warn().Err(err).Str("org_id", orgID).Str("event_type", string(ev.Type())).Msg("publish memory event failed")
		}
	}

	return saved, nil
}
