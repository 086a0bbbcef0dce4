// Package visible holds the data each session's active page exposes to the
// AI coach. Every session has one slot and no history.
package visible

import (
	"maps"
	"strings"

	"github.com/puzpuzpuz/xsync/v3"
)

const DefaultSession = "default"

type Data map[string]any

type slot struct {
	data Data
}

type Registry struct {
	slots *xsync.MapOf[string, *slot]
}

func NewRegistry() *Registry {
	return &Registry{slots: xsync.NewMapOf[string, *slot]()}
}

func sessionKey(session string) string {
	if s := strings.TrimSpace(session); s != "" {
		return s
	}
	return DefaultSession
}

func newSlot(data Data) *slot {
	snapshot := maps.Clone(data)
	if snapshot == nil {
		snapshot = Data{}
	}
	return &slot{data: snapshot}
}

// Expose replaces the session's slot with a copy of data.
func (r *Registry) Expose(session string, data Data) {
	r.slots.Store(sessionKey(session), newSlot(data))
}

func (r *Registry) Clear(session string) {
	r.slots.Delete(sessionKey(session))
}

// Read returns a copy of the session's slot, empty when nothing is exposed.
func (r *Registry) Read(session string) Data {
	s, ok := r.slots.Load(sessionKey(session))
	if !ok {
		return Data{}
	}
	return maps.Clone(s.data)
}

// Mount exposes data and returns the matching unmount. Unmount leaves the
// slot alone when a later Expose or Mount already replaced it.
func (r *Registry) Mount(session string, data Data) (unmount func()) {
	key := sessionKey(session)
	mine := newSlot(data)
	r.slots.Store(key, mine)

	return func() {
		r.slots.Compute(key, func(current *slot, loaded bool) (*slot, bool) {
			if loaded && current == mine {
				return nil, true
			}
			return current, !loaded
		})
	}
}

// Sessions lists sessions that currently expose data.
func (r *Registry) Sessions() []string {
	out := make([]string, 0, r.slots.Size())
	r.slots.Range(func(key string, _ *slot) bool {
		out = append(out, key)
		return true
	})
	return out
}
