// Package memory keeps the per-organization memory consumed by the AI coach
// and folds board events into it.
package memory

import (
	"maps"
	"slices"
	"strings"
	"time"

	planx "github.com/tanpawarit/yearboard/board/plan"
)

const DefaultOrgID = "default"

type Fact struct {
	ID     string       `json:"id"`
	Type   EventType    `json:"type"`
	Text   string       `json:"text"`
	Engine planx.Engine `json:"engine,omitempty"`
	At     time.Time    `json:"at"`
}

type Memory struct {
	OrgID     string             `json:"org_id"`
	NorthStar string             `json:"north_star,omitempty"`
	Facts     []Fact             `json:"facts,omitempty"`
	Completed map[string]int     `json:"completed,omitempty"` // engine -> completed actions
	Goals     map[string]float64 `json:"goals,omitempty"`     // goal key -> last progress
	Revision  int64              `json:"revision"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func NormalizeOrgID(orgID string) string {
	if id := strings.TrimSpace(orgID); id != "" {
		return id
	}
	return DefaultOrgID
}

func New(orgID string) *Memory {
	return &Memory{
		OrgID:     NormalizeOrgID(orgID),
		Completed: make(map[string]int, 4),
		Goals:     make(map[string]float64, 4),
	}
}

// Clone returns a deep copy.
func (m Memory) Clone() Memory {
	out := m
	out.Facts = slices.Clone(m.Facts)
	out.Completed = maps.Clone(m.Completed)
	out.Goals = maps.Clone(m.Goals)
	if out.Completed == nil {
		out.Completed = make(map[string]int, 4)
	}
	if out.Goals == nil {
		out.Goals = make(map[string]float64, 4)
	}
	return out
}

// CompletedTotal sums completed actions across engines.
func (m Memory) CompletedTotal() int {
	total := 0
	for _, n := range m.Completed {
		total += n
	}
	return total
}

// RecentFacts returns at most n of the newest facts, oldest first.
func (m Memory) RecentFacts(n int) []Fact {
	if n <= 0 || len(m.Facts) == 0 {
		return nil
	}
	if len(m.Facts) <= n {
		return slices.Clone(m.Facts)
	}
	return slices.Clone(m.Facts[len(m.Facts)-n:])
}
