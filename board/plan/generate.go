// Package plan derives a short weekly action list from an organization's
// active actions and its North Star.
package plan

import "fmt"

const (
	MaxWeeklyActions = 3

	DefaultWhy        = "Carry forward for focused execution this week."
	NorthStarWhy      = "Keep the team pointed at the North Star this week."
	NorthStarOwner    = "Owner"
	NorthStarEngine   = EngineVision
	NorthStarEffort   = 2
	northStarTitleFmt = "Advance North Star: %s"
)

// Generate returns up to three drafts taken in input order from the active
// actions. With none active it falls back to a single North Star item, and
// with no North Star either it returns an empty slice.
func Generate(actions []Action, northStar *NorthStar) []DraftAction {
	drafts := make([]DraftAction, 0, MaxWeeklyActions)
	for _, a := range actions {
		if len(drafts) == MaxWeeklyActions {
			break
		}
		if !a.Status.IsActive() {
			continue
		}
		drafts = append(drafts, draftFromAction(a))
	}
	if len(drafts) > 0 {
		return drafts
	}

	if northStar != nil {
		return append(drafts, draftFromNorthStar(*northStar))
	}
	return drafts
}

func draftFromAction(a Action) DraftAction {
	why := a.Why
	if why == "" {
		why = DefaultWhy
	}

	priority := a.Priority
	if a.Status == StatusBlocked {
		priority = PriorityDoNow
	}

	var owner *string
	if a.Owner != "" {
		o := a.Owner
		owner = &o
	}

	return DraftAction{
		Title:    a.Title,
		Why:      why,
		Owner:    owner,
		Engine:   copyPtr(a.Engine),
		Priority: priority,
		Effort:   copyPtr(a.Effort),
	}
}

func draftFromNorthStar(ns NorthStar) DraftAction {
	owner := NorthStarOwner
	engine := NorthStarEngine
	effort := NorthStarEffort
	return DraftAction{
		Title:    fmt.Sprintf(northStarTitleFmt, ns.Goal),
		Why:      NorthStarWhy,
		Owner:    &owner,
		Engine:   &engine,
		Priority: PriorityDoNow,
		Effort:   &effort,
	}
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
