package plan

import "time"

type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusBlocked    Status = "blocked"
	StatusDone       Status = "done"
	StatusCancelled  Status = "cancelled"
)

// IsActive reports whether an action still needs work.
func (s Status) IsActive() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusBlocked:
		return true
	default:
		return false
	}
}

type Priority string

const (
	PriorityDoNow Priority = "do_now"
	PriorityNext  Priority = "next"
	PriorityLater Priority = "later"
)

// Engine is a business-function category. Unknown names pass through.
type Engine string

const (
	EngineVision   Engine = "vision"
	EnginePeople   Engine = "people"
	EngineData     Engine = "data"
	EngineProcess  Engine = "process"
	EngineTraction Engine = "traction"
	EngineIssues   Engine = "issues"
)

// Action is owned by the actions feature; only the fields read here are modeled.
type Action struct {
	Title    string   `json:"title"`
	Why      string   `json:"why"`
	Owner    string   `json:"owner"`
	Engine   *Engine  `json:"engine"`
	Priority Priority `json:"priority"`
	Effort   *int     `json:"effort"`
	Status   Status   `json:"status"`
}

type NorthStar struct {
	Goal       string     `json:"goal"`
	Metric     string     `json:"metric,omitempty"`
	TargetDate *time.Time `json:"target_date,omitempty"`
}

// DraftAction is a proposed weekly item. It is never persisted here.
type DraftAction struct {
	Title    string   `json:"title"`
	Why      string   `json:"why"`
	Owner    *string  `json:"owner"`
	Engine   *Engine  `json:"engine"`
	Priority Priority `json:"priority"`
	Effort   *int     `json:"effort"`
}
