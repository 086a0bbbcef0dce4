package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	planx "github.com/tanpawarit/yearboard/board/plan"
)

var ErrInvalidEvent = errors.New("invalid memory event")

type EventType string

const (
	EventActionCompleted      EventType = "action_completed"
	EventGoalProgressRecorded EventType = "goal_progress_recorded"
	EventNorthStarChanged     EventType = "north_star_changed"
	EventPlanAccepted         EventType = "plan_accepted"
)

// Event is a closed set of memory events. Types this build does not know
// arrive as Unknown.
type Event interface {
	Type() EventType
	isEvent()
}

type ActionCompleted struct {
	ActionTitle string       `json:"action_title"`
	Engine      planx.Engine `json:"engine,omitempty"`
}

type GoalProgressRecorded struct {
	GoalTitle string  `json:"goal_title"`
	Value     float64 `json:"value"`
}

type NorthStarChanged struct {
	Goal string `json:"goal"`
}

type PlanAccepted struct {
	Titles []string `json:"titles"`
}

type Unknown struct {
	Kind EventType       `json:"-"`
	Raw  json.RawMessage `json:"-"`
}

func (ActionCompleted) Type() EventType      { return EventActionCompleted }
func (GoalProgressRecorded) Type() EventType { return EventGoalProgressRecorded }
func (NorthStarChanged) Type() EventType     { return EventNorthStarChanged }
func (PlanAccepted) Type() EventType         { return EventPlanAccepted }
func (u Unknown) Type() EventType            { return u.Kind }

func (ActionCompleted) isEvent()      {}
func (GoalProgressRecorded) isEvent() {}
func (NorthStarChanged) isEvent()     {}
func (PlanAccepted) isEvent()         {}
func (Unknown) isEvent()              {}

// DecodeEvent reads a {"type": ...} envelope.
func DecodeEvent(raw []byte) (Event, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: malformed json", ErrInvalidEvent)
	}
	typ := strings.TrimSpace(gjson.GetBytes(raw, "type").String())
	if typ == "" {
		return nil, fmt.Errorf("%w: type is required", ErrInvalidEvent)
	}

	switch EventType(typ) {
	case EventActionCompleted:
		ev, err := decodeAs[ActionCompleted](raw)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(ev.ActionTitle) == "" {
			return nil, fmt.Errorf("%w: action_title is required", ErrInvalidEvent)
		}
		return ev, nil
	case EventGoalProgressRecorded:
		ev, err := decodeAs[GoalProgressRecorded](raw)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(ev.GoalTitle) == "" {
			return nil, fmt.Errorf("%w: goal_title is required", ErrInvalidEvent)
		}
		return ev, nil
	case EventNorthStarChanged:
		ev, err := decodeAs[NorthStarChanged](raw)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(ev.Goal) == "" {
			return nil, fmt.Errorf("%w: goal is required", ErrInvalidEvent)
		}
		return ev, nil
	case EventPlanAccepted:
		ev, err := decodeAs[PlanAccepted](raw)
		if err != nil {
			return nil, err
		}
		return ev, nil
	default:
		return Unknown{Kind: EventType(typ), Raw: append(json.RawMessage(nil), raw...)}, nil
	}
}

func decodeAs[T Event](raw []byte) (T, error) {
	var ev T
	if err := json.Unmarshal(raw, &ev); err != nil {
		return ev, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	return ev, nil
}

// MarshalEvent is the inverse of DecodeEvent.
func MarshalEvent(ev Event) ([]byte, error) {
	if ev == nil {
		return nil, fmt.Errorf("%w: nil event", ErrInvalidEvent)
	}
	if u, ok := ev.(Unknown); ok && len(u.Raw) > 0 {
		return u.Raw, nil
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", ev.Type(), err)
	}
	return sjson.SetBytes(body, "type", string(ev.Type()))
}
