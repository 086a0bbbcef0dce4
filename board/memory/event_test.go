package memory

import (
	"encoding/json"
	"errors"
	"testing"

	planx "github.com/tanpawarit/yearboard/board/plan"
)

func TestDecodeEventKnownTypes(t *testing.T) {
	t.Parallel()

	ev, err := DecodeEvent([]byte(`{"type":"action_completed","action_title":"Hire CFO","engine":"people"}`))
	if err != nil {
		t.Fatalf("DecodeEvent() error = %v", err)
	}
	got, ok := ev.(ActionCompleted)
	if !ok {
		t.Fatalf("DecodeEvent() = %T, want ActionCompleted", ev)
	}
	if got.ActionTitle != "Hire CFO" || got.Engine != planx.EnginePeople {
		t.Fatalf("DecodeEvent() = %#v", got)
	}

	ev, err = DecodeEvent([]byte(`{"type":"goal_progress_recorded","goal_title":"ARR","value":0.4}`))
	if err != nil {
		t.Fatalf("DecodeEvent() error = %v", err)
	}
	if gp, ok := ev.(GoalProgressRecorded); !ok || gp.Value != 0.4 {
		t.Fatalf("DecodeEvent() = %#v", ev)
	}
}

func TestDecodeEventUnknownType(t *testing.T) {
	t.Parallel()

	raw := []byte(`{"type":"meeting_held","minutes":30}`)
	ev, err := DecodeEvent(raw)
	if err != nil {
		t.Fatalf("DecodeEvent() error = %v", err)
	}
	u, ok := ev.(Unknown)
	if !ok {
		t.Fatalf("DecodeEvent() = %T, want Unknown", ev)
	}
	if u.Type() != "meeting_held" {
		t.Fatalf("Type() = %q", u.Type())
	}

	out, err := MarshalEvent(u)
	if err != nil {
		t.Fatalf("MarshalEvent() error = %v", err)
	}
	if string(out) != string(raw) {
		t.Fatalf("MarshalEvent() = %s, want original payload", out)
	}
}

func TestDecodeEventRejects(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"malformed":     `{"type":`,
		"missing type":  `{"action_title":"x"}`,
		"empty title":   `{"type":"action_completed","action_title":"  "}`,
		"wrong shape":   `{"type":"plan_accepted","titles":"not-a-list"}`,
		"no north star": `{"type":"north_star_changed"}`,
	}
	for name, raw := range cases {
		if _, err := DecodeEvent([]byte(raw)); !errors.Is(err, ErrInvalidEvent) {
			t.Fatalf("%s: DecodeEvent() error = %v, want ErrInvalidEvent", name, err)
		}
	}
}

func TestMarshalEventAddsType(t *testing.T) {
	t.Parallel()

	out, err := MarshalEvent(PlanAccepted{Titles: []string{"A", "C"}})
	if err != nil {
		t.Fatalf("MarshalEvent() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["type"] != string(EventPlanAccepted) {
		t.Fatalf("type = %v", decoded["type"])
	}

	back, err := DecodeEvent(out)
	if err != nil {
		t.Fatalf("DecodeEvent() error = %v", err)
	}
	if pa, ok := back.(PlanAccepted); !ok || len(pa.Titles) != 2 {
		t.Fatalf("DecodeEvent() = %#v", back)
	}
}
