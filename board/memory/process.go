package memory

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	progressx "github.com/tanpawarit/yearboard/board/progress"
)

const unassignedEngine = "unassigned"

// Process folds ev into a copy of m. The input is never modified. Unknown
// events return the copy unchanged.
func Process(m Memory, ev Event, now time.Time) Memory {
	return process(m, ev, now, uuid.NewString)
}

func process(m Memory, ev Event, now time.Time, newID func() string) Memory {
	out := m.Clone()

	var fact Fact
	switch e := ev.(type) {
	case ActionCompleted:
		engine := strings.TrimSpace(string(e.Engine))
		if engine == "" {
			engine = unassignedEngine
		}
		out.Completed[engine]++
		fact = Fact{Text: "Completed action: " + e.ActionTitle, Engine: e.Engine}
	case GoalProgressRecorded:
		out.Goals[progressx.NormalizeKey(e.GoalTitle)] = e.Value
		fact = Fact{Text: fmt.Sprintf("Progress on %s is now %s", strings.TrimSpace(e.GoalTitle), strconv.FormatFloat(e.Value, 'f', -1, 64))}
	case NorthStarChanged:
		out.NorthStar = e.Goal
		fact = Fact{Text: "North Star set to: " + e.Goal}
	case PlanAccepted:
		fact = Fact{Text: "Accepted weekly plan: " + strings.Join(e.Titles, "; ")}
	default:
		return out
	}

	fact.ID = newID()
	fact.Type = ev.Type()
	fact.At = now.UTC()

	out.Facts = append(out.Facts, fact)
	out.Revision++
	out.UpdatedAt = now.UTC()
	return out
}
