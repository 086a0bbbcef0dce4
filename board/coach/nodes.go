package coach

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/yearboard/board/contract"
	memoryx "github.com/tanpawarit/yearboard/board/memory"
	visiblex "github.com/tanpawarit/yearboard/board/visible"
)

type graphState struct {
	Req     contractx.CoachRequest
	Now     time.Time
	Memory  *memoryx.Memory
	Visible visiblex.Data
}

type memoryView struct {
	NorthStar         string             `json:"north_star,omitempty"`
	GoalProgress      map[string]float64 `json:"goal_progress,omitempty"`
	CompletedByEngine map[string]int     `json:"completed_by_engine,omitempty"`
	RecentEvents      []string           `json:"recent_events,omitempty"`
	Today             string             `json:"today"`
}

func validateRequest(req contractx.CoachRequest, now time.Time) (*graphState, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: %w", contractx.ErrValidation, ErrInvalidQuestion)
	}
	req.Question = question
	req.OrgID = memoryx.NormalizeOrgID(req.OrgID)
	req.SessionID = strings.TrimSpace(req.SessionID)
	return &graphState{Req: req, Now: now.UTC()}, nil
}

func readMemory(ctx context.Context, in *graphState, memory contractx.MemoryReader) (*graphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	m, err := memory.Load(ctx, in.Req.OrgID)
	if err != nil {
		return nil, err
	}
	in.Memory = m
	return in, nil
}

func readVisibleData(in *graphState, visible contractx.VisibleReader) (*graphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	in.Visible = visible.Read(in.Req.SessionID)
	return in, nil
}

// buildTemplateInput fills the {memory}, {visible} and {question} slots.
func buildTemplateInput(in *graphState, maxFacts int) (map[string]any, error) {
	if in == nil || in.Memory == nil {
		return nil, fmt.Errorf("%w: graph memory is nil", contractx.ErrValidation)
	}

	view := memoryView{
		NorthStar:         in.Memory.NorthStar,
		GoalProgress:      in.Memory.Goals,
		CompletedByEngine: in.Memory.Completed,
		Today:             in.Now.Format(time.DateOnly),
	}
	for _, f := range in.Memory.RecentFacts(maxFacts) {
		view.RecentEvents = append(view.RecentEvents, f.At.Format(time.DateOnly)+" "+f.Text)
	}

	memoryJSON, err := json.Marshal(view)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal memory view: %v", contractx.ErrValidation, err)
	}

	visible := in.Visible
	if visible == nil {
		visible = visiblex.Data{}
	}
	visibleJSON, err := json.Marshal(visible)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal visible data: %v", contractx.ErrValidation, err)
	}

	return map[string]any{
		"memory":   string(memoryJSON),
		"visible":  string(visibleJSON),
		"question": in.Req.Question,
	}, nil
}

func finalizeReply(msg *schema.Message) (contractx.CoachReply, error) {
	if msg == nil {
		return contractx.CoachReply{}, fmt.Errorf("%w: model returned no message", contractx.ErrSchemaViolation)
	}
	reply := strings.TrimSpace(msg.Content)
	if reply == "" {
		return contractx.CoachReply{}, fmt.Errorf("%w: model returned empty content", contractx.ErrSchemaViolation)
	}
	return contractx.CoachReply{Message: reply}, nil
}

type noopVisible struct{}

func (noopVisible) Read(string) visiblex.Data {
	return visiblex.Data{}
}
