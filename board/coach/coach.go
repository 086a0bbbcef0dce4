// Package coach answers questions about an organization's board using its
// memory and whatever the user's current page exposes.
package coach

import (
	"context"
	"errors"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"

	contractx "github.com/tanpawarit/yearboard/board/contract"
	memoryx "github.com/tanpawarit/yearboard/board/memory"
	promptx "github.com/tanpawarit/yearboard/board/prompt"
)

var ErrInvalidQuestion = errors.New("question is empty")

const defaultMaxFacts = 10

type Option func(*Coach)

// WithMaxFacts bounds how many recent memory facts reach the model.
func WithMaxFacts(n int) Option {
	return func(c *Coach) {
		if n > 0 {
			c.maxFacts = n
		}
	}
}

func WithPrompts(p promptx.PromptSet) Option {
	return func(c *Coach) {
		c.prompts = p
	}
}

type Coach struct {
	model   einomodel.BaseChatModel
	memory  contractx.MemoryReader
	visible contractx.VisibleReader
	prompts promptx.PromptSet

	maxFacts int
	now      func() time.Time

	graphRunner compose.Runnable[contractx.CoachRequest, contractx.CoachReply]
}

var _ contractx.Coach = (*Coach)(nil)

func New(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	memory contractx.MemoryReader,
	visible contractx.VisibleReader,
	opts ...Option,
) (*Coach, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}
	if memory == nil {
		return nil, errors.New("memory reader is required")
	}
	if visible == nil {
		visible = noopVisible{}
	}

	c := &Coach{
		model:    chatModel,
		memory:   memory,
		visible:  visible,
		prompts:  promptx.LoadPromptSet(),
		maxFacts: defaultMaxFacts,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if strings.TrimSpace(c.prompts.Coach) == "" || strings.TrimSpace(c.prompts.CoachContext) == "" {
		return nil, contractx.ErrPromptMissing
	}

	runner, err := c.compileAskGraph(ctx)
	if err != nil {
		return nil, err
	}
	c.graphRunner = runner
	return c, nil
}

func (c *Coach) Ask(ctx context.Context, req contractx.CoachRequest) (contractx.CoachReply, error) {
	out, err := c.graphRunner.Invoke(ctx, req)
	if err != nil {
		return contractx.CoachReply{}, err
	}
	out.OrgID = memoryx.NormalizeOrgID(req.OrgID)
	return out, nil
}
