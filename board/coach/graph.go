package coach

import (
	"context"
	"fmt"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/yearboard/board/contract"
)

func (c *Coach) compileAskGraph(
	ctx context.Context,
) (compose.Runnable[contractx.CoachRequest, contractx.CoachReply], error) {
	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(c.prompts.Coach),
		schema.UserMessage(c.prompts.CoachContext),
	)

	graph := compose.NewGraph[contractx.CoachRequest, contractx.CoachReply]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in contractx.CoachRequest) (*graphState, error) {
			return validateRequest(in, c.now())
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("read_memory",
		compose.InvokableLambda(func(ctx context.Context, in *graphState) (*graphState, error) {
			return readMemory(ctx, in, c.memory)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node read_memory: %w", err)
	}

	if err := graph.AddLambdaNode("read_visible_data",
		compose.InvokableLambda(func(ctx context.Context, in *graphState) (*graphState, error) {
			return readVisibleData(in, c.visible)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node read_visible_data: %w", err)
	}

	if err := graph.AddLambdaNode("build_input",
		compose.InvokableLambda(func(ctx context.Context, in *graphState) (map[string]any, error) {
			return buildTemplateInput(in, c.maxFacts)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node build_input: %w", err)
	}

	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add node prompt: %w", err)
	}

	if err := graph.AddLambdaNode("generate",
		compose.InvokableLambda(func(ctx context.Context, msgs []*schema.Message) (*schema.Message, error) {
			out, err := c.model.Generate(ctx, msgs)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
			}
			return out, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add node generate: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_reply",
		compose.InvokableLambda(func(ctx context.Context, msg *schema.Message) (contractx.CoachReply, error) {
			return finalizeReply(msg)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_reply: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "read_memory"},
		{"read_memory", "read_visible_data"},
		{"read_visible_data", "build_input"},
		{"build_input", "prompt"},
		{"prompt", "generate"},
		{"generate", "finalize_reply"},
		{"finalize_reply", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("coach.ask"))
	if err != nil {
		return nil, fmt.Errorf("compile coach graph: %w", err)
	}
	return runner, nil
}
