package contract

import (
	"context"

	memoryx "github.com/tanpawarit/yearboard/board/memory"
	visiblex "github.com/tanpawarit/yearboard/board/visible"
)

type MemoryReader interface {
	Load(ctx context.Context, orgID string) (*memoryx.Memory, error)
}

type VisibleReader interface {
	Read(session string) visiblex.Data
}

type Coach interface {
	Ask(ctx context.Context, req CoachRequest) (CoachReply, error)
}
