package session

import (
	"context"

	"github.com/rbright/dictum/internal/segment"
)

// Committer applies a final result to the focused application.
type Committer interface {
	Apply(context.Context, segment.Final) error
}

// CommitFunc adapts a function to the Committer interface.
type CommitFunc func(context.Context, segment.Final) error

func (f CommitFunc) Apply(ctx context.Context, final segment.Final) error {
	return f(ctx, final)
}
