package command

import "context"

type depthKey struct{}

// DefaultMaxDepth bounds command re-entrancy: a command submitted while
// executing another command sits one level deeper than its parent.
const DefaultMaxDepth = 8

// DepthFromContext reports the current re-entrancy depth, zero for
// contexts outside any command execution.
func DepthFromContext(ctx context.Context) int {
	if d, ok := ctx.Value(depthKey{}).(int); ok {
		return d
	}
	return 0
}

// withDepth records the re-entrancy depth for nested submissions.
func withDepth(ctx context.Context, depth int) context.Context {
	return context.WithValue(ctx, depthKey{}, depth)
}
