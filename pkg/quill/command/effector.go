package command

import "context"

// Effector applies commands against one external surface (speech server,
// braille driver, input daemon). Apply is called from a single goroutine
// per effector, so implementations see commands in submission order and
// need no internal ordering.
//
// Transient failures should be reported as quillerrors.EffectorError with
// Transient set; the dispatcher retries those with backoff before giving
// up.
type Effector interface {
	Apply(ctx context.Context, cmd Command) error
}

// EffectorFunc adapts a function to the Effector interface.
type EffectorFunc func(ctx context.Context, cmd Command) error

// Apply implements Effector.
func (f EffectorFunc) Apply(ctx context.Context, cmd Command) error {
	return f(ctx, cmd)
}
