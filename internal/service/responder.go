package service

import "context"

// Responder produces assistant reply text. Reply may take arbitrarily long;
// the relay calls it from its own goroutine with no lock held.
type Responder interface {
	Reply(ctx context.Context, prompt string) (string, error)
}

type ResponderFunc func(ctx context.Context, prompt string) (string, error)

func (f ResponderFunc) Reply(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
