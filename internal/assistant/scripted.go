package assistant

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"
)

// Scripted answers with a canned reply picked by keyword after a simulated
// latency of MinDelay plus up to Jitter.
type Scripted struct {
	MinDelay time.Duration
	Jitter   time.Duration
}

func NewScripted(minDelay, jitter time.Duration) *Scripted {
	return &Scripted{MinDelay: minDelay, Jitter: jitter}
}

const (
	replyDebug = "Debug checklist: bounds and nil checks, loop edge cases, recent changes, stack trace."
	replyFix   = "Common fixes: restart the dev server, clear caches, check dependency versions, share the full error."
	replyHelp  = "Paste the broken code, the error output, or what you expected versus what happened."
	replyIdle  = "Mention @ai with \"bug ...\", \"fix ...\" or \"help ...\" to get a hint."
)

func (s *Scripted) Reply(ctx context.Context, prompt string) (string, error) {
	delay := s.MinDelay
	if s.Jitter > 0 {
		delay += rand.N(s.Jitter)
	}

	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-t.C:
	}

	return pick(prompt), nil
}

func pick(prompt string) string {
	text := strings.ToLower(prompt)
	switch {
	case strings.Contains(text, "bug"), strings.Contains(text, "error"):
		return replyDebug
	case strings.Contains(text, "fix"):
		return replyFix
	case strings.Contains(text, "help"), strings.Contains(text, "@ai"):
		return replyHelp
	default:
		return replyIdle
	}
}
