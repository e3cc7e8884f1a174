package assistant

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPick(t *testing.T) {
	cases := map[string]string{
		"there is a BUG here":  replyDebug,
		"got an error":         replyDebug,
		"how do I fix this":    replyFix,
		"@ai anyone?":          replyHelp,
		"help":                 replyHelp,
		"hello world":          replyIdle,
		"fix the error please": replyDebug,
	}
	for prompt, want := range cases {
		assert.Equal(t, want, pick(prompt), prompt)
	}
}

func TestScripted_Reply(t *testing.T) {
	s := NewScripted(5*time.Millisecond, 5*time.Millisecond)

	start := time.Now()
	got, err := s.Reply(context.Background(), "fix it")
	require.NoError(t, err)
	assert.Equal(t, replyFix, got)
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
}

func TestScripted_ReplyCanceled(t *testing.T) {
	s := NewScripted(time.Hour, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Reply(ctx, "bug")
	require.ErrorIs(t, err, context.Canceled)
}
