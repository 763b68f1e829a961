package session

import (
	"context"
	"strings"
)

// reveal feeds a reply to onToken word by word, giving callers a
// typewriter-style stream without the collaborator having to support
// server-side streaming. Cancelling the context stops the stream early;
// the caller is expected to finalize the full text regardless.
func reveal(ctx context.Context, text string, onToken func(string)) {
	if onToken == nil || text == "" {
		return
	}
	words := strings.SplitAfter(text, " ")
	for _, w := range words {
		select {
		case <-ctx.Done():
			return
		default:
		}
		onToken(w)
	}
}
