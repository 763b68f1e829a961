package chat

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryWindow_ExcludesWelcome(t *testing.T) {
	msgs := []Message{
		NewWelcomeMessage("hello there"),
		NewUserMessage("first"),
		NewAssistantMessage("reply"),
	}

	window := HistoryWindow(msgs, 6)

	require.Len(t, window, 2)
	assert.Equal(t, "first", window[0].Content)
	assert.Equal(t, "reply", window[1].Content)
}

func TestHistoryWindow_KeepsLastN(t *testing.T) {
	var msgs []Message
	for i := 0; i < 10; i++ {
		msgs = append(msgs, NewUserMessage(fmt.Sprintf("m%d", i)))
	}

	window := HistoryWindow(msgs, 6)

	require.Len(t, window, 6)
	assert.Equal(t, "m4", window[0].Content)
	assert.Equal(t, "m9", window[5].Content)
}

func TestHistoryWindow_ShortTranscript(t *testing.T) {
	msgs := []Message{NewUserMessage("only one")}
	assert.Len(t, HistoryWindow(msgs, 6), 1)
	assert.Empty(t, HistoryWindow(nil, 6))
}

func TestMessage_IsEmpty(t *testing.T) {
	assert.True(t, NewUserMessage("   \n\t").IsEmpty())
	assert.False(t, NewUserMessage("hi").IsEmpty())
}
