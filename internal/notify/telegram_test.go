package notify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{
			name:  "short message untouched",
			text:  "hello",
			limit: 10,
			want:  []string{"hello"},
		},
		{
			name:  "empty message produces nothing",
			text:  "",
			limit: 10,
			want:  nil,
		},
		{
			name:  "splits on newline when available",
			text:  "line one\nline two",
			limit: 12,
			want:  []string{"line one\n", "line two"},
		},
		{
			name:  "hard split without newline",
			text:  strings.Repeat("x", 25),
			limit: 10,
			want:  []string{strings.Repeat("x", 10), strings.Repeat("x", 10), strings.Repeat("x", 5)},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, splitMessage(tc.text, tc.limit))
		})
	}
}

func TestSplitMessageChunksWithinLimit(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("paragraph of text\n", 600)
	for _, chunk := range splitMessage(text, maxMessageLen) {
		assert.LessOrEqual(t, len(chunk), maxMessageLen)
	}
}
