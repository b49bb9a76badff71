package quality

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"blank", "  \n\t ", []string{}},
		{"punctuation", "첫 문장이다. 둘째 문장! 셋째?\n넷째", []string{"첫 문장이다.", "둘째 문장!", "셋째?", "넷째"}},
		{"decimal is not a boundary", "금리는 3.5% 이다", []string{"금리는 3.5% 이다"}},
		{"cjk marks", "좋다。 정말？ 그래！ 끝", []string{"좋다。", "정말？", "그래！", "끝"}},
		{"line breaks", "a\r\n\r\nb\nc", []string{"a", "b", "c"}},
		{"no space after mark", "끝났다.다음", []string{"끝났다.다음"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitSentences(tt.input)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitSentences_ChopsLongSentences(t *testing.T) {
	chunks := SplitSentences(strings.Repeat("가", 1200))
	require.Len(t, chunks, 4)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 300)
	}

	assert.Len(t, SplitSentences(strings.Repeat("a", 600)), 1)
	assert.Len(t, SplitSentences(strings.Repeat("a", 601)), 3)
}
