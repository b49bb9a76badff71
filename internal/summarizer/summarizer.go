// Package summarizer writes short Korean summaries of news articles with an
// LLM. The summaries are what the quality checker later verifies against
// the article body.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/RobinCoderZhao/newsquality/pkg/llm"
)

// maxInputRunes bounds how much article text is sent to the model.
const maxInputRunes = 3000

// ErrEmptySummary is returned when the model replies with no usable text.
var ErrEmptySummary = errors.New("summarizer: empty summary")

// Summary is a generated summary plus its usage accounting.
type Summary struct {
	Text      string  `json:"text"`
	TokensIn  int     `json:"tokens_in"`
	TokensOut int     `json:"tokens_out"`
	Cost      float64 `json:"cost"`
}

// Summarizer produces article summaries.
type Summarizer struct {
	client llm.Client
}

// New creates a Summarizer backed by client.
func New(client llm.Client) *Summarizer {
	return &Summarizer{client: client}
}

// Summarize returns a three-sentence Korean summary of the article.
func (s *Summarizer) Summarize(ctx context.Context, title, content string) (*Summary, error) {
	body := strings.TrimSpace(content)
	if body == "" {
		return nil, fmt.Errorf("summarize %q: no content", title)
	}
	if utf8.RuneCountInString(body) > maxInputRunes {
		body = string([]rune(body)[:maxInputRunes])
	}

	resp, err := s.client.Generate(ctx, &llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: "user", Content: fmt.Sprintf(userPrompt, title, body)},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("summarize %q: %w", title, err)
	}

	text := clean(resp.Content)
	if text == "" {
		return nil, ErrEmptySummary
	}
	return &Summary{
		Text:      text,
		TokensIn:  resp.TokensIn,
		TokensOut: resp.TokensOut,
		Cost:      resp.Cost,
	}, nil
}

var listMarker = regexp.MustCompile(`^\s*(?:[-*•·]|\d+[.)])\s*`)

// clean turns the reply into plain prose: list markers are dropped and
// lines are joined so each sentence keeps its own terminator.
func clean(reply string) string {
	var parts []string
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(listMarker.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		if r, _ := utf8.DecodeLastRuneInString(line); !strings.ContainsRune(".!?。", r) {
			line += "."
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, " ")
}

const systemPrompt = "너는 뉴스 요약기다. 추측 금지. 기사에 있는 사실만 사용한다. 한국어로 답한다."

const userPrompt = `아래 기사 내용을 정확히 세 문장으로 요약해라.
각 문장은 마침표로 끝내고, 목록 기호나 번호, 제목은 붙이지 마라.
기사 본문에 없는 숫자나 인물, 평가는 쓰지 마라.

[제목]
%s

[본문]
%s`
