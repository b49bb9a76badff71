package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// openaiClient talks to any endpoint implementing /chat/completions.
type openaiClient struct {
	cfg  Config
	http *http.Client
}

func newOpenAIClient(cfg Config) *openaiClient {
	return &openaiClient{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Model string `json:"model"`
}

type errorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *openaiClient) Generate(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	messages := make([]chatMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		messages = append(messages, chatMessage{Role: m.Role, Content: m.Content})
	}

	cr := chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		MaxTokens:   firstPositive(req.MaxTokens, c.cfg.MaxTokens),
		Temperature: firstPositiveFloat(req.Temperature, c.cfg.Temperature),
	}
	body, err := json.Marshal(cr)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(respBody))
		var eb errorBody
		if json.Unmarshal(respBody, &eb) == nil && eb.Error.Message != "" {
			msg = eb.Error.Message
		}
		return nil, &APIError{StatusCode: httpResp.StatusCode, Message: msg}
	}

	var cresp chatResponse
	if err := json.Unmarshal(respBody, &cresp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(cresp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	model := cresp.Model
	if model == "" {
		model = c.cfg.Model
	}
	return &Response{
		Content:      stripThinkTags(cresp.Choices[0].Message.Content),
		FinishReason: cresp.Choices[0].FinishReason,
		TokensIn:     cresp.Usage.PromptTokens,
		TokensOut:    cresp.Usage.CompletionTokens,
		Cost:         EstimateCost(model, cresp.Usage.PromptTokens, cresp.Usage.CompletionTokens),
		Model:        model,
		LatencyMs:    time.Since(start).Milliseconds(),
	}, nil
}

var thinkTagRe = regexp.MustCompile(`(?s)<think>.*?</think>`)

// stripThinkTags removes <think>...</think> reasoning blocks that some
// compatible providers prepend to the answer.
func stripThinkTags(content string) string {
	return strings.TrimSpace(thinkTagRe.ReplaceAllString(content, ""))
}

func firstPositive(vals ...int) int {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}

func firstPositiveFloat(vals ...float64) float64 {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}
