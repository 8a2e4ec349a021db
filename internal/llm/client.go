// Package llm implements the chat-completion gateway client used by the
// AI endpoints. All calls are stateless request/response.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/nmarks/driftpad/internal/models"
)

// Message is one chat-completion message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model            string    `json:"model"`
	Messages         []Message `json:"messages"`
	MaxTokens        int       `json:"max_tokens,omitempty"`
	Temperature      float64   `json:"temperature,omitempty"`
	TopP             float64   `json:"top_p,omitempty"`
	FrequencyPenalty float64   `json:"frequency_penalty,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Client calls an OpenAI-compatible chat-completion endpoint.
type Client struct {
	baseURL string
	model   string
	httpc   *http.Client

	mu     sync.RWMutex
	apiKey string
}

// New creates a gateway client. Generation calls carry no client-side
// timeout; a hung request resolves only through context cancellation.
func New(baseURL, apiKey, model string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpc:   &http.Client{},
	}
}

// SetAPIKey swaps the bearer key, used by config hot-reload.
func (c *Client) SetAPIKey(key string) {
	c.mu.Lock()
	c.apiKey = key
	c.mu.Unlock()
}

type callOpts struct {
	maxTokens        int
	temperature      float64
	topP             float64
	frequencyPenalty float64
}

// complete posts the messages and returns choices[0].message.content.
// An empty completion is an error; callers decide whether to mask it.
func (c *Client) complete(ctx context.Context, msgs []Message, opts callOpts) (string, error) {
	payload := completionRequest{
		Model:            c.model,
		Messages:         msgs,
		MaxTokens:        opts.maxTokens,
		Temperature:      opts.temperature,
		TopP:             opts.topP,
		FrequencyPenalty: opts.frequencyPenalty,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("llm: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.mu.RLock()
	key := c.apiKey
	c.mu.RUnlock()
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("llm: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm: gateway status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var cr completionResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return "", fmt.Errorf("llm: decode response: %w", err)
	}
	if cr.Error != nil {
		return "", fmt.Errorf("llm: gateway error: %s", cr.Error.Message)
	}
	if len(cr.Choices) == 0 || strings.TrimSpace(cr.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("llm: empty completion")
	}
	return strings.TrimSpace(cr.Choices[0].Message.Content), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Sparks generates 2-3 short thought-spark phrases for the content.
func (c *Client) Sparks(ctx context.Context, content string, history []string) ([]string, error) {
	out, err := c.complete(ctx, []Message{
		{Role: "system", Content: sparksPrompt(history)},
		{Role: "user", Content: fmt.Sprintf("%q", content)},
	}, callOpts{maxTokens: 40, temperature: 1.0, topP: 0.9, frequencyPenalty: 0.8})
	if err != nil {
		return nil, err
	}
	words := parseWordList(out, 3)
	if len(words) == 0 {
		return nil, fmt.Errorf("llm: no sparks in completion")
	}
	return words, nil
}

// BackgroundWords generates 5-6 educational trigger words for the content.
func (c *Client) BackgroundWords(ctx context.Context, content string, previous []string) ([]string, error) {
	out, err := c.complete(ctx, []Message{
		{Role: "system", Content: backgroundWordsPrompt(previous)},
		{Role: "user", Content: fmt.Sprintf("%q", content)},
	}, callOpts{maxTokens: 25, temperature: 0.8, topP: 0.9, frequencyPenalty: 0.7})
	if err != nil {
		return nil, err
	}
	words := parseWordList(out, 6)
	if len(words) == 0 {
		return nil, fmt.Errorf("llm: no background words in completion")
	}
	return words, nil
}

// Captions generates platform-tailored captions. Malformed model output is a
// hard error; there is no safe synthetic substitute.
func (c *Client) Captions(ctx context.Context, content string) (models.Captions, error) {
	out, err := c.complete(ctx, []Message{
		{Role: "system", Content: captionsPrompt},
		{Role: "user", Content: "Create platform-optimized social media captions for this content:\n\n" + fmt.Sprintf("%q", content)},
	}, callOpts{maxTokens: 1500, temperature: 0.8, topP: 0.9})
	if err != nil {
		return models.Captions{}, err
	}

	var parsed struct {
		Captions *models.Captions `json:"captions"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(out)), &parsed); err != nil {
		return models.Captions{}, fmt.Errorf("llm: captions not valid JSON: %w", err)
	}
	if parsed.Captions == nil {
		return models.Captions{}, fmt.Errorf("llm: captions missing from response")
	}
	return *parsed.Captions, nil
}

// Script turns raw idea content into a structured short-form video script.
func (c *Client) Script(ctx context.Context, content, videoType string) (string, error) {
	return c.complete(ctx, []Message{
		{Role: "system", Content: scriptPrompt(videoType)},
		{Role: "user", Content: fmt.Sprintf("Turn this idea into a viral video script: %q", content)},
	}, callOpts{maxTokens: 800, temperature: 0.8, topP: 0.9})
}

// VisualNotes returns the script with [VISUAL: ...] direction lines inserted
// after every two sentences.
func (c *Client) VisualNotes(ctx context.Context, script string) (string, error) {
	return c.complete(ctx, []Message{
		{Role: "system", Content: visualNotesPrompt},
		{Role: "user", Content: "Add visual/filming notes to this script:\n\n" + script},
	}, callOpts{maxTokens: 1000, temperature: 0.7, topP: 0.9})
}

// Converse produces one free-text reply in an idea-development conversation.
func (c *Client) Converse(ctx context.Context, original string, backgroundWords []string, conversation []models.ChatMessage) (string, error) {
	msgs := []Message{{Role: "system", Content: conversePrompt(backgroundWords)}}
	msgs = append(msgs, Message{Role: "user", Content: fmt.Sprintf("Original content: %q", original)})
	for _, m := range conversation {
		role := "user"
		if m.Role == "assistant" || m.Role == "ai" {
			role = "assistant"
		}
		msgs = append(msgs, Message{Role: role, Content: m.Content})
	}
	return c.complete(ctx, msgs, callOpts{maxTokens: 150, temperature: 0.9, topP: 0.95, frequencyPenalty: 0.6})
}

// parseWordList extracts up to max words/phrases from a completion that
// should be a JSON string array, falling back to line scraping when the
// model returned loose text.
func parseWordList(out string, max int) []string {
	trimmed := stripCodeFence(out)

	var words []string
	if err := json.Unmarshal([]byte(trimmed), &words); err == nil {
		return cleanWords(words, max)
	}

	var scraped []string
	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimLeft(strings.TrimSpace(line), `-*0123456789."[] `)
		line = strings.Map(func(r rune) rune {
			switch r {
			case '"', '[', ']', ',':
				return -1
			}
			return r
		}, line)
		line = strings.TrimSpace(line)
		if len(line) > 2 && len(line) < 30 {
			scraped = append(scraped, line)
		}
	}
	return cleanWords(scraped, max)
}

func cleanWords(words []string, max int) []string {
	out := make([]string, 0, max)
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		out = append(out, w)
		if len(out) == max {
			break
		}
	}
	return out
}

// stripCodeFence removes a surrounding markdown code fence if the model
// wrapped its JSON in one.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
