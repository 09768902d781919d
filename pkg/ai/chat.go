package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/johnquangdev/meeting-pipeline/pkg/config"
)

// ChatClient is a minimal client for OpenAI-compatible chat completion APIs
// (Groq, OpenAI). It implements Summarizer.
type ChatClient struct {
	name        string
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	client      *http.Client
}

// NewGroqChatClient creates a Groq chat client
func NewGroqChatClient(cfg *config.GroqConfig, sum *config.SummarizationConfig) *ChatClient {
	return newChatClient("groq", cfg.APIKey, cfg.BaseURL, cfg.ChatModel, sum)
}

// NewOpenAIChatClient creates an OpenAI chat client
func NewOpenAIChatClient(cfg *config.OpenAIConfig, sum *config.SummarizationConfig) *ChatClient {
	return newChatClient("openai", cfg.APIKey, cfg.BaseURL, cfg.ChatModel, sum)
}

func newChatClient(name, apiKey, baseURL, model string, sum *config.SummarizationConfig) *ChatClient {
	timeout := 2 * time.Minute
	temperature := 0.3
	maxTokens := 1024
	if sum != nil {
		if sum.Timeout > 0 {
			timeout = sum.Timeout
		}
		temperature = sum.Temperature
		if sum.MaxTokens > 0 {
			maxTokens = sum.MaxTokens
		}
	}
	return &ChatClient{
		name:        name,
		apiKey:      apiKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		client:      &http.Client{Timeout: timeout},
	}
}

// ChatMessage is one message of a chat completion request
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the shape for chat completion requests
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// ChatResponse is a minimal response shape
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (g *ChatClient) Name() string {
	return g.name
}

func (g *ChatClient) Ready() error {
	if g.apiKey == "" {
		return fmt.Errorf("%w: %s api key is empty", ErrNotConfigured, g.name)
	}
	if g.model == "" {
		return fmt.Errorf("%w: %s chat model is empty", ErrNotConfigured, g.name)
	}
	return nil
}

const summarizeSystemPrompt = "You are a professional meeting summarizer who writes clear, actionable summaries."

// Summarize returns a structured plain-text summary of the transcript
func (g *ChatClient) Summarize(ctx context.Context, transcript, title string) (string, error) {
	prompt := fmt.Sprintf(`Summarize this meeting.

Meeting Title: %s

Transcript:
%s

Use these sections: KEY TOPICS, DECISIONS MADE, ACTION ITEMS (with assignee and deadline when mentioned), BLOCKERS, NEXT STEPS.`, title, transcript)

	summary, err := g.complete(ctx, []ChatMessage{
		{Role: "system", Content: summarizeSystemPrompt},
		{Role: "user", Content: prompt},
	}, g.temperature, g.maxTokens)
	if err != nil {
		return "", err
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "", &ProviderError{Provider: g.name, Message: "empty summary"}
	}
	return summary, nil
}

// ExtractActionItems asks for a JSON array of action items found in the summary.
// Unparsable answers are reported as ErrMalformedOutput.
func (g *ChatClient) ExtractActionItems(ctx context.Context, summary string) ([]ActionItemCandidate, error) {
	prompt := fmt.Sprintf(`Extract action items from this meeting summary.

Return ONLY a JSON array. Each element has:
- "description": the task
- "assignee": person mentioned, or null
- "deadline": date mentioned (YYYY-MM-DD when possible), or null
- "confidence": your confidence in this extraction between 0.0 and 1.0

Return [] when there are no action items.

Summary:
%s`, summary)

	content, err := g.complete(ctx, []ChatMessage{
		{Role: "system", Content: "You are a precise task extractor. Return only valid JSON."},
		{Role: "user", Content: prompt},
	}, 0.1, g.maxTokens)
	if err != nil {
		return nil, err
	}
	return ParseActionItems(content)
}

func (g *ChatClient) complete(ctx context.Context, messages []ChatMessage, temperature float64, maxTokens int) (string, error) {
	if err := g.Ready(); err != nil {
		return "", err
	}

	b, err := json.Marshal(ChatRequest{
		Model:       g.model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", err
	}

	endpoint := g.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", &ProviderError{Provider: g.name, Message: "chat request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", &ProviderError{Provider: g.name, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	var cr ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", &ProviderError{Provider: g.name, StatusCode: resp.StatusCode, Message: "invalid chat response", Err: err}
	}
	if len(cr.Choices) == 0 {
		return "", &ProviderError{Provider: g.name, StatusCode: resp.StatusCode, Message: "empty response from " + g.name}
	}
	return cr.Choices[0].Message.Content, nil
}
