package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	refererHeader = "https://github.com/lcflow"
	titleHeader   = "LC Document Pipeline"
)

// OpenRouterProvider talks to OpenRouter-compatible chat completion APIs.
// Structured calls go through the OpenAI client with a json_schema response
// format; whole-file OCR fallback calls build the request by hand since the
// file content part is OpenRouter-specific.
type OpenRouterProvider struct {
	apiKey    string
	baseURL   string
	model     string
	maxTokens int
	client    *openai.Client
	http      *http.Client
}

type headerTransport struct {
	base http.RoundTripper
}

func (t headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("HTTP-Referer", refererHeader)
	req.Header.Set("X-Title", titleHeader)
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

func NewOpenRouterProvider(apiKey, baseURL, model string, maxTokens, timeoutSeconds int) (*OpenRouterProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openrouter api key is required")
	}
	hc := &http.Client{
		Timeout:   time.Duration(timeoutSeconds) * time.Second,
		Transport: headerTransport{},
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	cfg.HTTPClient = hc
	return &OpenRouterProvider{
		apiKey:    apiKey,
		baseURL:   baseURL,
		model:     model,
		maxTokens: maxTokens,
		client:    openai.NewClientWithConfig(cfg),
		http:      hc,
	}, nil
}

func (p *OpenRouterProvider) info() CallInfo {
	return CallInfo{Provider: "openrouter", Model: p.model}
}

func (p *OpenRouterProvider) CompleteStructured(ctx context.Context, req StructuredRequest) (json.RawMessage, CallInfo, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: 0,
		MaxTokens:   p.maxTokens,
		Messages:    messages,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   req.SchemaName,
				Schema: req.Schema,
				Strict: false,
			},
		},
	})
	if err != nil {
		return nil, p.info(), fmt.Errorf("openrouter structured completion (%s): %w", req.Operation, err)
	}
	if len(resp.Choices) == 0 {
		return nil, p.info(), fmt.Errorf("openrouter returned empty choices for %s", req.Operation)
	}
	return json.RawMessage(resp.Choices[0].Message.Content), p.info(), nil
}

func (p *OpenRouterProvider) CompleteWithFile(ctx context.Context, req FileRequest) (string, CallInfo, error) {
	dataURL := "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(req.FileData)
	payload, _ := json.Marshal(map[string]any{
		"model":      p.model,
		"max_tokens": p.maxTokens,
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": req.Prompt},
					{"type": "file", "file": map[string]any{
						"filename":  req.Filename,
						"file_data": dataURL,
					}},
				},
			},
		},
	})
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", p.info(), fmt.Errorf("build file completion request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(httpReq)
	if err != nil {
		return "", p.info(), fmt.Errorf("openrouter file completion (%s): %w", req.Operation, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return "", p.info(), fmt.Errorf("openrouter file completion error %d: %s", resp.StatusCode, string(body))
	}
	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", p.info(), fmt.Errorf("decode file completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", p.info(), fmt.Errorf("openrouter returned empty choices for %s", req.Operation)
	}
	return parsed.Choices[0].Message.Content, p.info(), nil
}
