package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
)

const dashScopeURL = "https://dashscope.aliyuncs.com/api/v1/services/aigc/text-generation/generation"

// QwenProvider uses the native DashScope generation API.
type QwenProvider struct {
	URL    string
	APIKey string
	Model  string
	Client *http.Client
}

var _ Provider = (*QwenProvider)(nil)

func (p *QwenProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, opts Options) (string, error) {
	apiKey := p.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("DASHSCOPE_API_KEY")
	}
	// Fallback to QWEN_API_KEY if DASHSCOPE_API_KEY is not set
	if apiKey == "" {
		apiKey = os.Getenv("QWEN_API_KEY")
	}
	if apiKey == "" {
		return "", permanent("qwen", "API_KEY_MISSING: set DASHSCOPE_API_KEY or QWEN_API_KEY")
	}

	model := p.Model
	if opts.Model != "" {
		model = opts.Model
	}
	if model == "" {
		model = "qwen-max"
	}

	parameters := map[string]any{
		"result_format": "message",
		"temperature":   opts.Temperature,
	}
	if opts.MaxTokens > 0 {
		parameters["max_tokens"] = opts.MaxTokens
	}
	if opts.JSON {
		parameters["response_format"] = map[string]string{"type": "json_object"}
	}
	messages := []map[string]string{}
	if systemPrompt != "" {
		messages = append(messages, map[string]string{"role": "system", "content": systemPrompt})
	}
	messages = append(messages, map[string]string{"role": "user", "content": prompt})

	jsonBody, err := json.Marshal(map[string]any{
		"model":      model,
		"input":      map[string]any{"messages": messages},
		"parameters": parameters,
	})
	if err != nil {
		return "", permanent("qwen", "failed to marshal request: %v", err)
	}

	url := p.URL
	if url == "" {
		url = dashScopeURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", permanent("qwen", "failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", transportError("qwen", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", statusError("qwen", resp.StatusCode, bodyBytes)
	}

	var result struct {
		Output struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
			// some endpoints return the text directly
			Text string `json:"text"`
		} `json:"output"`
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", transportError("qwen", fmt.Errorf("failed to decode response: %w", err))
	}
	if result.Code != "" {
		return "", permanent("qwen", "%s - %s", result.Code, result.Message)
	}

	if len(result.Output.Choices) > 0 {
		return result.Output.Choices[0].Message.Content, nil
	}
	if result.Output.Text != "" {
		return result.Output.Text, nil
	}
	return "", &Error{Provider: "qwen", Kind: Transient, Err: fmt.Errorf("empty response")}
}

func (p *QwenProvider) AdaptInstructions(raw string) string {
	return raw
}
