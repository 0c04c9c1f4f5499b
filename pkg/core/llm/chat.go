package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// ChatCompletionProvider talks to any backend that speaks the OpenAI chat
// completions protocol. OpenAI, DeepSeek, Kimi and Doubao only differ in
// endpoint, key variable and default model.
type ChatCompletionProvider struct {
	Name         string
	URL          string
	APIKeyEnv    []string
	DefaultModel string
	// APIKey takes precedence over the environment.
	APIKey string
	Client *http.Client
}

var _ Provider = (*ChatCompletionProvider)(nil)

func NewOpenAIProvider() *ChatCompletionProvider {
	return &ChatCompletionProvider{
		Name:         "openai",
		URL:          "https://api.openai.com/v1/chat/completions",
		APIKeyEnv:    []string{"OPENAI_API_KEY"},
		DefaultModel: "gpt-4o-mini",
	}
}

func NewDeepSeekProvider() *ChatCompletionProvider {
	return &ChatCompletionProvider{
		Name:         "deepseek",
		URL:          "https://api.deepseek.com/chat/completions",
		APIKeyEnv:    []string{"DEEPSEEK_API_KEY"},
		DefaultModel: "deepseek-chat",
	}
}

// NewKimiProvider targets Moonshot, which is optimized for long contexts.
func NewKimiProvider() *ChatCompletionProvider {
	return &ChatCompletionProvider{
		Name:         "kimi",
		URL:          "https://api.moonshot.cn/v1/chat/completions",
		APIKeyEnv:    []string{"MOONSHOT_API_KEY", "KIMI_API_KEY"},
		DefaultModel: "moonshot-v1-32k",
	}
}

// NewDoubaoProvider targets the Volcengine Ark endpoint.
func NewDoubaoProvider() *ChatCompletionProvider {
	return &ChatCompletionProvider{
		Name:         "doubao",
		URL:          "https://ark.cn-beijing.volces.com/api/v3/chat/completions",
		APIKeyEnv:    []string{"ARK_API_KEY", "DOUBAO_API_KEY"},
		DefaultModel: "doubao-pro-32k",
	}
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
	Stream         bool            `json:"stream"`
}

type Message struct {
	Content string `json:"content"`
	Role    string `json:"role"`
}

type ResponseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (p *ChatCompletionProvider) apiKey() string {
	if p.APIKey != "" {
		return p.APIKey
	}
	for _, name := range p.APIKeyEnv {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

func (p *ChatCompletionProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, opts Options) (string, error) {
	apiKey := p.apiKey()
	if apiKey == "" {
		return "", permanent(p.Name, "API_KEY_MISSING: set %s", strings.Join(p.APIKeyEnv, " or "))
	}

	model := p.DefaultModel
	if opts.Model != "" {
		model = opts.Model
	}

	reqBody := chatRequest{
		Model:       model,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}
	if systemPrompt != "" {
		reqBody.Messages = append(reqBody.Messages, Message{Content: systemPrompt, Role: "system"})
	}
	reqBody.Messages = append(reqBody.Messages, Message{Content: prompt, Role: "user"})
	if opts.JSON {
		reqBody.ResponseFormat = &ResponseFormat{Type: "json_object"}
	}

	jsonBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", permanent(p.Name, "MARSHAL_ERROR: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(jsonBytes))
	if err != nil {
		return "", permanent(p.Name, "REQ_CREATE_ERROR: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		return "", transportError(p.Name, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", transportError(p.Name, fmt.Errorf("READ_BODY_ERROR: %w", err))
	}
	if res.StatusCode != http.StatusOK {
		return "", statusError(p.Name, res.StatusCode, body)
	}

	var response chatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", permanent(p.Name, "UNMARSHAL_ERROR: %v", err)
	}
	if response.Error != nil {
		return "", permanent(p.Name, "API_ERROR: %s", response.Error.Message)
	}
	if len(response.Choices) == 0 {
		return "", &Error{Provider: p.Name, Kind: Transient, Err: fmt.Errorf("NO_CHOICES: %s", truncate(string(body), 512))}
	}
	return response.Choices[0].Message.Content, nil
}

func (p *ChatCompletionProvider) AdaptInstructions(raw string) string {
	return raw
}
