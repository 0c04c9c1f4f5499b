package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	legacy "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GeminiLegacyProvider calls Gemini through the older generative-ai-go
// SDK. It stays available for accounts still pinned to that client.
type GeminiLegacyProvider struct {
	Model  string
	APIKey string
}

var _ Provider = (*GeminiLegacyProvider)(nil)

func (p *GeminiLegacyProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, opts Options) (string, error) {
	apiKey := p.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return "", permanent("gemini-legacy", "GEMINI_API_KEY environment variable not set")
	}

	client, err := legacy.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", permanent("gemini-legacy", "failed to create client: %v", err)
	}
	defer client.Close()

	name := p.Model
	if opts.Model != "" {
		name = opts.Model
	}
	if name == "" {
		name = "gemini-1.5-flash"
	}
	model := client.GenerativeModel(name)
	model.SetTemperature(float32(opts.Temperature))
	if opts.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(opts.MaxTokens))
	}
	if opts.JSON {
		model.ResponseMIMEType = "application/json"
	}
	if systemPrompt != "" {
		model.SystemInstruction = &legacy.Content{Parts: []legacy.Part{legacy.Text(systemPrompt)}}
	}

	resp, err := model.GenerateContent(ctx, legacy.Text(prompt))
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			return "", &Error{Provider: "gemini-legacy", Kind: StatusKind(gerr.Code), StatusCode: gerr.Code, Err: err}
		}
		return "", transportError("gemini-legacy", err)
	}

	var sb strings.Builder
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if txt, ok := part.(legacy.Text); ok {
				sb.WriteString(string(txt))
			}
		}
	}
	if sb.Len() == 0 {
		return "", &Error{Provider: "gemini-legacy", Kind: Transient, Err: fmt.Errorf("empty candidate")}
	}
	return sb.String(), nil
}

func (p *GeminiLegacyProvider) AdaptInstructions(raw string) string {
	return raw
}
