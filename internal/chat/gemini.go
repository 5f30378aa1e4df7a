package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"
)

// GeminiProvider calls the Gemini API. System blocks without images form the
// system instruction; captioned images and user text go into one user turn,
// since Gemini only accepts text in system instructions.
type GeminiProvider struct {
	apiKey string
	model  string

	mu     sync.Mutex
	client *genai.Client
}

// NewGeminiProvider creates a Gemini provider for the given model. The API
// client is created on first use, so a missing key surfaces from Complete.
func NewGeminiProvider(apiKey, model string) *GeminiProvider {
	return &GeminiProvider{apiKey: strings.TrimSpace(apiKey), model: model}
}

func (p *GeminiProvider) genaiClient(ctx context.Context) (*genai.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		return p.client, nil
	}
	if p.apiKey == "" {
		return nil, fmt.Errorf("gemini api key is not configured")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	p.client = client
	return client, nil
}

// Complete generates content for the request.
func (p *GeminiProvider) Complete(ctx context.Context, req Request) (Result, error) {
	client, err := p.genaiClient(ctx)
	if err != nil {
		return Result{}, err
	}
	model := req.Model
	if model == "" {
		model = p.model
	}
	system, contents := toGeminiContents(req.Messages)
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if system != nil {
		cfg.SystemInstruction = system
	}
	resp, err := client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return Result{}, fmt.Errorf("gemini generate: %w", err)
	}
	result := Result{Text: resp.Text(), Model: model}
	if resp.UsageMetadata != nil {
		result.Usage = Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return result, nil
}

func toGeminiContents(messages []Message) (*genai.Content, []*genai.Content) {
	var systemParts []*genai.Part
	var userParts []*genai.Part
	for _, msg := range messages {
		hasImage := false
		for _, part := range msg.Parts {
			if part.Type == PartImage {
				hasImage = true
				break
			}
		}
		for _, part := range msg.Parts {
			var gp *genai.Part
			if part.Type == PartImage {
				gp = genai.NewPartFromBytes(part.Image, part.Mime)
			} else {
				gp = genai.NewPartFromText(part.Text)
			}
			if msg.Role == RoleSystem && !hasImage {
				systemParts = append(systemParts, gp)
			} else {
				userParts = append(userParts, gp)
			}
		}
	}
	var system *genai.Content
	if len(systemParts) > 0 {
		system = &genai.Content{Parts: systemParts}
	}
	return system, []*genai.Content{genai.NewContentFromParts(userParts, genai.RoleUser)}
}
