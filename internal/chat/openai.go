package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 60 * time.Second

// OpenAIProvider talks to an OpenAI-compatible chat completions endpoint.
// In Azure mode the deployment is addressed by path and authenticated with
// the api-key header; otherwise base URL + bearer token are used.
type OpenAIProvider struct {
	apiKey     string
	endpoint   string
	azure      bool
	httpClient *http.Client
}

// NewOpenAIProvider creates a client for api.openai.com-style endpoints.
func NewOpenAIProvider(apiKey, baseURL string, httpClient *http.Client) *OpenAIProvider {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAIProvider{
		apiKey:     apiKey,
		endpoint:   strings.TrimRight(baseURL, "/") + "/chat/completions",
		httpClient: orDefaultClient(httpClient),
	}
}

// NewAzureProvider creates a client for an Azure OpenAI deployment.
func NewAzureProvider(apiKey, endpoint, deployment, apiVersion string, httpClient *http.Client) *OpenAIProvider {
	u := strings.TrimRight(endpoint, "/") + "/openai/deployments/" + url.PathEscape(deployment) + "/chat/completions"
	if apiVersion != "" {
		u += "?api-version=" + url.QueryEscape(apiVersion)
	}
	return &OpenAIProvider{
		apiKey:     apiKey,
		endpoint:   u,
		azure:      true,
		httpClient: orDefaultClient(httpClient),
	}
}

func orDefaultClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{Timeout: defaultTimeout}
}

type openAIRequest struct {
	Model       string          `json:"model,omitempty"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float32         `json:"temperature"`
}

type openAIMessage struct {
	Role    string          `json:"role"`
	Content []openAIContent `json:"content"`
}

type openAIContent struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIImageURL struct {
	URL string `json:"url"`
}

type openAIResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

func toOpenAIMessages(messages []Message) []openAIMessage {
	out := make([]openAIMessage, 0, len(messages))
	for _, msg := range messages {
		content := make([]openAIContent, 0, len(msg.Parts))
		for _, part := range msg.Parts {
			switch part.Type {
			case PartImage:
				content = append(content, openAIContent{
					Type:     "image_url",
					ImageURL: &openAIImageURL{URL: DataURL(part.Mime, part.Image)},
				})
			default:
				content = append(content, openAIContent{Type: "text", Text: part.Text})
			}
		}
		out = append(out, openAIMessage{Role: string(msg.Role), Content: content})
	}
	return out
}

// Complete sends one chat completion request.
func (p *OpenAIProvider) Complete(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(p.apiKey) == "" {
		return Result{}, fmt.Errorf("chat api key is not configured")
	}
	body, err := json.Marshal(openAIRequest{
		Model:       req.Model,
		Messages:    toOpenAIMessages(req.Messages),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return Result{}, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.azure {
		httpReq.Header.Set("api-key", p.apiKey)
	} else {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Result{}, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Result{}, fmt.Errorf("decoding response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return Result{}, fmt.Errorf("response has no choices")
	}
	return Result{
		Text:         parsed.Choices[0].Message.Content,
		Model:        parsed.Model,
		FinishReason: parsed.Choices[0].FinishReason,
		Usage:        parsed.Usage,
	}, nil
}
