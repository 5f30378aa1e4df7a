package chat

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAzureProviderRequest(t *testing.T) {
	t.Parallel()

	var gotPath, gotQuery, gotKey string
	var gotBody openAIRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("api-version")
		gotKey = r.Header.Get("api-key")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"model":"gpt-4o","choices":[{"message":{"content":"やあ"},"finish_reason":"stop"}],"usage":{"total_tokens":42}}`)
	}))
	defer srv.Close()

	p := NewAzureProvider("secret", srv.URL+"/", "local", "2024-06-01", srv.Client())
	res, err := p.Complete(context.Background(), Request{
		Messages: []Message{
			{Role: RoleSystem, Parts: []Part{TextPart("persona")}},
			{Role: RoleSystem, Parts: []Part{TextPart("caption"), ImagePart([]byte("abc"), "")}},
		},
		MaxTokens:   4096,
		Temperature: 0.7,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if res.Text != "やあ" || res.Usage.TotalTokens != 42 || res.FinishReason != "stop" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if gotPath != "/openai/deployments/local/chat/completions" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotQuery != "2024-06-01" || gotKey != "secret" {
		t.Fatalf("query=%q key=%q", gotQuery, gotKey)
	}
	if gotBody.MaxTokens != 4096 || len(gotBody.Messages) != 2 {
		t.Fatalf("unexpected body: %+v", gotBody)
	}
	img := gotBody.Messages[1].Content[1]
	if img.Type != "image_url" || img.ImageURL == nil || img.ImageURL.URL != "data:image/jpeg;base64,YWJj" {
		t.Fatalf("unexpected image content: %+v", img)
	}
}

func TestOpenAIProviderBearerAndErrors(t *testing.T) {
	t.Parallel()

	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		http.Error(w, `{"error":"overloaded"}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewOpenAIProvider("sk-test", srv.URL+"/v1", srv.Client())
	_, err := p.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Parts: []Part{TextPart("hi")}}}})
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("expected status error, got %v", err)
	}
	if auth != "Bearer sk-test" {
		t.Fatalf("Authorization = %q", auth)
	}
}

func TestProviderRequiresAPIKey(t *testing.T) {
	t.Parallel()

	p := NewOpenAIProvider("", "", nil)
	if _, err := p.Complete(context.Background(), Request{}); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestGeminiContentsSplit(t *testing.T) {
	t.Parallel()

	msgs := BuildMessages(VisionRequest{
		Persona:     "persona",
		Images:      []CaptionedImage{{Caption: "now", Data: []byte("img")}},
		Instruction: "reply",
		UserText:    "hello",
	})
	system, contents := toGeminiContents(msgs)
	if system == nil || len(system.Parts) != 2 {
		t.Fatalf("expected persona and instruction in system, got %+v", system)
	}
	if system.Parts[0].Text != "persona" || system.Parts[1].Text != "reply" {
		t.Fatalf("unexpected system parts")
	}
	if len(contents) != 1 || len(contents[0].Parts) != 3 {
		t.Fatalf("unexpected user contents: %+v", contents)
	}
	if contents[0].Parts[1].InlineData == nil || string(contents[0].Parts[1].InlineData.Data) != "img" {
		t.Fatalf("image part missing")
	}
	if contents[0].Parts[2].Text != "hello" {
		t.Fatalf("user text missing")
	}
}

func TestGeminiProviderMissingKeyFailsOnUse(t *testing.T) {
	t.Parallel()

	p := NewGeminiProvider("  ", "gemini-2.5-flash")
	_, err := p.Complete(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Parts: []Part{TextPart("hi")}}},
	})
	if err == nil || !strings.Contains(err.Error(), "api key") {
		t.Fatalf("expected missing key error, got %v", err)
	}
}
