package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Responder turns captured images into persona-voiced text.
type Responder struct {
	provider    Provider
	prompts     Prompts
	model       string
	maxTokens   int
	temperature float32
	validate    *validator.Validate
	logger      *slog.Logger
}

// ResponderOptions carries generation parameters.
type ResponderOptions struct {
	Model       string
	MaxTokens   int
	Temperature float32
}

// NewResponder creates a responder using provider for completions.
func NewResponder(log *slog.Logger, provider Provider, prompts Prompts, opts ResponderOptions) *Responder {
	if log == nil {
		log = slog.Default()
	}
	return &Responder{
		provider:    provider,
		prompts:     prompts,
		model:       opts.Model,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
		validate:    validator.New(),
		logger:      log.With(slog.String("service", "chat")),
	}
}

// Reply answers free text from a user, looking at the current image.
func (r *Responder) Reply(ctx context.Context, userText string, current []byte) (string, error) {
	r.logger.Info("reply requested", slog.String("text", userText))
	return r.complete(ctx, VisionRequest{
		Persona: r.prompts.Persona,
		Images: []CaptionedImage{
			{Caption: r.prompts.CurrentCaption, Data: current},
		},
		Instruction: r.prompts.ReplyInstruction,
		UserText:    userText,
	})
}

// DailyReport compares the previous and current images and reports growth.
func (r *Responder) DailyReport(ctx context.Context, previous, current []byte) (string, error) {
	return r.complete(ctx, VisionRequest{
		Persona: r.prompts.Persona,
		Images: []CaptionedImage{
			{Caption: r.prompts.CurrentCaption, Data: current},
			{Caption: r.prompts.PreviousCaption, Data: previous},
		},
		Instruction: r.prompts.DailyInstruction,
	})
}

func (r *Responder) complete(ctx context.Context, req VisionRequest) (string, error) {
	if r.provider == nil {
		return "", fmt.Errorf("chat provider not configured")
	}
	if err := r.validate.Struct(req); err != nil {
		return "", fmt.Errorf("invalid vision request: %w", err)
	}
	result, err := r.provider.Complete(ctx, Request{
		Messages:    BuildMessages(req),
		Model:       r.model,
		MaxTokens:   r.maxTokens,
		Temperature: r.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	text := strings.TrimSpace(result.Text)
	r.logger.Info("completion received",
		slog.String("model", result.Model),
		slog.Int("total_tokens", result.Usage.TotalTokens),
		slog.String("text", text),
	)
	return text, nil
}

// BuildMessages lays out the prompt blocks in order: persona, one block per
// image with its caption, the instruction, then the optional user text.
func BuildMessages(req VisionRequest) []Message {
	messages := make([]Message, 0, len(req.Images)+3)
	messages = append(messages, Message{Role: RoleSystem, Parts: []Part{TextPart(req.Persona)}})
	for _, img := range req.Images {
		messages = append(messages, Message{
			Role:  RoleSystem,
			Parts: []Part{TextPart(img.Caption), ImagePart(img.Data, DefaultImageMime)},
		})
	}
	messages = append(messages, Message{Role: RoleSystem, Parts: []Part{TextPart(req.Instruction)}})
	if strings.TrimSpace(req.UserText) != "" {
		messages = append(messages, Message{Role: RoleUser, Parts: []Part{TextPart(req.UserText)}})
	}
	return messages
}
