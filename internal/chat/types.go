package chat

import "context"

// Role tags a message block.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// PartType classifies a content part.
type PartType string

const (
	PartText  PartType = "text"
	PartImage PartType = "image"
)

// Part is one content element of a message.
type Part struct {
	Type  PartType
	Text  string
	Image []byte
	Mime  string
}

// TextPart builds a text part.
func TextPart(text string) Part {
	return Part{Type: PartText, Text: text}
}

// ImagePart builds an image part. An empty mime defaults to image/jpeg.
func ImagePart(data []byte, mime string) Part {
	if mime == "" {
		mime = DefaultImageMime
	}
	return Part{Type: PartImage, Image: data, Mime: mime}
}

// Message is a role-tagged list of parts.
type Message struct {
	Role  Role
	Parts []Part
}

// Request is the provider-neutral completion request.
type Request struct {
	Messages    []Message
	Model       string
	MaxTokens   int
	Temperature float32
}

// Result is the provider-neutral completion result.
type Result struct {
	Text         string
	Model        string
	FinishReason string
	Usage        Usage
}

// Usage represents token usage information
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Provider performs one synchronous completion.
type Provider interface {
	Complete(ctx context.Context, req Request) (Result, error)
}

// CaptionedImage is an image with the caption describing its temporal role.
type CaptionedImage struct {
	Caption string `validate:"required"`
	Data    []byte `validate:"required"`
}

// VisionRequest is the structured persona prompt.
type VisionRequest struct {
	Persona     string           `validate:"required"`
	Images      []CaptionedImage `validate:"min=1,max=2,dive"`
	Instruction string           `validate:"required"`
	UserText    string
}
