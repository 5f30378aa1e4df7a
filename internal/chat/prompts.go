package chat

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Prompts holds the fixed persona texts.
type Prompts struct {
	Persona          string `yaml:"persona"`
	CurrentCaption   string `yaml:"current_caption"`
	PreviousCaption  string `yaml:"previous_caption"`
	ReplyInstruction string `yaml:"reply_instruction"`
	DailyInstruction string `yaml:"daily_instruction"`
}

// DefaultPrompts returns the built-in bean sprout persona.
func DefaultPrompts() Prompts {
	return Prompts{
		Persona:          "あなたは豆苗を擬人化したキャラクターです。性格は元気で前向きなです。",
		CurrentCaption:   "この写真は直近のあなたです。",
		PreviousCaption:  "この写真は6時間前のあなたです。",
		ReplyInstruction: "ユーザーからのテキストに返信してください",
		DailyInstruction: "昨日に比べて成長したところをユーザーに報告しましょう！",
	}
}

// LoadPrompts overlays a YAML file on the defaults. Fields missing from the
// file keep their default value; an empty path returns the defaults.
func LoadPrompts(path string) (Prompts, error) {
	prompts := DefaultPrompts()
	if strings.TrimSpace(path) == "" {
		return prompts, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return prompts, fmt.Errorf("read prompts: %w", err)
	}
	var override Prompts
	if err := yaml.Unmarshal(data, &override); err != nil {
		return prompts, fmt.Errorf("decode prompts %s: %w", path, err)
	}
	overlay(&prompts.Persona, override.Persona)
	overlay(&prompts.CurrentCaption, override.CurrentCaption)
	overlay(&prompts.PreviousCaption, override.PreviousCaption)
	overlay(&prompts.ReplyInstruction, override.ReplyInstruction)
	overlay(&prompts.DailyInstruction, override.DailyInstruction)
	return prompts, nil
}

func overlay(dst *string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		*dst = v
	}
}
