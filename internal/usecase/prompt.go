package usecase

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

type PromptKind uint8

const (
	PromptPlainText PromptKind = iota
	PromptStructured
)

// Prompt is either free text or a structured JSON object. Stored as JSON:
// a string for plain text, an object for structured prompts.
type Prompt struct {
	kind   PromptKind
	text   string
	fields map[string]any
}

func PlainText(s string) Prompt {
	return Prompt{kind: PromptPlainText, text: s}
}

func Structured(fields map[string]any) Prompt {
	return Prompt{kind: PromptStructured, fields: fields}
}

// ParsePrompt accepts user input that is either a JSON object or plain text.
func ParsePrompt(raw string) Prompt {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") {
		var fields map[string]any
		if err := json.Unmarshal([]byte(trimmed), &fields); err == nil {
			return Structured(fields)
		}
	}
	return PlainText(trimmed)
}

func (p Prompt) Kind() PromptKind {
	return p.kind
}

func (p Prompt) Text() (string, bool) {
	return p.text, p.kind == PromptPlainText
}

func (p Prompt) Fields() (map[string]any, bool) {
	return p.fields, p.kind == PromptStructured
}

func (p Prompt) IsZero() bool {
	switch p.kind {
	case PromptStructured:
		return len(p.fields) == 0
	default:
		return strings.TrimSpace(p.text) == ""
	}
}

// String renders the prompt the way it is sent to the generator.
func (p Prompt) String() string {
	if p.kind == PromptPlainText {
		return p.text
	}
	b, err := json.Marshal(p.fields)
	if err != nil {
		return ""
	}
	return string(b)
}

func (p Prompt) MarshalJSON() ([]byte, error) {
	if p.kind == PromptStructured {
		if p.fields == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(p.fields)
	}
	return json.Marshal(p.text)
}

func (p *Prompt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*p = Prompt{}
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = PlainText(s)
		return nil
	case b[0] == '{':
		var fields map[string]any
		if err := json.Unmarshal(b, &fields); err != nil {
			return err
		}
		*p = Structured(fields)
		return nil
	}
	return errors.New("prompt must be a string or an object")
}
