// Package generation describes requests to the downstream text generator
// and the contract the gateway relies on.
package generation

import (
	"context"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/aigate/backend/internal/domain/shared"
)

// Request is a single prompt forwarded to the downstream generator
type Request struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Options map[string]any `json:"options,omitempty"`
}

// Generator opens a streaming generation call.
// A returned error means no bytes were produced; the stream is closed by the caller.
type Generator interface {
	Stream(ctx context.Context, req Request) (io.ReadCloser, error)
}

// NormalizePrompt trims the prompt and checks it is non-empty and at most maxLen characters.
// A non-positive maxLen disables the length check.
func NormalizePrompt(prompt string, maxLen int) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", shared.NewDomainError(shared.CodeInvalidInput, "Prompt is required.")
	}
	if maxLen > 0 && utf8.RuneCountInString(prompt) > maxLen {
		return "", shared.NewDomainError(shared.CodeInvalidInput, "Prompt is too long.")
	}
	return prompt, nil
}
