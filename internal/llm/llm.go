// Package llm provides the text-generation capability used by agents.
// The orchestration core never interprets generated text; it only forwards
// it as task output.
package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrGeneration indicates all generation attempts were exhausted. Wrapped
// errors carry the final underlying cause.
var ErrGeneration = errors.New("generation failed")

// Request describes one generation call.
type Request struct {
	// Prompt is the user prompt.
	Prompt string
	// SystemPrompt is the optional system message.
	SystemPrompt string
	// Context is optional key/value context appended to the prompt.
	Context map[string]string
	// Model overrides the client's primary model when set.
	Model string
	// MaxTokens bounds the response length; zero uses the client default.
	MaxTokens int64
}

// renderPrompt folds the context map into the prompt in a stable order.
func (r Request) renderPrompt() string {
	if len(r.Context) == 0 {
		return r.Prompt
	}

	keys := make([]string, 0, len(r.Context))
	for k := range r.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(r.Prompt)
	b.WriteString("\n\nContext:\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %s\n", k, r.Context[k])
	}
	return b.String()
}

// Generator is the external text-generation capability contract.
type Generator interface {
	// Generate produces text for the request, retrying transient failures
	// internally. It fails with an error wrapping ErrGeneration once the
	// bounded retry budget is exhausted.
	Generate(ctx context.Context, req Request) (string, error)
}
