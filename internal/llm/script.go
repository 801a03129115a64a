package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// ScriptedGenerator is a deterministic Generator used in tests and dry
// runs. Responses are matched by substring against the prompt; unmatched
// prompts get the default response. An optional failure budget makes the
// first N calls fail, for exercising retry paths.
type ScriptedGenerator struct {
	mu sync.Mutex

	// responses maps a prompt substring to a canned response.
	responses map[string]string
	// defaultResponse is returned when nothing matches.
	defaultResponse string
	// failuresLeft makes the next N calls return an error.
	failuresLeft int
	// calls counts every Generate invocation.
	calls int
}

// NewScriptedGenerator creates a scripted generator with the given
// default response.
func NewScriptedGenerator(defaultResponse string) *ScriptedGenerator {
	return &ScriptedGenerator{
		responses:       make(map[string]string),
		defaultResponse: defaultResponse,
	}
}

// Respond registers a canned response for prompts containing the substring.
func (g *ScriptedGenerator) Respond(promptSubstring, response string) *ScriptedGenerator {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.responses[promptSubstring] = response
	return g
}

// FailNext makes the next n Generate calls fail.
func (g *ScriptedGenerator) FailNext(n int) *ScriptedGenerator {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failuresLeft = n
	return g
}

// Calls returns how many times Generate was invoked.
func (g *ScriptedGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// Generate implements Generator.
func (g *ScriptedGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls++
	if g.failuresLeft > 0 {
		g.failuresLeft--
		return "", fmt.Errorf("%w: scripted failure", ErrGeneration)
	}

	for substr, resp := range g.responses {
		if substr != "" && strings.Contains(req.Prompt, substr) {
			return resp, nil
		}
	}
	return g.defaultResponse, nil
}
