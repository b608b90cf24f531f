package llm

import (
	"context"
	"sync"
)

// ScriptedOracle replays a fixed queue of completions. It exists for tests
// and offline demos where no model endpoint is available; once the script is
// exhausted it keeps returning the configured fallback.
type ScriptedOracle struct {
	mu       sync.Mutex
	script   []string
	next     int
	fallback string
	prompts  []string
}

// NewScriptedOracle creates an oracle that answers with the given completions
// in order.
func NewScriptedOracle(completions ...string) *ScriptedOracle {
	return &ScriptedOracle{script: completions}
}

// WithFallback sets the completion returned after the script runs out.
func (s *ScriptedOracle) WithFallback(fallback string) *ScriptedOracle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallback = fallback
	return s
}

// Complete returns the next scripted completion.
func (s *ScriptedOracle) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	if s.next >= len(s.script) {
		return s.fallback, nil
	}
	completion := s.script[s.next]
	s.next++
	return completion, nil
}

// Prompts returns every prompt seen so far, in order.
func (s *ScriptedOracle) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	prompts := make([]string, len(s.prompts))
	copy(prompts, s.prompts)
	return prompts
}

// CallCount returns the number of Complete invocations.
func (s *ScriptedOracle) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}
