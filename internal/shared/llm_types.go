package shared

import "time"

// TokenUsage tracks the tokens consumed by a single model call.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Model            string
}

// AgentMeta holds operational metadata for one agent execution
// (skeleton generation, slot synthesis, consolidation).
type AgentMeta struct {
	AgentName string
	Usage     TokenUsage
	Latency   time.Duration
}
