// Package llm provides chat-completion clients for claim extraction and
// coverage judgment.
package llm

import "context"

// Message is a single chat message. Role is "system", "user", or "assistant".
type Message struct {
	Role    string
	Content string
}

// Options configures a chat call.
type Options struct {
	// Temperature controls randomness; 0 is deterministic.
	Temperature float64
	// MaxTokens caps the response length; 0 means provider default.
	MaxTokens int
	// JSONMode asks the provider for a JSON-only response where supported.
	JSONMode bool
}

// Client is a chat-completion provider.
type Client interface {
	Chat(ctx context.Context, messages []Message, opts Options) (string, error)
	ModelName() string
	Ping(ctx context.Context) error
	Close() error
}
