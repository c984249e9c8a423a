package llm

import (
	"context"
	"fmt"
	"sync"
)

// ScriptedClient replays canned responses in order. It backs tests for the
// claim extraction and judgment prompts without a live provider.
type ScriptedClient struct {
	mu        sync.Mutex
	responses []string
	calls     [][]Message
	err       error
}

// NewScriptedClient returns a client that replies with responses in order.
func NewScriptedClient(responses ...string) *ScriptedClient {
	return &ScriptedClient{responses: responses}
}

// NewFailingClient returns a client whose Chat always fails with err.
func NewFailingClient(err error) *ScriptedClient {
	return &ScriptedClient{err: err}
}

// Chat records the messages and returns the next scripted response.
func (c *ScriptedClient) Chat(ctx context.Context, messages []Message, opts Options) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, messages)
	if c.err != nil {
		return "", c.err
	}
	if len(c.responses) == 0 {
		return "", fmt.Errorf("scripted client exhausted after %d calls", len(c.calls))
	}
	resp := c.responses[0]
	c.responses = c.responses[1:]
	return resp, nil
}

// Calls returns the message sets passed to Chat so far.
func (c *ScriptedClient) Calls() [][]Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]Message, len(c.calls))
	copy(out, c.calls)
	return out
}

// ModelName identifies the fake.
func (c *ScriptedClient) ModelName() string {
	return "scripted"
}

// Ping always succeeds.
func (c *ScriptedClient) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (c *ScriptedClient) Close() error {
	return nil
}
