// Package llm wraps the external chat-completion API behind a minimal client
// interface: an ordered list of role-tagged messages in, generated text out.
package llm

import (
	"context"
	"fmt"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged turn of a prompt.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client performs a single synchronous completion round trip. Failures are
// reported as UpstreamError and are never retried here.
type Client interface {
	Complete(ctx context.Context, messages []Message, maxTokens int) (string, error)
}

// UpstreamError wraps any transport or API failure from the completion service.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("llm completion failed: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}
