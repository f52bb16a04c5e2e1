// Package conversation holds the per-user chat state and its storage backends.
package conversation

import (
	"context"

	"github.com/askdesk/askdesk/internal/dbexec"
)

// DefaultUserID is used when a request does not name a user.
const DefaultUserID = "default"

// Message is one natural-language turn kept in the conversation history.
// Only the non-SQL branch accumulates messages; SQL turns are tracked solely
// through QueryMetadata.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// QueryMetadata records the most recently executed SQL statement and its
// result. It is replaced wholesale after each successful execution.
type QueryMetadata struct {
	SQL    string        `json:"sql"`
	Result dbexec.Result `json:"result"`
}

// State is the full conversation record for one user.
type State struct {
	Messages  []Message      `json:"messages"`
	LastQuery *QueryMetadata `json:"last_query,omitempty"`
}

// Store persists conversation state keyed by user identifier. Get returns a
// zero-value State for users that have no history yet.
type Store interface {
	Get(ctx context.Context, userID string) (State, error)
	Put(ctx context.Context, userID string, state State) error
}
