package nl2sql

import (
	"context"
	"fmt"
	"strings"

	"github.com/askdesk/askdesk/internal/conversation"
	"github.com/askdesk/askdesk/internal/dbexec"
	"github.com/askdesk/askdesk/internal/lang"
	"github.com/askdesk/askdesk/internal/llm"
)

const beautifyMaxTokens = 200

// Beautifier turns raw result rows into a conversational answer in the
// language the question was asked in.
type Beautifier struct {
	client llm.Client
}

func NewBeautifier(client llm.Client) *Beautifier {
	return &Beautifier{client: client}
}

func (b *Beautifier) Beautify(ctx context.Context, result dbexec.Result, question string, language lang.Language, state conversation.State) (string, error) {
	target := "English"
	if language == lang.Arabic {
		target = "Arabic"
	}

	prompt := fmt.Sprintf(`You are an intelligent assistant tasked with generating contextually enriched and human-like responses.
A user has asked the following question: %q
The database returned the following raw data: %s

Previous context from the conversation: %s

Please provide a concise and clear response to the user in %s that:
- Explains the results in an easy-to-read conversational style.
- Includes any necessary details without verbosity.`,
		question, renderRows(result), renderState(state), target)

	response, err := b.client.Complete(ctx, []llm.Message{
		llm.SystemMessage(sqlExpertSystemPrompt),
		llm.UserMessage(prompt),
	}, beautifyMaxTokens)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(response), nil
}
