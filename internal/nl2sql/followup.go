package nl2sql

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/askdesk/askdesk/internal/conversation"
	"github.com/askdesk/askdesk/internal/llm"
	"github.com/askdesk/askdesk/internal/sqltext"
)

const (
	classifyMaxTokens = 10
	adaptMaxTokens    = 150
)

// FollowUpClassifier decides whether a new question continues the previous
// query/result exchange.
type FollowUpClassifier struct {
	client llm.Client
}

func NewFollowUpClassifier(client llm.Client) *FollowUpClassifier {
	return &FollowUpClassifier{client: client}
}

// IsFollowUp returns true only when the trimmed, lower-cased model reply is
// exactly "yes". "Yes." or "yes, it is" count as no.
func (c *FollowUpClassifier) IsFollowUp(ctx context.Context, prior conversation.QueryMetadata, question string) (bool, error) {
	prompt := fmt.Sprintf(`The user previously asked: %q
And received the result: %s

Now they have asked: %q

Is the new question a follow-up to the previous one? Answer "yes" or "no".`,
		prior.SQL, renderRows(prior.Result), question)

	response, err := c.client.Complete(ctx, []llm.Message{
		llm.SystemMessage("You are a language understanding assistant."),
		llm.UserMessage(prompt),
	}, classifyMaxTokens)
	if err != nil {
		return false, err
	}
	return strings.ToLower(strings.TrimSpace(response)) == "yes", nil
}

// FollowUpAdapter rewrites the previous SQL statement to answer a follow-up
// question, then sanitizes the candidate before it may be executed.
type FollowUpAdapter struct {
	client llm.Client
	logger *slog.Logger
}

func NewFollowUpAdapter(client llm.Client, logger *slog.Logger) *FollowUpAdapter {
	return &FollowUpAdapter{client: client, logger: logger}
}

func (a *FollowUpAdapter) Adapt(ctx context.Context, prior conversation.QueryMetadata, question string) (string, error) {
	prompt := fmt.Sprintf(`The user previously asked a question that resulted in this SQL query: %q
and this result: %s

Now they have asked: %q

The input query may be in Arabic or English, but the SQL query must always:
- Use English table and column names as specified in the schema.
- Be valid for CockroachDB.

If the follow-up relates to employees, ensure the query shows meaningful results like FirstName and LastName.
Join tables if necessary to provide complete information.

Generate an adapted SQL query based on the following database schema:
%s

%s

Return only the SQL query without any additional text or explanations.`,
		prior.SQL, renderRows(prior.Result), question, schemaText, formattingRules)

	response, err := a.client.Complete(ctx, []llm.Message{
		llm.SystemMessage(sqlExpertSystemPrompt),
		llm.UserMessage(prompt),
	}, adaptMaxTokens)
	if err != nil {
		return "", err
	}

	// Unlike the interpreter path, the two fence markers are stripped
	// independently of each other.
	candidate := sqltext.StripFenceMarkers(response)
	a.logger.DebugContext(ctx, "follow_up_sql_candidate", slog.String("sql", candidate))

	validated, err := sqltext.Validate(candidate)
	if err != nil {
		return "", err
	}
	return sqltext.EnsureSemicolon(validated), nil
}
