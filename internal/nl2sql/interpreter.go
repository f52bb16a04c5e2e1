package nl2sql

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/askdesk/askdesk/internal/conversation"
	"github.com/askdesk/askdesk/internal/llm"
	"github.com/askdesk/askdesk/internal/sqltext"
)

const interpretMaxTokens = 120

// Interpreter asks the model to produce either a SQL statement or a direct
// natural-language answer for a question. The caller classifies the output
// with sqltext.IsStatement.
type Interpreter struct {
	client llm.Client
	logger *slog.Logger
}

func NewInterpreter(client llm.Client, logger *slog.Logger) *Interpreter {
	return &Interpreter{client: client, logger: logger}
}

func (i *Interpreter) Interpret(ctx context.Context, question string, history []conversation.Message) (string, error) {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.SystemMessage(interpreterSystemPrompt(question)))
	for _, turn := range history {
		messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, llm.UserMessage(question))

	response, err := i.client.Complete(ctx, messages, interpretMaxTokens)
	if err != nil {
		return "", err
	}

	// Strip a matched ```sql ... ``` pair only; unmatched markers pass through.
	cleaned := sqltext.StripFencePair(response)
	i.logger.DebugContext(ctx, "interpreter_response",
		slog.Bool("is_sql", sqltext.IsStatement(cleaned)),
		slog.Int("length", len(cleaned)),
	)
	return cleaned, nil
}

func interpreterSystemPrompt(question string) string {
	return fmt.Sprintf(`You are an intelligent assistant capable of processing both database-related queries and general questions.

- If the query is related to the database schema below, generate an SQL query that answers the question.
Return only the SQL query without any additional text or explanation.
Ensure that all column names, table names, and string values in the SQL query are in English, even if the input query is in Arabic.
- Important: Use current_date (without parentheses) for date-related queries instead of CURDATE() or NOW(), as the database is CockroachDB.

- If the query is NOT related to the database schema, provide a direct and concise natural language response to the query without any additional context, background information, or elaboration.

Database Schema:
%s

%s

Return only the SQL query without any additional text or explanations.

Query: %q`, schemaText, formattingRules, question)
}
