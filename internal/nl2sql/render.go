package nl2sql

import (
	"encoding/json"
	"strings"

	"github.com/askdesk/askdesk/internal/conversation"
	"github.com/askdesk/askdesk/internal/dbexec"
)

// renderRows serializes result rows for prompt embedding, keeping the column
// order the database reported.
func renderRows(result dbexec.Result) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, row := range result.Rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('{')
		for j, column := range result.Columns {
			if j > 0 {
				b.WriteString(", ")
			}
			writeJSONValue(&b, column)
			b.WriteString(": ")
			writeJSONValue(&b, row[column])
		}
		b.WriteByte('}')
	}
	b.WriteByte(']')
	return b.String()
}

// renderState serializes the whole conversation record. The beautifier prompt
// receives the full state, not just the message history.
func renderState(state conversation.State) string {
	raw, err := json.Marshal(state)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

func writeJSONValue(b *strings.Builder, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		b.WriteString("null")
		return
	}
	b.Write(raw)
}
