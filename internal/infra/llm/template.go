// Chat template flattening for the local engine. Llama-3 instruct models
// expect the header-token format below; the remote endpoint applies its own
// template server-side, so only ModeLocal goes through this path.
package llm

import "strings"

const (
	tokenBeginOfText = "<|begin_of_text|>"
	tokenStartHeader = "<|start_header_id|>"
	tokenEndHeader   = "<|end_header_id|>"
	tokenEndOfTurn   = "<|eot_id|>"
)

// ApplyChatTemplate converts a structured message list into a single text
// prompt, closing with an open assistant header so generation continues as
// the assistant turn.
func ApplyChatTemplate(messages []Message) string {
	var b strings.Builder
	b.WriteString(tokenBeginOfText)

	for _, m := range messages {
		writeTurn(&b, m.Role, m.Content)
	}

	// Open assistant turn: header without content or end-of-turn token.
	b.WriteString(tokenStartHeader)
	b.WriteString(RoleAssistant)
	b.WriteString(tokenEndHeader)
	b.WriteString("\n\n")

	return b.String()
}

func writeTurn(b *strings.Builder, role, content string) {
	b.WriteString(tokenStartHeader)
	b.WriteString(role)
	b.WriteString(tokenEndHeader)
	b.WriteString("\n\n")
	b.WriteString(content)
	b.WriteString(tokenEndOfTurn)
}
