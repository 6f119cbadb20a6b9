package botpost

import (
	"fmt"
	"strings"

	"github.com/sobot-ai/sobot/internal/infra/llm"
)

// PromptName identifies the post-generation prompt version in trace records.
const PromptName = "bot_posts_v1"

// PromptBuilder turns recent board posts into the chat messages sent to the
// model. The persona shapes the system message.
type PromptBuilder struct {
	persona Persona
}

// NewPromptBuilder creates a builder for the given persona.
func NewPromptBuilder(persona Persona) *PromptBuilder {
	return &PromptBuilder{persona: persona}
}

// Build returns the prompt name and the message list for a post-generation
// request. Posts are presented oldest first, matching the request order.
func (b *PromptBuilder) Build(boardType string, posts []Post) (string, []llm.Message) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Here are the %d most recent posts on the %q board:\n\n", len(posts), boardType)
	for i, p := range posts {
		if p.Title != "" {
			fmt.Fprintf(&sb, "%d. [%s] %s\n", i+1, p.Title, p.Content)
		} else {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, p.Content)
		}
	}
	sb.WriteString("\nWrite one new post that fits this board. Reply with the post text only.")

	system := fmt.Sprintf(
		"You are %s, a social bot posting on a community board. %s Your tone is %s. "+
			"Write in the same language as the recent posts.",
		b.persona.Nickname, b.persona.Bio, b.persona.Tone,
	)

	return PromptName, []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: sb.String()},
	}
}
