package history

import (
	"doc-chat-be/internal/constant"
	"doc-chat-be/pkg/llm"
)

// DefaultLimit caps how many recent turns travel to the model.
const DefaultLimit = 10

// Turn is one stored chat message in chronological order.
type Turn struct {
	Role    string
	Content string
}

// Window maps the most recent turns into LLM messages, oldest first. Turns
// beyond the limit are dropped from the front; a limit <= 0 uses the default.
// A stored role outside the known set is a corrupt row and fails loudly.
func Window(turns []Turn, limit int) ([]llm.Message, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}

	messages := make([]llm.Message, 0, len(turns))
	for _, t := range turns {
		var role string
		switch t.Role {
		case constant.ChatMessageRoleUser:
			role = llm.RoleUser
		case constant.ChatMessageRoleAssistant:
			role = llm.RoleAssistant
		default:
			return nil, &llm.UnknownRoleError{Role: t.Role}
		}
		messages = append(messages, llm.Message{
			Role:    role,
			Content: t.Content,
		})
	}

	return messages, nil
}
