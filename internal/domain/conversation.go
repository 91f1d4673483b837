package domain

// Role tags a conversation message with its speaker.
type Role string

// Conversation roles understood by every model invoker.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged entry in a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Conversation is the mutable per-invocation message sequence fed to a
// model. It is owned exclusively by the builder task that created it
// and is discarded once the answer record is assembled.
type Conversation struct {
	messages []Message
}

// NewConversation seeds a conversation, optionally with a system
// prompt. An empty system prompt yields an empty conversation.
func NewConversation(system string) *Conversation {
	c := &Conversation{}
	if system != "" {
		c.messages = append(c.messages, Message{Role: RoleSystem, Content: system})
	}
	return c
}

// AppendUser adds a user prompt to the conversation.
func (c *Conversation) AppendUser(content string) {
	c.messages = append(c.messages, Message{Role: RoleUser, Content: content})
}

// AppendAssistant adds a model response to the conversation.
func (c *Conversation) AppendAssistant(content string) {
	c.messages = append(c.messages, Message{Role: RoleAssistant, Content: content})
}

// Messages returns the conversation so far in order. The returned
// slice is shared; callers must not mutate it.
func (c *Conversation) Messages() []Message { return c.messages }

// System returns the system prompt, or "" when the conversation has
// none.
func (c *Conversation) System() string {
	if len(c.messages) > 0 && c.messages[0].Role == RoleSystem {
		return c.messages[0].Content
	}
	return ""
}

// Len returns the number of messages, the system prompt included.
func (c *Conversation) Len() int { return len(c.messages) }
