package domain

import "time"

// Role identifies who produced a conversation turn.
type Role string

// Conversation roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single message in a conversation.
type Turn struct {
	// Role is who produced the turn.
	Role Role `json:"role"`

	// Content is the message text.
	Content string `json:"content"`

	// CreatedAt is when the turn was appended.
	CreatedAt time.Time `json:"created_at"`

	// Steps records the reasoning chain behind an assistant turn.
	Steps []StepRecord `json:"steps,omitempty"`

	// Sources records the grounding passages behind an assistant turn.
	Sources []Source `json:"sources,omitempty"`
}

// Conversation is an ordered sequence of turns.
type Conversation struct {
	ID    string
	Turns []Turn
}

// RecentTurns returns at most limit turns from the end of turns.
// A non-positive limit returns all turns.
func RecentTurns(turns []Turn, limit int) []Turn {
	if limit <= 0 || len(turns) <= limit {
		return turns
	}
	return turns[len(turns)-limit:]
}
