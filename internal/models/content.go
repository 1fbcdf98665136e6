package models

import "time"

// AIRequestKind distinguishes the two upstream call shapes for caching,
// quota and cost accounting.
type AIRequestKind string

const (
	KindExplanation AIRequestKind = "EXPLANATION"
	KindChatTurn    AIRequestKind = "CHAT_TURN"
)

// ContentSource records which tier produced the content. Internal metric
// only; it is never serialized to API responses, so callers cannot tell a
// fallback response from a real one.
type ContentSource string

const (
	SourceAI       ContentSource = "ai"
	SourceFallback ContentSource = "fallback"
)

// Content is the shape both the AI path and the fallback generator produce.
// Chat turns fill only Summary; explanations fill all sections.
type Content struct {
	Summary         string   `json:"summary"`
	Strengths       []string `json:"strengths,omitempty"`
	Cautions        []string `json:"cautions,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`

	Source ContentSource `json:"-"`
}

type TurnRole string

const (
	RoleUser      TurnRole = "user"
	RoleAssistant TurnRole = "assistant"
)

type Turn struct {
	Role TurnRole  `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Transcript is a chat conversation stored in the cache layer. Only the most
// recent turns are retained; older turns are dropped, not summarized.
type Transcript struct {
	ConversationID string `json:"conversation_id"`
	ProgramID      string `json:"program_id"`
	ProfileHash    string `json:"profile_hash"`
	Turns          []Turn `json:"turns"`
}
