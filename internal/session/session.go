package session

import (
	"sync"
	"time"

	"fin-agents/internal/llm"
	"fin-agents/internal/statement"
)

// Role names the author of a transcript turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one displayed chat message.
type Turn struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Conversation is the locally held handle for a remote chat. History keeps
// only exchanges the service answered successfully and is replayed on every
// send.
type Conversation struct {
	ID                string
	Model             string
	SystemInstruction string
	History           []llm.Message
	CreatedAt         time.Time
}

// Window returns the last n history messages, or all of them when n <= 0.
// The window never starts on an assistant message.
func (c *Conversation) Window(n int) []llm.Message {
	h := c.History
	if n > 0 && len(h) > n {
		h = h[len(h)-n:]
	}
	for len(h) > 0 && h[0].Role == llm.RoleAssistant {
		h = h[1:]
	}
	out := make([]llm.Message, len(h))
	copy(out, h)
	return out
}

// AddExchange records a successful request/reply pair, keeping at most limit
// messages when limit > 0.
func (c *Conversation) AddExchange(user, reply string, limit int) {
	c.History = append(c.History,
		llm.Message{Role: llm.RoleUser, Text: user},
		llm.Message{Role: llm.RoleAssistant, Text: reply},
	)
	if limit > 0 && len(c.History) > limit {
		drop := len(c.History) - limit
		if drop%2 == 1 {
			drop++
		}
		c.History = append([]llm.Message(nil), c.History[drop:]...)
	}
}

// Session is the per-user state. Callers hold the embedded mutex while
// reading or changing Transcript, Conversation or Report.
type Session struct {
	sync.Mutex

	ID        string
	CreatedAt time.Time

	Transcript      []Turn
	Conversation    *Conversation
	Report          *statement.Report
	transcriptLimit int

	lastAccessed time.Time // guarded by the manager lock
}

// AppendTurn adds a transcript entry, dropping the oldest entries once the
// transcript limit is reached.
func (s *Session) AppendTurn(role Role, content string) {
	s.Transcript = append(s.Transcript, Turn{Role: role, Content: content, At: time.Now().UTC()})
	if s.transcriptLimit > 0 && len(s.Transcript) > s.transcriptLimit {
		s.Transcript = append([]Turn(nil), s.Transcript[len(s.Transcript)-s.transcriptLimit:]...)
	}
}

// SetReport replaces the statement report.
func (s *Session) SetReport(r *statement.Report) {
	s.Report = r
}

// ChatReady reports whether a conversation has been established.
func (s *Session) ChatReady() bool {
	return s.Conversation != nil
}

// TranscriptCopy returns a snapshot safe to use after unlocking.
func (s *Session) TranscriptCopy() []Turn {
	out := make([]Turn, len(s.Transcript))
	copy(out, s.Transcript)
	return out
}

// New builds a detached session, used by the CLI which has no manager.
func New(id string, transcriptLimit int) *Session {
	now := time.Now().UTC()
	return &Session{ID: id, CreatedAt: now, lastAccessed: now, transcriptLimit: transcriptLimit}
}
