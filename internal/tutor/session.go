// Package tutor models one in-memory chat about an already solved problem.
package tutor

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role identifies who wrote a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is one transcript entry. IDs are unique within a session.
type Message struct {
	ID        string
	Role      Role
	Text      string
	CreatedAt time.Time
}

// SuggestedQuestions are offered while the conversation is still short.
var SuggestedQuestions = []string{
	"Защо раздели на 2?",
	"Обясни стъпка 1 отново",
	"Има ли друг начин?",
}

// suggestionLimit hides suggestions once the transcript reaches this size.
const suggestionLimit = 3

// Session is an append-only transcript with a single-round guard. It is
// discarded when the tutor screen closes.
type Session struct {
	messages []Message
	loading  bool
	now      func() time.Time
}

// NewSession starts a transcript with a welcome message naming topic.
func NewSession(topic string) *Session {
	s := &Session{now: time.Now}
	s.messages = append(s.messages, s.newMessage(RoleModel, welcome(topic)))
	return s
}

func welcome(topic string) string {
	return fmt.Sprintf("Здравей! Аз съм твоят AI учител. Виждам, че решаваш задача от раздел **%s**. Как мога да ти помогна да я разбереш по-добре?", topic)
}

func (s *Session) newMessage(role Role, text string) Message {
	return Message{ID: uuid.NewString(), Role: role, Text: text, CreatedAt: s.now()}
}

// Messages returns a copy of the transcript in order.
func (s *Session) Messages() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Loading reports whether a round is waiting for its reply.
func (s *Session) Loading() bool {
	return s.loading
}

// Send appends the user's message and opens a round. It returns the prior
// transcript (without the new message) for the model call. Blank input or a
// round already in flight is rejected and nothing is appended.
func (s *Session) Send(text string) (Message, []Message, bool) {
	if s.loading || strings.TrimSpace(text) == "" {
		return Message{}, nil, false
	}
	prior := s.Messages()
	m := s.newMessage(RoleUser, text)
	s.messages = append(s.messages, m)
	s.loading = true
	return m, prior, true
}

// Receive appends the model reply and closes the round. A reply with no
// round open is dropped.
func (s *Session) Receive(text string) bool {
	if !s.loading {
		return false
	}
	s.messages = append(s.messages, s.newMessage(RoleModel, text))
	s.loading = false
	return true
}

// Suggestions returns the quick questions to show, or nil once the
// transcript is long enough or a round is in flight.
func (s *Session) Suggestions() []string {
	if s.loading || len(s.messages) >= suggestionLimit {
		return nil
	}
	return SuggestedQuestions
}
