package chat

import (
	"context"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/smartmath/internal/flow"
	"github.com/abhisek/smartmath/internal/solution"
	"github.com/abhisek/smartmath/internal/tutor"
)

type fakeChatter struct {
	reply string
	calls int
	prior [][]tutor.Message
	texts []string
}

func (f *fakeChatter) ContinueChat(_ context.Context, prior []tutor.Message, text string, _ *solution.Solution) string {
	f.calls++
	f.prior = append(f.prior, prior)
	f.texts = append(f.texts, text)
	return f.reply
}

func algebra() *solution.Solution {
	return &solution.Solution{Expression: "2x+3=7", FinalAnswer: "x=2", Difficulty: solution.Easy, Topic: "Algebra"}
}

func enter(c *ChatScreen) tea.Cmd {
	_, cmd := c.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	return cmd
}

// runReply executes the batched send command and feeds the reply back.
func runReply(t *testing.T, c *ChatScreen, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a send command")
	}
	batch, ok := cmd().(tea.BatchMsg)
	if !ok {
		t.Fatalf("expected a batch, got %T", cmd())
	}
	for _, sub := range batch {
		if sub == nil {
			continue
		}
		if msg, ok := sub().(replyMsg); ok {
			c.Update(msg)
			return
		}
	}
	t.Fatal("no reply in batch")
}

func TestWelcomeMessage(t *testing.T) {
	c := New(algebra(), &fakeChatter{})
	msgs := c.session.Messages()
	if len(msgs) != 1 || msgs[0].Role != tutor.RoleModel {
		t.Fatalf("expected a single welcome message, got %+v", msgs)
	}
	if !strings.Contains(c.View(100, 40), "Algebra") {
		t.Error("welcome should name the topic")
	}
}

func TestSendAndReceive(t *testing.T) {
	chatter := &fakeChatter{reply: "Защото 2x/2 = x."}
	c := New(algebra(), chatter)
	c.input.SetValue("Защо раздели на 2?")

	cmd := enter(c)
	if !c.session.Loading() {
		t.Fatal("expected a round in flight")
	}
	if c.input.Value() != "" {
		t.Error("input should clear after sending")
	}
	runReply(t, c, cmd)

	msgs := c.session.Messages()
	if len(msgs) != 3 {
		t.Fatalf("expected welcome, question and reply, got %d", len(msgs))
	}
	if msgs[2].Text != "Защото 2x/2 = x." {
		t.Errorf("unexpected reply %q", msgs[2].Text)
	}
	if len(chatter.prior[0]) != 1 {
		t.Errorf("prior transcript should exclude the new message, got %d", len(chatter.prior[0]))
	}
	if c.session.Loading() {
		t.Error("round should be closed")
	}
}

func TestSendWhileLoadingIsIgnored(t *testing.T) {
	chatter := &fakeChatter{reply: "ok"}
	c := New(algebra(), chatter)
	c.input.SetValue("първи")
	enter(c)

	c.input.SetValue("втори")
	if cmd := enter(c); cmd != nil {
		t.Error("a second send during an open round must do nothing")
	}
	if got := len(c.session.Messages()); got != 2 {
		t.Errorf("expected 2 messages, got %d", got)
	}
}

func TestBlankInputIgnored(t *testing.T) {
	c := New(algebra(), &fakeChatter{})
	c.input.SetValue("   ")
	if cmd := enter(c); cmd != nil {
		t.Error("blank input should not send")
	}
}

func TestTabCyclesSuggestions(t *testing.T) {
	c := New(algebra(), &fakeChatter{})
	tab := tea.KeyPressMsg{Code: tea.KeyTab}

	c.Update(tab)
	if c.input.Value() != tutor.SuggestedQuestions[0] {
		t.Errorf("got %q", c.input.Value())
	}
	c.Update(tab)
	c.Update(tab)
	c.Update(tab)
	if c.input.Value() != tutor.SuggestedQuestions[0] {
		t.Errorf("suggestions should wrap around, got %q", c.input.Value())
	}
}

func TestSuggestionsHiddenAfterFirstRound(t *testing.T) {
	c := New(algebra(), &fakeChatter{reply: "ok"})
	c.input.SetValue("въпрос")
	runReply(t, c, enter(c))

	if strings.Contains(c.View(100, 40), tutor.SuggestedQuestions[0]) {
		t.Error("suggestions should be hidden once the conversation has started")
	}
}

func TestStaleReplyIgnored(t *testing.T) {
	c := New(algebra(), &fakeChatter{})
	other := tutor.NewSession("Geometry")
	c.Update(replyMsg{session: other, text: "stale"})
	if len(c.session.Messages()) != 1 {
		t.Error("a reply for another session must be dropped")
	}
}

func TestEscGoesBack(t *testing.T) {
	c := New(algebra(), &fakeChatter{})
	_, cmd := c.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if _, ok := cmd().(flow.BackMsg); !ok {
		t.Errorf("expected BackMsg, got %T", cmd())
	}
}

func TestCloseCancelsInFlight(t *testing.T) {
	c := New(algebra(), &fakeChatter{})
	c.Close()
	if c.ctx.Err() == nil {
		t.Error("closing should cancel the request context")
	}
}

func TestRenderTextBold(t *testing.T) {
	got := renderText("раздел **Algebra**", lipgloss.NewStyle())
	if strings.Contains(got, "**") {
		t.Errorf("bold markers should be removed, got %q", got)
	}
	if !strings.Contains(got, "Algebra") {
		t.Errorf("bold text should remain, got %q", got)
	}
}
