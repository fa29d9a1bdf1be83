// Package chat is the AI tutor screen: a conversation about one solved
// problem. The transcript lives only as long as the screen.
package chat

import (
	"context"
	"regexp"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/smartmath/internal/flow"
	"github.com/abhisek/smartmath/internal/notation"
	"github.com/abhisek/smartmath/internal/screen"
	"github.com/abhisek/smartmath/internal/solution"
	"github.com/abhisek/smartmath/internal/tutor"
	"github.com/abhisek/smartmath/internal/ui/components"
	"github.com/abhisek/smartmath/internal/ui/layout"
	"github.com/abhisek/smartmath/internal/ui/theme"
)

// Chatter produces the tutor's reply. It never fails; errors come back as
// a displayable fallback text.
type Chatter interface {
	ContinueChat(ctx context.Context, prior []tutor.Message, text string, sol *solution.Solution) string
}

type (
	replyMsg struct {
		session *tutor.Session
		text    string
	}
	typingTickMsg struct{ session *tutor.Session }
)

const inputLimit = 500

// ChatScreen holds one tutor session.
type ChatScreen struct {
	sol     *solution.Solution
	chatter Chatter
	session *tutor.Session
	input   components.TextInput

	suggestion int
	scroll     int
	frame      int

	ctx    context.Context
	cancel context.CancelFunc
}

var (
	_ screen.Screen   = (*ChatScreen)(nil)
	_ screen.Disposer = (*ChatScreen)(nil)
)

// New opens a fresh session about sol.
func New(sol *solution.Solution, chatter Chatter) *ChatScreen {
	ctx, cancel := context.WithCancel(context.Background())
	return &ChatScreen{
		sol:        sol,
		chatter:    chatter,
		session:    tutor.NewSession(sol.Topic),
		input:      components.NewTextInput("Попитай нещо...", inputLimit, 60),
		suggestion: -1,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (c *ChatScreen) Init() tea.Cmd {
	return c.input.Init()
}

func (c *ChatScreen) Title() string {
	return "AI Учител"
}

// Close abandons any reply still in flight.
func (c *ChatScreen) Close() {
	c.cancel()
}

func (c *ChatScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case replyMsg:
		if msg.session != c.session {
			return c, nil
		}
		c.session.Receive(msg.text)
		c.scroll = 0
		return c, c.input.Focus()

	case typingTickMsg:
		if msg.session != c.session || !c.session.Loading() {
			return c, nil
		}
		c.frame++
		return c, c.tick()

	case tea.KeyPressMsg:
		switch msg.String() {
		case "esc":
			return c, func() tea.Msg { return flow.BackMsg{} }
		case "enter":
			return c, c.send(c.input.Value())
		case "tab":
			c.cycleSuggestion()
			return c, nil
		case "pgup":
			c.scroll += 5
			return c, nil
		case "pgdown":
			c.scroll -= 5
			if c.scroll < 0 {
				c.scroll = 0
			}
			return c, nil
		}
	}

	if c.session.Loading() {
		return c, nil
	}
	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return c, cmd
}

func (c *ChatScreen) cycleSuggestion() {
	s := c.session.Suggestions()
	if len(s) == 0 {
		return
	}
	c.suggestion = (c.suggestion + 1) % len(s)
	c.input.SetValue(s[c.suggestion])
}

// send opens a round and asks the tutor. Blank input and sends during an
// open round do nothing.
func (c *ChatScreen) send(text string) tea.Cmd {
	text = strings.TrimSpace(text)
	_, prior, ok := c.session.Send(text)
	if !ok {
		return nil
	}
	c.input.Reset()
	c.input.Blur()
	c.suggestion = -1
	c.scroll = 0

	session, chatter, sol, ctx := c.session, c.chatter, c.sol, c.ctx
	ask := func() tea.Msg {
		return replyMsg{session: session, text: chatter.ContinueChat(ctx, prior, text, sol)}
	}
	return tea.Batch(ask, c.tick())
}

func (c *ChatScreen) tick() tea.Cmd {
	session := c.session
	return tea.Tick(300*time.Millisecond, func(time.Time) tea.Msg {
		return typingTickMsg{session: session}
	})
}

var boldRe = regexp.MustCompile(`\*\*(.+?)\*\*`)

// renderText formats a model message: notation becomes readable symbols
// and **bold** spans are styled.
func renderText(s string, base lipgloss.Style) string {
	s = notation.Render(s)
	bold := base.Bold(true)
	var b strings.Builder
	last := 0
	for _, m := range boldRe.FindAllStringSubmatchIndex(s, -1) {
		b.WriteString(base.Render(s[last:m[0]]))
		b.WriteString(bold.Render(s[m[2]:m[3]]))
		last = m[1]
	}
	b.WriteString(base.Render(s[last:]))
	return b.String()
}

func (c *ChatScreen) bubble(m tutor.Message, width int) string {
	maxW := width * 3 / 4
	if maxW < 20 {
		maxW = 20
	}
	text := m.Text
	if lipgloss.Width(text) > maxW-4 {
		text = lipgloss.NewStyle().Width(maxW - 4).Render(text)
	}

	if m.Role == tutor.RoleUser {
		box := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Primary).
			Padding(0, 1).
			Render(lipgloss.NewStyle().Foreground(theme.Text).Render(text))
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, box)
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Padding(0, 1).
		Render(renderText(text, lipgloss.NewStyle().Foreground(theme.Text)))
	return box
}

func (c *ChatScreen) View(width, height int) string {
	header := "  " + theme.Subtitle.Render("Тема: "+c.sol.Topic) + "  " +
		lipgloss.NewStyle().Foreground(theme.Text).Render(notation.Render(c.sol.Expression))

	var footer []string
	if c.session.Loading() {
		dots := strings.Repeat(".", c.frame%3+1)
		footer = append(footer, "  "+theme.Hint.Render("Учителят пише"+dots))
	} else if s := c.session.Suggestions(); len(s) > 0 {
		chips := make([]string, len(s))
		for i, q := range s {
			style := lipgloss.NewStyle().Foreground(theme.Secondary)
			if i == c.suggestion {
				style = style.Bold(true).Underline(true)
			}
			chips[i] = style.Render("[" + q + "]")
		}
		footer = append(footer, "  "+strings.Join(chips, " "))
	}
	footer = append(footer, "  "+c.input.View())
	footerText := strings.Join(footer, "\n")

	avail := height - lipgloss.Height(header) - lipgloss.Height(footerText) - 2
	if avail < 1 {
		avail = 1
	}

	var lines []string
	for _, m := range c.session.Messages() {
		lines = append(lines, strings.Split(c.bubble(m, width-4), "\n")...)
	}
	end := len(lines) - c.scroll
	if end < avail {
		end = avail
	}
	if end > len(lines) {
		end = len(lines)
	}
	if c.scroll > len(lines)-end {
		c.scroll = len(lines) - end
	}
	start := end - avail
	if start < 0 {
		start = 0
	}
	for i := start; i < end; i++ {
		lines[i] = "  " + lines[i]
	}
	transcript := strings.Join(lines[start:end], "\n")

	return header + "\n\n" + transcript + "\n\n" + footerText
}

func (c *ChatScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{
		{Key: "Enter", Description: "Изпрати"},
	}
	if len(c.session.Suggestions()) > 0 {
		hints = append(hints, layout.KeyHint{Key: "Tab", Description: "Предложение"})
	}
	return append(hints,
		layout.KeyHint{Key: "PgUp/PgDn", Description: "Превъртане"},
		layout.KeyHint{Key: "Esc", Description: "Към решението"},
	)
}
