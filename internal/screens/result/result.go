// Package result renders a solved problem: the recognized expression, a
// difficulty badge, expandable steps, the final answer and a share view.
package result

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/smartmath/internal/flow"
	"github.com/abhisek/smartmath/internal/notation"
	"github.com/abhisek/smartmath/internal/screen"
	"github.com/abhisek/smartmath/internal/solution"
	"github.com/abhisek/smartmath/internal/ui/layout"
	"github.com/abhisek/smartmath/internal/ui/theme"
)

// clipboardWrite is swapped out in tests.
var clipboardWrite = clipboard.WriteAll

type copiedMsg struct{ err error }

// ResultScreen shows one solution. Steps start collapsed.
type ResultScreen struct {
	sol      *solution.Solution
	expanded solution.Expansion
	cursor   int
	offset   int

	sharing bool
	copied  bool
	copyErr error
}

var _ screen.Screen = (*ResultScreen)(nil)

// New creates the solution view for sol.
func New(sol *solution.Solution) *ResultScreen {
	return &ResultScreen{sol: sol}
}

func (r *ResultScreen) Init() tea.Cmd {
	return nil
}

func (r *ResultScreen) Title() string {
	return "Решение"
}

// Solution returns the solution being shown.
func (r *ResultScreen) Solution() *solution.Solution {
	return r.sol
}

func (r *ResultScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case copiedMsg:
		r.copied = msg.err == nil
		r.copyErr = msg.err
		return r, nil
	case tea.KeyPressMsg:
		if r.sharing {
			return r, r.handleShareKey(msg)
		}
		return r, r.handleKey(msg)
	}
	return r, nil
}

func (r *ResultScreen) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		if r.cursor > 0 {
			r.cursor--
		}
	case "down", "j":
		if r.cursor < len(r.sol.Steps)-1 {
			r.cursor++
		}
	case "enter", "space":
		if len(r.sol.Steps) > 0 {
			r.expanded.Toggle(r.cursor)
		}
	case "s":
		r.sharing = true
		r.copied, r.copyErr = false, nil
	case "a":
		return emit(flow.OpenTutorMsg{})
	case "t":
		return emit(flow.ToggleThemeMsg{})
	case "esc", "n":
		return emit(flow.BackMsg{})
	}
	return nil
}

func (r *ResultScreen) handleShareKey(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "c":
		text := r.sol.PlainText()
		return func() tea.Msg {
			return copiedMsg{err: clipboardWrite(text)}
		}
	case "esc", "s", "q":
		r.sharing = false
	}
	return nil
}

func emit(m tea.Msg) tea.Cmd {
	return func() tea.Msg { return m }
}

func (r *ResultScreen) View(width, height int) string {
	if r.sharing {
		return r.viewShare(width, height)
	}

	lines, cursorLine := r.body(width)
	r.scrollTo(cursorLine, len(lines), height)
	end := r.offset + height
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[r.offset:end], "\n")
}

// scrollTo keeps the cursor's step header inside the visible window.
func (r *ResultScreen) scrollTo(line, total, height int) {
	if height <= 0 {
		return
	}
	if line < r.offset {
		r.offset = line
	}
	if line >= r.offset+height {
		r.offset = line - height + 1
	}
	if last := total - height; r.offset > last {
		r.offset = last
	}
	if r.offset < 0 {
		r.offset = 0
	}
}

// body renders every line of the solution and reports the line index of the
// selected step header.
func (r *ResultScreen) body(width int) ([]string, int) {
	inner := width - 6
	if inner < 20 {
		inner = 20
	}
	wrap := lipgloss.NewStyle().Width(inner)

	var out []string
	add := func(s string) {
		out = append(out, strings.Split(s, "\n")...)
	}

	badge := lipgloss.NewStyle().
		Foreground(theme.DifficultyColor(string(r.sol.Difficulty))).
		Bold(true).
		Render("● " + r.sol.Difficulty.Label())
	add("  " + theme.Subtitle.Render(r.sol.Topic) + "   " + badge)
	add("")

	expr := theme.Card.
		BorderForeground(theme.Primary).
		Render(lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(notation.Render(r.sol.Expression)))
	add(indent(expr))
	add("")

	add("  " + lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render("Стъпки"))
	cursorLine := len(out)
	for i, st := range r.sol.Steps {
		if i == r.cursor {
			cursorLine = len(out)
		}
		marker := "▸"
		if r.expanded.IsExpanded(i) {
			marker = "▾"
		}
		header := fmt.Sprintf("%s %d. %s", marker, i+1, notation.Render(st.Title))
		if i == r.cursor {
			add("  " + theme.Selected.Render(header))
		} else {
			add("  " + theme.Unselected.Render(header))
		}
		if r.expanded.IsExpanded(i) {
			add(indent(indent(wrap.Foreground(theme.TextDim).Render(notation.Render(st.Explanation)))))
			if st.Result != "" {
				add(indent(indent(lipgloss.NewStyle().Foreground(theme.Secondary).Render("= " + notation.Render(st.Result)))))
			}
		}
	}
	if len(r.sol.Steps) == 0 {
		add("  " + theme.Hint.Render("Няма стъпки."))
	}
	add("")

	answer := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Success).
		Padding(0, 2).
		Render(lipgloss.NewStyle().Foreground(theme.Success).Bold(true).Render("Отговор: " + notation.Render(r.sol.FinalAnswer)))
	add(indent(answer))
	return out, cursorLine
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}

func (r *ResultScreen) viewShare(width, height int) string {
	text := r.sol.PlainText()
	status := theme.Hint.Render("c: копирай   Esc: назад")
	switch {
	case r.copied:
		status = lipgloss.NewStyle().Foreground(theme.Success).Render("✓ Копирано!")
	case r.copyErr != nil:
		status = lipgloss.NewStyle().Foreground(theme.Error).Render("✗ Клипбордът не е достъпен.")
	}
	card := theme.Card.Render(lipgloss.NewStyle().Foreground(theme.Text).Render(text))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, theme.Title.Render("Сподели"), "", card, "", status))
}

func (r *ResultScreen) KeyHints() []layout.KeyHint {
	if r.sharing {
		return []layout.KeyHint{
			{Key: "c", Description: "Копирай"},
			{Key: "Esc", Description: "Назад"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Стъпка"},
		{Key: "Enter", Description: "Разгъни"},
		{Key: "a", Description: "AI Учител"},
		{Key: "s", Description: "Сподели"},
		{Key: "t", Description: "Тема"},
		{Key: "Esc", Description: "Нова задача"},
	}
}
