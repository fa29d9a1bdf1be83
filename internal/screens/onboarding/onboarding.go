// Package onboarding asks for the user's display name.
package onboarding

import (
	"errors"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/smartmath/internal/flow"
	"github.com/abhisek/smartmath/internal/profile"
	"github.com/abhisek/smartmath/internal/screen"
	"github.com/abhisek/smartmath/internal/ui/components"
	"github.com/abhisek/smartmath/internal/ui/layout"
	"github.com/abhisek/smartmath/internal/ui/theme"
)

const (
	msgEmptyName   = "Моля, въведи име."
	msgNameTooLong = "Името трябва да е под 20 символа."
)

// OnboardingScreen collects and validates a display name.
type OnboardingScreen struct {
	input     components.TextInput
	submitted bool
}

var _ screen.Screen = (*OnboardingScreen)(nil)

// New creates the screen. current pre-fills the input when the user is
// changing an existing name.
func New(current string) *OnboardingScreen {
	// The limit is applied after trimming, so leave room for stray spaces.
	in := components.NewTextInput("Напиши името си тук...", profile.MaxNameLength*2, 30)
	if current != "" {
		in.SetValue(current)
	}
	return &OnboardingScreen{input: in}
}

func (o *OnboardingScreen) Title() string {
	return "Добре дошъл!"
}

func (o *OnboardingScreen) Init() tea.Cmd {
	return o.input.Init()
}

func (o *OnboardingScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyPressMsg); ok && kmsg.Code == tea.KeyEnter {
		return o, o.submit()
	}

	var cmd tea.Cmd
	o.input, cmd = o.input.Update(msg)
	return o, cmd
}

// submit validates the input. Invalid names stay on screen with a message
// and nothing is emitted.
func (o *OnboardingScreen) submit() tea.Cmd {
	if o.submitted {
		return nil
	}
	name, err := profile.NormalizeName(o.input.Value())
	switch {
	case errors.Is(err, profile.ErrEmptyName):
		o.input.SetError(msgEmptyName)
		return nil
	case errors.Is(err, profile.ErrNameTooLong):
		o.input.SetError(msgNameTooLong)
		return nil
	case err != nil:
		o.input.SetError(err.Error())
		return nil
	}
	o.submitted = true
	return func() tea.Msg {
		return flow.NameSubmittedMsg{Name: name}
	}
}

func (o *OnboardingScreen) View(width, height int) string {
	heading := lipgloss.NewStyle().
		Foreground(theme.Text).
		Bold(true).
		Render("Добре дошъл!")
	question := theme.Subtitle.Render("Как ти викат приятелите?")

	sections := []string{
		renderBanner(width, height),
		"",
		heading,
		question,
		"",
		o.input.View(),
		"",
		theme.Hint.Render("Enter за продължение"),
	}
	content := strings.Join(sections, "\n")
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

func (o *OnboardingScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Напред"},
		{Key: "Ctrl+C", Description: "Изход"},
	}
}
