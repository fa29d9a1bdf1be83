package theme

import (
	"image/color"

	"charm.land/lipgloss/v2"
)

// Palette is one complete set of UI colors.
type Palette struct {
	Primary   color.Color
	Secondary color.Color
	Accent    color.Color
	Success   color.Color
	Warning   color.Color
	Error     color.Color
	Text      color.Color
	TextDim   color.Color
	BgCard    color.Color
	Border    color.Color
}

// Dark suits dark terminal backgrounds.
var Dark = Palette{
	Primary:   lipgloss.Color("#818CF8"), // Indigo
	Secondary: lipgloss.Color("#14B8A6"), // Teal
	Accent:    lipgloss.Color("#F97316"), // Orange
	Success:   lipgloss.Color("#4ADE80"),
	Warning:   lipgloss.Color("#FACC15"),
	Error:     lipgloss.Color("#F87171"),
	Text:      lipgloss.Color("#F8FAFC"),
	TextDim:   lipgloss.Color("#94A3B8"),
	BgCard:    lipgloss.Color("#1E293B"),
	Border:    lipgloss.Color("#334155"),
}

// Light suits light terminal backgrounds.
var Light = Palette{
	Primary:   lipgloss.Color("#4F46E5"),
	Secondary: lipgloss.Color("#0D9488"),
	Accent:    lipgloss.Color("#EA580C"),
	Success:   lipgloss.Color("#15803D"),
	Warning:   lipgloss.Color("#A16207"),
	Error:     lipgloss.Color("#B91C1C"),
	Text:      lipgloss.Color("#0F172A"),
	TextDim:   lipgloss.Color("#64748B"),
	BgCard:    lipgloss.Color("#F1F5F9"),
	Border:    lipgloss.Color("#CBD5E1"),
}

// Active colors. Rebuilt by SetDark.
var (
	Primary   color.Color
	Secondary color.Color
	Accent    color.Color
	Success   color.Color
	Warning   color.Color
	Error     color.Color
	Text      color.Color
	TextDim   color.Color
	BgCard    color.Color
	Border    color.Color
)

// Styles built from the active palette.
var (
	Title      lipgloss.Style
	Subtitle   lipgloss.Style
	Body       lipgloss.Style
	Hint       lipgloss.Style
	Card       lipgloss.Style
	Selected   lipgloss.Style
	Unselected lipgloss.Style
	Notice     lipgloss.Style
	Alert      lipgloss.Style
)

var dark = true

func init() {
	SetDark(true)
}

// IsDark reports whether the dark palette is active.
func IsDark() bool { return dark }

// SetDark switches the active palette and rebuilds every style.
func SetDark(on bool) {
	dark = on
	p := Light
	if on {
		p = Dark
	}
	apply(p)
}

func apply(p Palette) {
	Primary, Secondary, Accent = p.Primary, p.Secondary, p.Accent
	Success, Warning, Error = p.Success, p.Warning, p.Error
	Text, TextDim, BgCard, Border = p.Text, p.TextDim, p.BgCard, p.Border

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		Align(lipgloss.Center)

	Subtitle = lipgloss.NewStyle().
		Foreground(TextDim).
		Align(lipgloss.Center)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(1, 2)

	Selected = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true)

	Unselected = lipgloss.NewStyle().
		Foreground(Text)

	Notice = lipgloss.NewStyle().
		Foreground(Warning).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Warning).
		Padding(0, 2)

	Alert = lipgloss.NewStyle().
		Foreground(Error).
		Bold(true).
		Border(lipgloss.DoubleBorder()).
		BorderForeground(Error).
		Padding(1, 2)
}

// DifficultyColor returns the badge color for an English difficulty value.
func DifficultyColor(d string) color.Color {
	switch d {
	case "Easy":
		return Success
	case "Medium":
		return Warning
	default:
		return Error
	}
}
