package onboarding

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/smartmath/internal/ui/theme"
)

const bannerArt = `
 ╔═╗┌┬┐┌─┐┬─┐┌┬┐╔╦╗┌─┐┌┬┐┬ ┬
 ╚═╗│││├─┤├┬┘ │ ║║║├─┤ │ ├─┤
 ╚═╝┴ ┴┴ ┴┴└─ ┴ ╩ ╩┴ ┴ ┴ ┴ ┴`

const bannerCompact = "✦ SmartMath ✦"

// bannerMinWidth is the narrowest terminal that fits the art.
const bannerMinWidth = 34

// renderBanner falls back to a single line on narrow terminals and when
// the height leaves no room for the art.
func renderBanner(width, height int) string {
	style := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)
	if width < bannerMinWidth || height < 16 {
		return style.Render(bannerCompact)
	}
	return style.Render(bannerArt)
}
