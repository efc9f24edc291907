package tui

import "github.com/charmbracelet/lipgloss"

// Palette used across the storefront screens.
var (
	colorPrimary     = lipgloss.Color("#101F38")
	colorAccent      = lipgloss.Color("#8BC34A")
	colorMuted       = lipgloss.Color("#7A8699")
	colorBorder      = lipgloss.Color("#2A3850")
	colorDestructive = lipgloss.Color("#E53935")
	colorWhite       = lipgloss.Color("#FFFFFF")
)

// Styles groups the lipgloss styles of the storefront.
type Styles struct {
	NavBar       lipgloss.Style
	Search       lipgloss.Style
	CartBadge    lipgloss.Style
	Alert        lipgloss.Style
	Card         lipgloss.Style
	CardSelected lipgloss.Style
	CardTitle    lipgloss.Style
	CardPrice    lipgloss.Style
	CardImage    lipgloss.Style
	CardAction   lipgloss.Style
	PageItem     lipgloss.Style
	PageActive   lipgloss.Style
	Dialog       lipgloss.Style
	DialogTitle  lipgloss.Style
	Status       lipgloss.Style
	Title        lipgloss.Style
	Muted        lipgloss.Style
}

// DefaultStyles returns the default storefront styles.
func DefaultStyles() Styles {
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Width(cardWidth)

	return Styles{
		NavBar:       lipgloss.NewStyle().Padding(0, 1).MarginBottom(1),
		Search:       lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(colorBorder).Padding(0, 1),
		CartBadge:    lipgloss.NewStyle().Bold(true).Foreground(colorWhite).Background(colorPrimary).Padding(0, 1).MarginLeft(2),
		Alert:        lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Background(colorAccent).Padding(0, 1).MarginBottom(1),
		Card:         card,
		CardSelected: card.BorderForeground(colorAccent),
		CardTitle:    lipgloss.NewStyle().Bold(true),
		CardPrice:    lipgloss.NewStyle().Foreground(colorAccent),
		CardImage:    lipgloss.NewStyle().Foreground(colorMuted).Italic(true),
		CardAction:   lipgloss.NewStyle().Foreground(colorMuted),
		PageItem:     lipgloss.NewStyle().Padding(0, 1),
		PageActive:   lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(colorWhite).Background(colorPrimary),
		Dialog:       lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(colorDestructive).Padding(1, 2).Width(50),
		DialogTitle:  lipgloss.NewStyle().Bold(true).Foreground(colorDestructive),
		Status:       lipgloss.NewStyle().Foreground(colorMuted).MarginTop(1),
		Title:        lipgloss.NewStyle().Bold(true).MarginBottom(1),
		Muted:        lipgloss.NewStyle().Foreground(colorMuted),
	}
}
