package tui

import (
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

var (
	colorBase    = lipgloss.Color("#232136")
	colorOverlay = lipgloss.Color("#393552")
	colorMuted   = lipgloss.Color("#6e6a86")
	colorText    = lipgloss.Color("#e0def4")
	colorLove    = lipgloss.Color("#eb6f92") // error, danger
	colorGold    = lipgloss.Color("#f6c177") // due dates
	colorFoam    = lipgloss.Color("#9ccfd8") // done, in flight
	colorIris    = lipgloss.Color("#c4a7e7") // highlight
)

var (
	headerStyle   = lipgloss.NewStyle().Foreground(colorIris).Bold(true).MarginBottom(1)
	rowStyle      = lipgloss.NewStyle().Foreground(colorText)
	selectedStyle = lipgloss.NewStyle().Foreground(colorBase).Background(colorIris)
	doneStyle     = lipgloss.NewStyle().Foreground(colorMuted).Strikethrough(true)
	dueStyle      = lipgloss.NewStyle().Foreground(colorGold)
	pendingStyle  = lipgloss.NewStyle().Foreground(colorFoam)
	errorStyle    = lipgloss.NewStyle().Foreground(colorLove)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorMuted)

	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorIris).
			Padding(1, 2)
	dangerDialogStyle = dialogStyle.BorderForeground(colorLove)
)

// formTheme returns a huh theme matching the list palette.
func formTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Base = t.Focused.Base.BorderForeground(colorIris)
	t.Focused.Title = t.Focused.Title.Foreground(colorIris).Bold(true)
	t.Focused.Description = t.Focused.Description.Foreground(colorMuted)
	t.Focused.ErrorIndicator = t.Focused.ErrorIndicator.Foreground(colorLove)
	t.Focused.ErrorMessage = t.Focused.ErrorMessage.Foreground(colorLove)
	t.Focused.FocusedButton = t.Focused.FocusedButton.Foreground(colorBase).Background(colorIris)
	t.Focused.BlurredButton = t.Focused.BlurredButton.Foreground(colorText).Background(colorOverlay)
	t.Focused.TextInput.Cursor = t.Focused.TextInput.Cursor.Foreground(colorFoam)
	t.Focused.TextInput.Placeholder = t.Focused.TextInput.Placeholder.Foreground(colorMuted)
	t.Focused.TextInput.Prompt = t.Focused.TextInput.Prompt.Foreground(colorIris)
	t.Focused.TextInput.Text = t.Focused.TextInput.Text.Foreground(colorText)

	t.Blurred = t.Focused
	t.Blurred.Base = t.Blurred.Base.BorderStyle(lipgloss.HiddenBorder())
	return t
}
