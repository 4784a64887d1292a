package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	ColorFgPrimary = lipgloss.Color("#ABB2BF")
	ColorFgMuted   = lipgloss.Color("#636B78")
	ColorRed       = lipgloss.Color("#E06C75")
	ColorGreen     = lipgloss.Color("#98C379")
	ColorYellow    = lipgloss.Color("#E5C07B")
	ColorBlue      = lipgloss.Color("#61AFEF")
	ColorMagenta   = lipgloss.Color("#C678DD")
	ColorBorder    = lipgloss.Color("#3F4451")
)

// Component styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorMagenta).
			Bold(true).
			PaddingLeft(1)

	FormStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(1, 2)

	CursorStyle = lipgloss.NewStyle().
			Foreground(ColorBlue).
			Bold(true)

	TaskOpenStyle = lipgloss.NewStyle().
			Foreground(ColorFgPrimary)

	TaskDoneStyle = lipgloss.NewStyle().
			Foreground(ColorFgMuted).
			Strikethrough(true)

	TaskPendingStyle = lipgloss.NewStyle().
				Foreground(ColorYellow).
				Italic(true)

	PriorityHighStyle = lipgloss.NewStyle().
				Foreground(ColorRed)

	PriorityMediumStyle = lipgloss.NewStyle().
				Foreground(ColorYellow)

	PriorityLowStyle = lipgloss.NewStyle().
				Foreground(ColorGreen)

	ToastSuccessStyle = lipgloss.NewStyle().
				Foreground(ColorGreen).
				PaddingLeft(1)

	ToastErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			PaddingLeft(1)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(ColorFgMuted).
			PaddingLeft(1)

	ErrTextStyle = lipgloss.NewStyle().
			Foreground(ColorRed)
)
