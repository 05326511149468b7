package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("#61AFEF")
	colorDone    = lipgloss.Color("#98C379")
	colorSubtle  = lipgloss.Color("#5C6370")
	colorError   = lipgloss.Color("#E06C75")
	colorWarn    = lipgloss.Color("#E5C07B")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).MarginBottom(1)
	labelStyle    = lipgloss.NewStyle().Foreground(colorSubtle)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	doneStyle     = lipgloss.NewStyle().Foreground(colorDone).Strikethrough(true)
	dateStyle     = lipgloss.NewStyle().Foreground(colorWarn)
	linkStyle     = lipgloss.NewStyle().Foreground(colorPrimary).Underline(true)
	emptyStyle    = lipgloss.NewStyle().Foreground(colorSubtle).Italic(true).PaddingLeft(2)
	statusStyle   = lipgloss.NewStyle().Foreground(colorSubtle).Italic(true)
	errorStyle    = lipgloss.NewStyle().Foreground(colorError)

	buttonStyle         = lipgloss.NewStyle().Padding(0, 1).Background(colorPrimary).Foreground(lipgloss.Color("#1E1E1E"))
	buttonDisabledStyle = lipgloss.NewStyle().Padding(0, 1).Background(colorSubtle).Foreground(lipgloss.Color("#ABB2BF"))

	progressFull  = lipgloss.NewStyle().Foreground(colorDone)
	progressEmpty = lipgloss.NewStyle().Foreground(colorSubtle)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(1, 2)
	noticeStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(colorError).
			Padding(1, 2)
)
