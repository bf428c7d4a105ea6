package report

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Style decorates banner and failure lines.
type Style struct {
	Banner  func(string) string
	Failure func(string) string
}

// PlainStyle leaves text untouched. Used for files.
func PlainStyle() Style {
	same := func(s string) string { return s }
	return Style{Banner: same, Failure: same}
}

var (
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	failureStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))
)

// TerminalStyle colors banners and failures for interactive display.
func TerminalStyle() Style {
	return Style{
		Banner:  func(s string) string { return bannerStyle.Render(s) },
		Failure: func(s string) string { return failureStyle.Render(s) },
	}
}

// StyleFor picks TerminalStyle when f is a terminal and color is allowed.
func StyleFor(f *os.File, noColor bool) Style {
	if noColor || f == nil {
		return PlainStyle()
	}
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		return TerminalStyle()
	}
	return PlainStyle()
}
