package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Output is where the Print helpers write
var Output io.Writer = os.Stdout

var (
	accent  = lipgloss.Color("#00AFD7")
	warning = lipgloss.Color("#FFAF00")
	danger  = lipgloss.Color("#FF5F5F")
	success = lipgloss.Color("#5FD75F")
	muted   = lipgloss.Color("#8A8A8A")

	titleStyle   = lipgloss.NewStyle().Foreground(accent).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(accent)
	valueStyle   = lipgloss.NewStyle().Foreground(warning)
	errorStyle   = lipgloss.NewStyle().Foreground(danger).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(warning)
	successStyle = lipgloss.NewStyle().Foreground(success)
	dimStyle     = lipgloss.NewStyle().Foreground(muted)
)

// Style helpers for inline use
var (
	Cyan   = render(labelStyle)
	Yellow = render(valueStyle)
	Red    = render(errorStyle)
	Green  = render(successStyle)
	Dim    = render(dimStyle)
)

func render(s lipgloss.Style) func(string) string {
	return func(text string) string {
		return s.Render(text)
	}
}

// PrintBanner prints the application name and a subtitle
func PrintBanner(subtitle string) {
	fmt.Fprintln(Output, titleStyle.Render("rdtagger")+" "+Dim(subtitle))
}

// PrintError prints an error message in red
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(Output, Red(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(Output, Red(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	fmt.Fprintln(Output, Green(msg))
}

// PrintInfo prints a label and value pair
func PrintInfo(label string, value string) {
	fmt.Fprintf(Output, "%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(Output, warnStyle.Render(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(Output, warnStyle.Render(msg))
	}
}
