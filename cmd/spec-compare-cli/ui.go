package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/schollz/progressbar/v3"
)

// UI provides user-friendly output utilities.
type UI struct {
	out      io.Writer
	errOut   io.Writer
	noColor  bool
	jsonMode bool
}

// NewUI creates a UI writing to out and errOut.
func NewUI(out, errOut io.Writer, jsonMode, noColor bool) *UI {
	return &UI{out: out, errOut: errOut, noColor: noColor, jsonMode: jsonMode}
}

func (ui *UI) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if ui.noColor {
		c.DisableColor()
	} else {
		c.EnableColor()
	}
	return c
}

func (ui *UI) line(w io.Writer, symbol string, attr color.Attribute, format string, args ...interface{}) {
	if ui.jsonMode {
		return
	}
	ui.paint(attr).Fprintf(w, "%s %s\n", symbol, fmt.Sprintf(format, args...))
}

// Success prints a success message.
func (ui *UI) Success(format string, args ...interface{}) {
	ui.line(ui.out, "✓", color.FgGreen, format, args...)
}

// Error prints an error message.
func (ui *UI) Error(format string, args ...interface{}) {
	ui.line(ui.errOut, "✗", color.FgRed, format, args...)
}

// Warning prints a warning message.
func (ui *UI) Warning(format string, args ...interface{}) {
	ui.line(ui.errOut, "⚠", color.FgYellow, format, args...)
}

// Info prints an info message.
func (ui *UI) Info(format string, args ...interface{}) {
	ui.line(ui.out, "ℹ", color.FgCyan, format, args...)
}

// Section prints a section header.
func (ui *UI) Section(title string) {
	if ui.jsonMode {
		return
	}
	fmt.Fprintln(ui.out)
	ui.paint(color.FgMagenta, color.Bold).Fprintf(ui.out, "━━━ %s ━━━\n", strings.ToUpper(title))
}

// Table prints rows under headers. Cells in highlight are drawn bold green;
// highlight is indexed like rows and may be nil.
func (ui *UI) Table(headers []string, rows [][]string, highlight [][]bool) {
	if ui.jsonMode || len(headers) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], runewidth.StringWidth(cell))
			}
		}
	}

	border := ui.paint(color.FgCyan, color.Bold)
	rule := func(left, mid, right string) {
		border.Fprint(ui.out, left)
		for i, w := range widths {
			fmt.Fprint(ui.out, strings.Repeat("─", w+2))
			if i < len(widths)-1 {
				border.Fprint(ui.out, mid)
			}
		}
		border.Fprint(ui.out, right+"\n")
	}
	printRow := func(cells []string, marked []bool, header bool) {
		border.Fprint(ui.out, "│")
		for i, w := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			padded := " " + runewidth.FillRight(cell, w) + " "
			switch {
			case header:
				border.Fprint(ui.out, padded)
			case i < len(marked) && marked[i]:
				ui.paint(color.FgGreen, color.Bold).Fprint(ui.out, padded)
			default:
				fmt.Fprint(ui.out, padded)
			}
			border.Fprint(ui.out, "│")
		}
		fmt.Fprintln(ui.out)
	}

	rule("┌", "┬", "┐")
	printRow(headers, nil, true)
	rule("├", "┼", "┤")
	for i, row := range rows {
		var marked []bool
		if i < len(highlight) {
			marked = highlight[i]
		}
		printRow(row, marked, false)
	}
	rule("└", "┴", "┘")
}

// ProgressBar wraps a progressbar instance for extraction progress.
type ProgressBar struct {
	bar *progressbar.ProgressBar
}

// ProgressBar creates a progress bar on the error stream. It is nil in JSON
// mode; a nil *ProgressBar ignores every call.
func (ui *UI) ProgressBar(total int, description string) *ProgressBar {
	if ui.jsonMode {
		return nil
	}
	bar := progressbar.NewOptions(
		total,
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(ui.errOut),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionEnableColorCodes(!ui.noColor),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(ui.errOut, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
	return &ProgressBar{bar: bar}
}

// Increment advances the bar by one. Safe for concurrent use.
func (p *ProgressBar) Increment() {
	if p == nil {
		return
	}
	_ = p.bar.Add(1)
}

// Finish completes the bar.
func (p *ProgressBar) Finish() {
	if p == nil {
		return
	}
	_ = p.bar.Finish()
}

// Spinner wraps a spinner instance for indeterminate progress display.
type Spinner struct {
	spinner *spinner.Spinner
}

// Spinner creates a spinner on the error stream. It only animates when
// stderr is a terminal.
func (ui *UI) Spinner(message string) *Spinner {
	if ui.jsonMode || !IsTerminal(os.Stderr) {
		return nil
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(ui.errOut))
	s.Suffix = " " + message
	return &Spinner{spinner: s}
}

// Start starts the spinner animation.
func (s *Spinner) Start() {
	if s != nil {
		s.spinner.Start()
	}
}

// Stop stops the spinner animation and clears the line.
func (s *Spinner) Stop() {
	if s != nil {
		s.spinner.Stop()
	}
}

// IsTerminal checks if f is a terminal.
func IsTerminal(f *os.File) bool {
	fileInfo, err := f.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
