package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

// UI provides user-friendly output utilities.
type UI struct {
	out         io.Writer
	errOut      io.Writer
	noColor     bool
	jsonMode    bool
	interactive bool
}

// NewUI creates a UI writing to out and errOut. Spinners and progress bars
// only render when errOut is a terminal.
func NewUI(out, errOut io.Writer, jsonMode, noColor bool) *UI {
	return &UI{
		out:         out,
		errOut:      errOut,
		noColor:     noColor,
		jsonMode:    jsonMode,
		interactive: !jsonMode && isTerminal(errOut),
	}
}

func (ui *UI) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if ui.noColor {
		c.DisableColor()
	}
	return c
}

func (ui *UI) line(c *color.Color, symbol, format string, args ...interface{}) {
	if ui.jsonMode {
		return
	}
	c.Fprintf(ui.out, "%s %s\n", symbol, fmt.Sprintf(format, args...))
}

// Success prints a success message.
func (ui *UI) Success(format string, args ...interface{}) {
	ui.line(ui.paint(color.FgGreen), "✓", format, args...)
}

// Warning prints a warning message.
func (ui *UI) Warning(format string, args ...interface{}) {
	ui.line(ui.paint(color.FgYellow), "⚠", format, args...)
}

// Info prints an info message.
func (ui *UI) Info(format string, args ...interface{}) {
	ui.line(ui.paint(color.FgCyan), "ℹ", format, args...)
}

// Step prints a step message.
func (ui *UI) Step(format string, args ...interface{}) {
	ui.line(ui.paint(color.FgBlue), "→", format, args...)
}

// JSON writes v as indented JSON.
func (ui *UI) JSON(v interface{}) error {
	enc := json.NewEncoder(ui.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Section prints a section header.
func (ui *UI) Section(title string) {
	if ui.jsonMode {
		return
	}
	fmt.Fprintln(ui.out)
	ui.paint(color.FgMagenta, color.Bold).Fprintf(ui.out, "━━━ %s ━━━\n", strings.ToUpper(title))
}

// KeyValue prints a key-value pair.
func (ui *UI) KeyValue(key string, value interface{}) {
	if ui.jsonMode {
		return
	}
	ui.paint(color.FgYellow).Fprintf(ui.out, "  %s: ", key)
	fmt.Fprintf(ui.out, "%v\n", value)
}

// Table prints rows under headers with aligned columns.
func (ui *UI) Table(headers []string, rows [][]string) {
	if ui.jsonMode || len(headers) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	rule := func() {
		parts := make([]string, len(widths))
		for i, w := range widths {
			parts[i] = strings.Repeat("-", w+2)
		}
		fmt.Fprintf(ui.out, "+%s+\n", strings.Join(parts, "+"))
	}
	printRow := func(cells []string, c *color.Color) {
		fmt.Fprint(ui.out, "|")
		for i, w := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			c.Fprintf(ui.out, " %-*s ", w, cell)
			fmt.Fprint(ui.out, "|")
		}
		fmt.Fprintln(ui.out)
	}

	rule()
	printRow(headers, ui.paint(color.FgCyan, color.Bold))
	rule()
	plain := ui.paint()
	for _, row := range rows {
		printRow(row, plain)
	}
	rule()
}

// Spinner starts a spinner with message and returns its stop function.
func (ui *UI) Spinner(message string) func() {
	if !ui.interactive {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message
	s.Writer = ui.errOut
	s.Start()
	return s.Stop
}

// ProgressBar returns a callback that advances a bar to done of total.
func (ui *UI) ProgressBar(description string, total int) (func(done, total int), func()) {
	if !ui.interactive {
		return func(int, int) {}, func() {}
	}
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(ui.errOut),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("rows"),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(ui.errOut) }),
	)
	return func(done, _ int) { _ = bar.Set(done) }, func() { _ = bar.Finish() }
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
