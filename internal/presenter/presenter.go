// Package presenter renders user-facing output: status lines, skill tables
// and transfer progress bars. It is a sink; nothing flows back to callers.
package presenter

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/kamusis/skills-sync/internal/scan"
)

// Presenter defines the interface for consistent CLI output.
type Presenter interface {
	Section(title string)
	Success(message string)
	Warning(message string)
	Info(message string)
	Error(message string)
	Step(message string)
	SkillTable(groups []scan.Group)
	Total(n int)
	Progress(label string) func(current, total int64)
	SetQuiet(quiet bool)
	IsQuiet() bool
}

// ColorMode represents different color output modes.
type ColorMode int

const (
	// ColorAuto colours output when stdout is a terminal.
	ColorAuto ColorMode = iota
	// ColorAlways forces colored output.
	ColorAlways
	// ColorNever disables colored output.
	ColorNever
)

// TerminalPresenter implements Presenter for terminal output.
type TerminalPresenter struct {
	output      io.Writer
	errorOutput io.Writer
	colorMode   ColorMode
	quiet       bool
	width       int
}

// New creates a TerminalPresenter on stdout/stderr.
func New() *TerminalPresenter {
	return NewWithOptions(os.Stdout, os.Stderr, DetectColorMode())
}

// NewWithOptions creates a TerminalPresenter with custom writers and colour mode.
func NewWithOptions(output, errorOutput io.Writer, colorMode ColorMode) *TerminalPresenter {
	return &TerminalPresenter{
		output:      output,
		errorOutput: errorOutput,
		colorMode:   colorMode,
		width:       detectWidth(output),
	}
}

// DetectColorMode reads NO_COLOR and SKILLS_SYNC_COLOR.
func DetectColorMode() ColorMode {
	if os.Getenv("NO_COLOR") != "" {
		return ColorNever
	}
	switch strings.ToLower(os.Getenv("SKILLS_SYNC_COLOR")) {
	case "always", "force":
		return ColorAlways
	case "never", "off":
		return ColorNever
	default:
		return ColorAuto
	}
}

// colored reports whether escape sequences are written.
func (p *TerminalPresenter) colored() bool {
	switch p.colorMode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return !color.NoColor
	}
}

func (p *TerminalPresenter) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if p.colored() {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// Section prints a section header, e.g. "=== Upload / 上传 ===".
func (p *TerminalPresenter) Section(title string) {
	if p.quiet {
		return
	}
	p.paint(color.Bold).Fprintf(p.output, "\n=== %s ===\n", title)
}

// Success prints a success line.
func (p *TerminalPresenter) Success(message string) {
	if p.quiet {
		return
	}
	p.paint(color.FgGreen, color.Bold).Fprintf(p.output, "✓ %s\n", message)
}

// Warning prints a warning line to stderr.
func (p *TerminalPresenter) Warning(message string) {
	if p.quiet {
		return
	}
	p.paint(color.FgYellow, color.Bold).Fprintf(p.errorOutput, "⚠ %s\n", message)
}

// Info prints a neutral line.
func (p *TerminalPresenter) Info(message string) {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.output, "%s\n", message)
}

// Error prints an error line to stderr. Quiet mode does not silence it.
func (p *TerminalPresenter) Error(message string) {
	p.paint(color.FgRed, color.Bold).Fprintf(p.errorOutput, "✗ %s\n", message)
}

// Step prints one checklist line.
func (p *TerminalPresenter) Step(message string) {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.output, "  %s  %s\n", p.paint(color.FgGreen).Sprint("✓"), message)
}

// SetQuiet enables or disables quiet mode.
func (p *TerminalPresenter) SetQuiet(quiet bool) {
	p.quiet = quiet
}

// IsQuiet returns whether quiet mode is enabled.
func (p *TerminalPresenter) IsQuiet() bool {
	return p.quiet
}
