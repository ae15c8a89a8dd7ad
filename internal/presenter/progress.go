package presenter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/muesli/termenv"
)

const (
	maxBarWidth = 40
	minBarWidth = 10
)

// Progress returns a callback that redraws a single progress line on stderr
// for (current, total) byte counts. A negative total renders bytes only. The
// line is terminated once current reaches total.
func (p *TerminalPresenter) Progress(label string) func(current, total int64) {
	if p.quiet {
		return func(int64, int64) {}
	}

	opts := []progress.Option{progress.WithWidth(p.barWidth())}
	if p.colored() {
		opts = append(opts, progress.WithDefaultGradient())
	} else {
		opts = append(opts, progress.WithColorProfile(termenv.Ascii), progress.WithFillCharacters('#', '.'))
	}
	bar := progress.New(opts...)

	lastWidth := 0
	finished := false
	return func(current, total int64) {
		if finished {
			return
		}
		var line string
		if total > 0 {
			pct := float64(current) / float64(total)
			if pct > 1 {
				pct = 1
			}
			line = fmt.Sprintf("  %s %s %s / %s", label, bar.ViewAs(pct),
				humanize.IBytes(uint64(current)), humanize.IBytes(uint64(total)))
		} else {
			line = fmt.Sprintf("  %s %s", label, humanize.IBytes(uint64(max(current, 0))))
		}

		w := lipgloss.Width(line)
		pad := ""
		if w < lastWidth {
			pad = strings.Repeat(" ", lastWidth-w)
		}
		lastWidth = w
		fmt.Fprintf(p.errorOutput, "\r%s%s", line, pad)

		if total >= 0 && current >= total {
			finished = true
			fmt.Fprintln(p.errorOutput)
		}
	}
}

func (p *TerminalPresenter) barWidth() int {
	w := p.width / 3
	if w > maxBarWidth {
		return maxBarWidth
	}
	if w < minBarWidth {
		return minBarWidth
	}
	return w
}
