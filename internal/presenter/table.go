package presenter

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"
	"github.com/kamusis/skills-sync/internal/scan"
	"github.com/muesli/termenv"
)

// maxTableWidth keeps tables readable on very wide terminals.
const maxTableWidth = 140

// SkillTable prints one table per scan root.
func (p *TerminalPresenter) SkillTable(groups []scan.Group) {
	if p.quiet {
		return
	}
	r := p.renderer()
	header := r.NewStyle().Bold(true).Padding(0, 1)
	cell := r.NewStyle().Padding(0, 1)

	for _, g := range groups {
		fmt.Fprintf(p.output, "\n%s %s (%s)\n",
			p.paint(color.FgCyan).Sprint("●"), p.paint(color.Bold).Sprint(g.Label), g.Path)

		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(r.NewStyle().Faint(true)).
			Headers("Skill / 技能", "Directory / 目录", "Description / 描述").
			StyleFunc(func(row, _ int) lipgloss.Style {
				if row == table.HeaderRow {
					return header
				}
				return cell
			})
		for _, s := range g.Skills {
			t.Row(s.Name, s.RelDir, s.Description)
		}
		if w := p.tableWidth(); w > 0 {
			t.Width(w)
		}
		fmt.Fprintln(p.output, t.Render())
	}
}

// Total prints the skill count line under the tables.
func (p *TerminalPresenter) Total(n int) {
	if p.quiet {
		return
	}
	p.paint(color.Bold).Fprintf(p.output, "\nTotal: %d skill(s) / 共 %d 个技能\n", n, n)
}

func (p *TerminalPresenter) renderer() *lipgloss.Renderer {
	r := lipgloss.NewRenderer(p.output)
	switch {
	case p.colorMode == ColorAlways:
		r.SetColorProfile(termenv.ANSI256)
	case !p.colored():
		r.SetColorProfile(termenv.Ascii)
	}
	return r
}

func (p *TerminalPresenter) tableWidth() int {
	if p.width <= 0 {
		return 0
	}
	if p.width > maxTableWidth {
		return maxTableWidth
	}
	return p.width
}
