package cmd

import (
	"encoding/json"

	"github.com/kamusis/skills-sync/internal/scan"
	"github.com/spf13/cobra"
)

type listOptions struct {
	dirs   []string
	filter string
	json   bool
}

// listedSkill is the --json shape of one skill.
type listedSkill struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Root        string `json:"root"`
	Dir         string `json:"dir"`
	ArchivePath string `json:"archive_path"`
}

func newListCmd(g *globalOptions) *cobra.Command {
	o := &listOptions{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the skills that upload would send",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := g.load(cmd)
			if err != nil {
				return err
			}
			return runList(cmd, a, o)
		},
	}
	cmd.Flags().StringArrayVarP(&o.dirs, "dir", "d", nil, "Directory to scan (repeatable; default ~/.claude/skills and ~/.codex/skills)")
	cmd.Flags().StringVarP(&o.filter, "filter", "f", "", "Only list skills matching all of these keywords")
	cmd.Flags().BoolVar(&o.json, "json", false, "Print skills as JSON")
	return cmd
}

func runList(cmd *cobra.Command, a *app, o *listOptions) error {
	roots, err := a.roots(o.dirs)
	if err != nil {
		return err
	}
	entries, err := a.scan(roots)
	if err != nil {
		return err
	}
	entries = scan.Filter(entries, o.filter)

	if o.json {
		out := make([]listedSkill, 0, len(entries))
		for _, e := range entries {
			out = append(out, listedSkill{
				Name:        e.Name,
				Description: e.Description,
				Root:        e.RootLabel,
				Dir:         e.Dir(),
				ArchivePath: e.ArchivePath(),
			})
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	a.out.SkillTable(scan.GroupByRoot(entries))
	a.out.Total(len(entries))
	return nil
}
