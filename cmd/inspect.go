package cmd

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/kamusis/skills-sync/internal/digest"
	"github.com/kamusis/skills-sync/internal/scan"
	"github.com/kamusis/skills-sync/internal/syncerr"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type inspectOptions struct {
	dirs []string
}

func newInspectCmd(g *globalOptions) *cobra.Command {
	o := &inspectOptions{}
	cmd := &cobra.Command{
		Use:   "inspect <skill>",
		Short: "Show what upload would send for one skill",
		Long: `Display a skill's metadata, its SKILL.md digest and the files in its
directory. Only SKILL.md is archived; the other files are listed so it is
clear what stays behind.

The argument is a skill name, its directory relative to the root, or
<root label>/<directory>, e.g.:
  skills-sync inspect humanizer
  skills-sync inspect .claude/skills/docs/pdf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.load(cmd)
			if err != nil {
				return err
			}
			return runInspect(a, o, args[0])
		},
	}
	cmd.Flags().StringArrayVarP(&o.dirs, "dir", "d", nil, "Directory to scan (repeatable; default ~/.claude/skills and ~/.codex/skills)")
	return cmd
}

func runInspect(a *app, o *inspectOptions, ref string) error {
	roots, err := a.roots(o.dirs)
	if err != nil {
		return err
	}
	entries, err := a.scan(roots)
	if err != nil {
		return err
	}
	e, ok := scan.Find(entries, ref)
	if !ok {
		return syncerr.InvalidInput("skill", errors.Errorf("no skill named %q under the scan roots", ref))
	}

	sum, err := digest.File(e.MarkerPath)
	if err != nil {
		return syncerr.IO("read", e.MarkerPath, err)
	}

	a.out.Section(e.Name)
	a.out.Info(fmt.Sprintf("Description / 描述: %s", orNone(e.Description)))
	a.out.Info(fmt.Sprintf("Root / 根目录:      %s (%s)", e.RootLabel, e.RootPath))
	a.out.Info(fmt.Sprintf("Directory / 目录:   %s", e.Dir()))
	a.out.Info(fmt.Sprintf("Archive path:      %s", e.ArchivePath()))
	a.out.Info(fmt.Sprintf("SHA-256:           %s", sum))

	a.out.Info("\n[ Files / 文件 ]")
	var skipped int
	err = filepath.WalkDir(e.Dir(), func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, _ := filepath.Rel(e.Dir(), p)
		size := ""
		if info, err := d.Info(); err == nil {
			size = humanize.IBytes(uint64(info.Size()))
		}
		if p == e.MarkerPath {
			a.out.Step(fmt.Sprintf("%s (%s, archived)", filepath.ToSlash(rel), size))
			return nil
		}
		skipped++
		a.out.Info(fmt.Sprintf("  ○  %s (%s)", filepath.ToSlash(rel), size))
		return nil
	})
	if err != nil {
		return syncerr.IO("walk", e.Dir(), err)
	}
	if skipped > 0 {
		a.out.Warning(fmt.Sprintf("%d file(s) are not part of the archive / %d 个文件不会上传", skipped, skipped))
	}
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
