package cmd

import (
	"fmt"
	"os"

	"github.com/kamusis/skills-sync/internal/config"
	"github.com/kamusis/skills-sync/internal/syncerr"
	"github.com/spf13/cobra"
)

type initOptions struct {
	force bool
}

func newInitCmd(g *globalOptions) *cobra.Command {
	o := &initOptions{}
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default ~/.skills-sync/config.yaml",
		Long: `Write the default configuration so it can be edited: server URL, timeout,
scan roots with their archive labels, exclude globs and download directory.
An existing file is left alone unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := g.load(cmd)
			if err != nil {
				return err
			}
			return runInit(a, g, o)
		},
	}
	cmd.Flags().BoolVar(&o.force, "force", false, "Overwrite an existing config file")
	return cmd
}

func runInit(a *app, g *globalOptions, o *initOptions) error {
	p := g.configPath
	if p == "" {
		var err error
		if p, err = config.Path(); err != nil {
			return syncerr.IO("locate config", "~/.skills-sync", err)
		}
	}

	if _, err := os.Stat(p); err == nil && !o.force {
		a.out.Warning(fmt.Sprintf("Config already exists, not overwritten / 配置已存在: %s (use --force)", p))
		return nil
	}

	// Flags and environment are folded in, so init records the effective values.
	if err := config.Save(p, a.cfg); err != nil {
		return syncerr.IO("write", p, err)
	}
	a.out.Success(fmt.Sprintf("Config written / 已写入配置: %s", p))
	for _, r := range a.cfg.Roots {
		a.out.Info(fmt.Sprintf("  root %s → %s", r.Label, r.Path))
	}
	return nil
}
