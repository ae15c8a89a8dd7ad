package cmd

import (
	"fmt"
	"os"

	"github.com/kamusis/skills-sync/internal/fsutil"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newDoctorCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run pre-flight environment checks",
		Long: `Check the configuration, scan roots, temp and lock directories and that the
sync server answers. Run this when an upload or download fails unexpectedly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := g.load(cmd)
			if err != nil {
				return err
			}
			return runDoctor(cmd, a)
		},
	}
}

func runDoctor(cmd *cobra.Command, a *app) error {
	failed := 0
	fail := func(format string, args ...any) {
		a.out.Error(fmt.Sprintf(format, args...))
		failed++
	}

	a.out.Section("skills-sync doctor")

	// ── Scan roots ────────────────────────────────────────────────────────────
	a.out.Info("\n[ Scan roots / 扫描目录 ]")
	entries, err := a.scan(a.cfg.Roots)
	if err != nil {
		fail("scan failed: %v", err)
	}
	counts := map[string]int{}
	for _, e := range entries {
		counts[e.RootLabel]++
	}
	for _, r := range a.cfg.Roots {
		if info, err := os.Stat(r.Path); err != nil || !info.IsDir() {
			continue // reported by the scan warning
		}
		a.out.Step(fmt.Sprintf("%s (%s): %d skill(s)", r.Label, r.Path, counts[r.Label]))
	}
	if len(entries) == 0 {
		a.out.Warning("no skills found; upload would fail / 未找到技能")
	}

	// ── Temp and lock directories ─────────────────────────────────────────────
	a.out.Info("\n[ Local directories / 本地目录 ]")
	if base, err := fsutil.TempBase(); err != nil {
		fail("temp directory: %v", err)
	} else {
		a.out.Step("temp: " + base)
	}
	if p, err := fsutil.LockPath(); err != nil {
		fail("lock file: %v", err)
	} else {
		a.out.Step("lock: " + p)
	}

	// ── Server ────────────────────────────────────────────────────────────────
	a.out.Info("\n[ Server / 服务器 ]")
	status, err := a.client().Ping(a.context(cmd))
	if err != nil {
		fail("%s unreachable: %v", a.cfg.Server, err)
	} else {
		a.out.Step(fmt.Sprintf("%s answered HTTP %d", a.cfg.Server, status))
	}

	if failed > 0 {
		return errors.Errorf("%d check(s) failed", failed)
	}
	a.out.Success("All checks passed / 全部检查通过")
	return nil
}
