package cmd

import (
	"fmt"

	"github.com/kamusis/skills-sync/internal/client"
	"github.com/kamusis/skills-sync/internal/config"
	"github.com/kamusis/skills-sync/internal/scan"
	"github.com/kamusis/skills-sync/internal/syncerr"
)

// roots returns the scan roots for this invocation: --dir values when given,
// otherwise the configured roots.
func (a *app) roots(dirs []string) ([]config.ScanRoot, error) {
	if len(dirs) == 0 {
		return a.cfg.Roots, nil
	}
	out := make([]config.ScanRoot, 0, len(dirs))
	seen := map[string]bool{}
	for _, d := range dirs {
		expanded, err := config.ExpandPath(d)
		if err != nil {
			return nil, syncerr.InvalidInput("--dir", err)
		}
		r := config.RootFor(expanded, a.home)
		if err := config.ValidateLabel(r.Label); err != nil {
			return nil, syncerr.InvalidInput("--dir", err)
		}
		if seen[r.Path] {
			continue
		}
		seen[r.Path] = true
		out = append(out, r)
	}
	if err := config.CheckLabels(out); err != nil {
		return nil, syncerr.InvalidInput("--dir", err)
	}
	return out, nil
}

// scan walks roots, reporting unreadable ones as warnings.
func (a *app) scan(roots []config.ScanRoot) ([]scan.SkillEntry, error) {
	s := scan.New(
		scan.WithExcludes(a.cfg.Excludes...),
		scan.WithLogger(a.log),
		scan.WithSkipObserver(func(root config.ScanRoot, err error) {
			a.out.Warning(fmt.Sprintf("Skipping %s / 跳过: %v", root.Path, err))
		}),
	)
	return s.Scan(roots)
}

func (a *app) client() *client.Client {
	return client.New(a.cfg.Server,
		client.WithTimeout(a.cfg.Timeout),
		client.WithUserAgent("skills-sync/"+version),
	)
}

func rootPaths(roots []config.ScanRoot) []string {
	out := make([]string, 0, len(roots))
	for _, r := range roots {
		out = append(out, r.Path)
	}
	return out
}
