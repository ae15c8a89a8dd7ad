package cmd

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/kamusis/skills-sync/internal/archive"
	"github.com/kamusis/skills-sync/internal/digest"
	"github.com/kamusis/skills-sync/internal/fsutil"
	"github.com/kamusis/skills-sync/internal/scan"
	"github.com/kamusis/skills-sync/internal/syncerr"
	"github.com/spf13/cobra"
)

type uploadOptions struct {
	dirs   []string
	filter string
}

func newUploadCmd(g *globalOptions) *cobra.Command {
	o := &uploadOptions{}
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Scan skills, pack them and upload; prints a business code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := g.load(cmd)
			if err != nil {
				return err
			}
			return runUpload(cmd, a, o)
		},
	}
	cmd.Flags().StringArrayVarP(&o.dirs, "dir", "d", nil, "Directory to scan (repeatable; default ~/.claude/skills and ~/.codex/skills)")
	cmd.Flags().StringVarP(&o.filter, "filter", "f", "", "Only upload skills matching all of these keywords")
	return cmd
}

func runUpload(cmd *cobra.Command, a *app, o *uploadOptions) error {
	roots, err := a.roots(o.dirs)
	if err != nil {
		return err
	}

	a.out.Section("Scan / 扫描")
	entries, err := a.scan(roots)
	if err != nil {
		return err
	}
	entries = scan.Filter(entries, o.filter)
	if len(entries) == 0 {
		return syncerr.NoSkillsFound(rootPaths(roots))
	}
	a.out.SkillTable(scan.GroupByRoot(entries))
	a.out.Total(len(entries))

	a.out.Section("Pack / 打包")
	tmp, err := fsutil.TempArchivePath()
	if err != nil {
		return syncerr.IO("create", "temp archive", err)
	}
	defer func() {
		if err := fsutil.RemoveBestEffort(tmp); err != nil {
			a.log.WithError(err).WithField("path", tmp).Warn("cannot remove temp archive")
		}
	}()

	names, err := archive.PackFile(tmp, entries,
		archive.WithEntryObserver(a.out.Step),
		archive.WithLogger(a.log),
	)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return syncerr.NoSkillsFound(rootPaths(roots))
	}
	data, err := os.ReadFile(tmp)
	if err != nil {
		return syncerr.IO("read", tmp, err)
	}
	a.out.Info(fmt.Sprintf("Archive / 压缩包: %d file(s), %s", len(names), humanize.IBytes(uint64(len(data)))))
	a.out.Info("SHA-256: " + digest.Bytes(data))

	a.out.Section("Upload / 上传")
	code, err := a.client().Upload(a.context(cmd), data, a.out.Progress("Uploading / 上传中"))
	if err != nil {
		return err
	}

	if a.out.IsQuiet() {
		fmt.Fprintln(cmd.OutOrStdout(), code)
		return nil
	}
	a.out.Success(fmt.Sprintf("Uploaded / 上传成功. Business code / 业务码: %s", code))
	a.out.Info(fmt.Sprintf("Restore on another machine / 在另一台机器上恢复: skills-sync download -c %s", code))
	return nil
}
